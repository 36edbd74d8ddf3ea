package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GroceryboT/internal/metrics"
	"github.com/Kerhoff/GroceryboT/internal/models"
	"github.com/Kerhoff/GroceryboT/internal/repository"
)

func newTestService(t *testing.T, ttl time.Duration) (*Service, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)
	return New(logger, metrics.New(), ttl, nil), hook
}

func TestComputeTotals(t *testing.T) {
	items := []models.Item{
		{ID: "a", Price: 10, Quantity: 2, Purchased: false},
		{ID: "b", Price: 5, Quantity: 3, Purchased: true},
	}

	got := ComputeTotals(items)
	assert.Equal(t, models.Totals{Total: 35, PurchasedTotal: 15, Count: 2}, got)

	reversed := []models.Item{items[1], items[0]}
	assert.Equal(t, got, ComputeTotals(reversed))
}

func TestComputeTotalsEmpty(t *testing.T) {
	assert.Equal(t, models.Totals{}, ComputeTotals(nil))
	assert.Equal(t, models.Totals{}, ComputeTotals([]models.Item{}))
}

func TestComputeTotalsKeepsFullPrecision(t *testing.T) {
	items := make([]models.Item, 3)
	for i := range items {
		items[i] = models.Item{Price: 0.335, Quantity: 1}
	}
	// Rounding each subtotal first would give 1.02; the sum is 1.005.
	totals := ComputeTotals(items)
	assert.InDelta(t, 1.005, totals.Total, 1e-9)
	assert.Equal(t, 3, totals.Count)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "₹ 120.00", FormatAmount(120))
	assert.Equal(t, "₹ 0.00", FormatAmount(0))
	assert.Equal(t, "₹ 3.14", FormatAmount(3.14159))
	assert.Equal(t, "2", FormatQuantity(2))
	assert.Equal(t, "1.5", FormatQuantity(1.5))
}

func TestMilkScenario(t *testing.T) {
	svc, _ := newTestService(t, 0)
	sess := svc.Session("user-1")

	id, view, err := sess.Add("Milk", models.UnitLiters)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	_, err = sess.SetPrice(id, 60)
	require.NoError(t, err)
	view, err = sess.SetQuantity(id, 2)
	require.NoError(t, err)
	assert.Equal(t, 120.0, view.Totals.Total)
	assert.Equal(t, 0.0, view.Totals.PurchasedTotal)
	assert.Equal(t, 1, view.Totals.Count)
	assert.Equal(t, "₹ 120.00", FormatAmount(view.Totals.Total))
	assert.Equal(t, "₹ 0.00", FormatAmount(view.Totals.PurchasedTotal))

	view, err = sess.SetPurchased(id, true)
	require.NoError(t, err)
	assert.Equal(t, 120.0, view.Totals.PurchasedTotal)

	view, err = sess.Remove(id)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Totals.Count)
	assert.Equal(t, 0.0, view.Totals.Total)
}

func TestRejectedCallStillReturnsView(t *testing.T) {
	svc, _ := newTestService(t, 0)
	sess := svc.Session("user-1")
	id, _, err := sess.Add("Rice", models.UnitKg)
	require.NoError(t, err)
	_, err = sess.SetPrice(id, 50)
	require.NoError(t, err)

	view, err := sess.SetPrice(id, -1)
	assert.ErrorIs(t, err, repository.ErrValidation)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 50.0, view.Items[0].Price)
	assert.Equal(t, 50.0, view.Totals.Total)
}

func TestSessionsAreIndependent(t *testing.T) {
	svc, _ := newTestService(t, 0)

	a := svc.Session("a")
	b := svc.Session("b")
	_, _, err := a.Add("Tea", models.UnitPackets)
	require.NoError(t, err)

	assert.Len(t, a.View().Items, 1)
	assert.Empty(t, b.View().Items)
	assert.Same(t, a, svc.Session("a"))
	assert.Equal(t, 2, svc.Len())
	assert.Equal(t, "a", a.Key())
}

func TestClearTwice(t *testing.T) {
	svc, _ := newTestService(t, 0)
	sess := svc.Session("k")
	_, _, _ = sess.Add("Eggs", models.UnitDozen)

	first := sess.Clear()
	second := sess.Clear()
	assert.Equal(t, first, second)
	assert.Empty(t, second.Items)
	assert.Equal(t, models.Totals{}, second.Totals)
}

func TestExportImport(t *testing.T) {
	svc, _ := newTestService(t, 0)
	src := svc.Session("src")
	id, _, _ := src.Add("Flour", models.UnitKg)
	_, _ = src.SetPrice(id, 42.5)
	_, _ = src.SetPurchased(id, true)
	_, _, _ = src.Add("Oil", models.UnitLiters)

	data, err := src.Export()
	require.NoError(t, err)

	dst := svc.Session("dst")
	view, err := dst.Import(data)
	require.NoError(t, err)
	assert.Equal(t, src.View(), view)

	_, err = dst.Import([]byte("not json"))
	assert.ErrorIs(t, err, repository.ErrValidation)
	assert.Len(t, dst.View().Items, 2)
}

func TestDrop(t *testing.T) {
	svc, _ := newTestService(t, 0)
	svc.Session("gone")

	assert.True(t, svc.Drop("gone"))
	assert.False(t, svc.Drop("gone"))
	assert.Equal(t, 0, svc.Len())
}

func TestDropIsLogged(t *testing.T) {
	svc, hook := newTestService(t, 0)
	svc.Session("gone")
	require.True(t, svc.Drop("gone"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Dropped session", entry.Message)
	assert.Equal(t, "gone", entry.Data["session"])
}

func TestLookupDoesNotCreate(t *testing.T) {
	svc, _ := newTestService(t, 0)

	_, ok := svc.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, svc.Len())

	created := svc.Session("present")
	found, ok := svc.Lookup("present")
	require.True(t, ok)
	assert.Same(t, created, found)
}

func TestMaxSessionsEvictsLeastRecentlyUsed(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := New(logger, metrics.New(), 0, nil, WithMaxSessions(2))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.Session("a")
	now = now.Add(time.Minute)
	svc.Session("b")
	now = now.Add(time.Minute)
	svc.Session("a").View()
	now = now.Add(time.Minute)
	svc.Session("c")

	assert.Equal(t, 2, svc.Len())
	_, ok := svc.Lookup("b")
	assert.False(t, ok)
	_, ok = svc.Lookup("a")
	assert.True(t, ok)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "b", entry.Data["session"])
}

func TestOperationsAreLogged(t *testing.T) {
	svc, hook := newTestService(t, 0)
	sess := svc.Session("logged")

	_, _, err := sess.Add("", models.UnitKg)
	require.Error(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "add", entry.Data["operation"])
	assert.Equal(t, metrics.ResultInvalid, entry.Data["result"])
	assert.Equal(t, "logged", entry.Data["session"])
}

func TestConcurrentSessionAccess(t *testing.T) {
	svc, _ := newTestService(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := svc.Session("shared")
			for j := 0; j < 25; j++ {
				_, _, err := sess.Add(fmt.Sprintf("item %d-%d", i, j), models.UnitPcs)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, svc.Session("shared").View().Items, 200)
	assert.Equal(t, 1, svc.Len())
}

func TestEvictIdle(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.Session("old")
	now = now.Add(30 * time.Minute)
	fresh := svc.Session("fresh")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, svc.evictIdle())
	assert.Equal(t, 1, svc.Len())

	fresh.View()
	now = now.Add(59 * time.Minute)
	assert.Equal(t, 0, svc.evictIdle())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, svc.evictIdle())
	assert.Equal(t, 0, svc.Len())
}

func TestJanitorStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, time.Nanosecond)
	svc.Session("short")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartJanitor(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return svc.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestJanitorDisabledWithoutTTL(t *testing.T) {
	svc, _ := newTestService(t, 0)
	// Returns immediately instead of blocking.
	svc.StartJanitor(context.Background(), time.Millisecond)
}
