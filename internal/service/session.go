package service

import (
	"sync"
	"time"

	"github.com/Kerhoff/GroceryboT/internal/models"
	"github.com/Kerhoff/GroceryboT/internal/repository"
)

// View is what a presentation layer renders after each call: the list in
// store order and the totals computed from it.
type View struct {
	Items  []models.Item `json:"items"`
	Totals models.Totals `json:"totals"`
}

func newView(store repository.ListStore) View {
	items := store.List()
	return View{Items: items, Totals: ComputeTotals(items)}
}

// Session owns one user's grocery list. Calls on a session are serialized;
// different sessions never share a store.
type Session struct {
	key     string
	mu      sync.Mutex
	store   repository.ListStore
	used    time.Time
	now     func() time.Time
	observe func(key, operation string, err error)
}

// Key returns the identifier the session is registered under.
func (s *Session) Key() string {
	return s.key
}

// Do runs one mutation against the store, then recomputes the view. The
// view is returned even when fn fails so callers can re-render.
func (s *Session) Do(operation string, fn func(store repository.ListStore) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.used = s.now()
	err := fn(s.store)
	if s.observe != nil {
		s.observe(s.key, operation, err)
	}
	return newView(s.store), err
}

// View returns the current list and totals without mutating anything.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.used = s.now()
	return newView(s.store)
}

// Add appends a new item.
func (s *Session) Add(name string, unit models.Unit) (models.ItemID, View, error) {
	var id models.ItemID
	view, err := s.Do("add", func(store repository.ListStore) error {
		var err error
		id, err = store.Add(name, unit)
		return err
	})
	return id, view, err
}

func (s *Session) SetPrice(id models.ItemID, value float64) (View, error) {
	return s.Do("set_price", func(store repository.ListStore) error {
		return store.SetPrice(id, value)
	})
}

func (s *Session) SetQuantity(id models.ItemID, value float64) (View, error) {
	return s.Do("set_quantity", func(store repository.ListStore) error {
		return store.SetQuantity(id, value)
	})
}

func (s *Session) SetPurchased(id models.ItemID, purchased bool) (View, error) {
	return s.Do("set_purchased", func(store repository.ListStore) error {
		return store.SetPurchased(id, purchased)
	})
}

func (s *Session) Remove(id models.ItemID) (View, error) {
	return s.Do("remove", func(store repository.ListStore) error {
		return store.Remove(id)
	})
}

func (s *Session) Clear() View {
	view, _ := s.Do("clear", func(store repository.ListStore) error {
		store.Clear()
		return nil
	})
	return view
}

// Export encodes the current list as a snapshot.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.used = s.now()
	return repository.EncodeSnapshot(s.store.List())
}

// Import replaces the list with a snapshot produced by Export.
func (s *Session) Import(data []byte) (View, error) {
	return s.Do("import", func(store repository.ListStore) error {
		items, err := repository.DecodeSnapshot(data)
		if err != nil {
			return err
		}
		return store.Restore(items)
	})
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.used)
}
