package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GroceryboT/internal/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	items := []models.Item{
		{ID: "3f1c", Name: "Milk", Price: 60, Quantity: 2, Unit: models.UnitLiters},
		{ID: "a9e0", Name: "Apples", Price: 0.1 + 0.2, Quantity: 1.75, Unit: models.UnitKg, Purchased: true},
		{ID: "0b2d", Name: "Eggs", Price: 0, Quantity: 0, Unit: models.UnitDozen},
	}

	data, err := EncodeSnapshot(items)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, items, decoded)
}

func TestEncodeEmptySnapshot(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, string(data))

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.NotNil(t, decoded)
}

func TestDecodeSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{"version":1,"items":[`},
		{name: "wrong version", data: `{"version":2,"items":[]}`},
		{name: "missing version", data: `{"items":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.data))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	nf := NotFound("abc")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrValidation)
	assert.Equal(t, "could not find an item with id: abc", nf.Error())

	inv := Invalid("price", "must not be negative")
	assert.ErrorIs(t, inv, ErrValidation)
	assert.Equal(t, "price: must not be negative", inv.Error())
}

func TestValidateItemsAcceptsValidList(t *testing.T) {
	err := ValidateItems([]models.Item{
		{ID: "1", Name: "Rice", Price: 50, Quantity: 5, Unit: models.UnitKg},
		{ID: "2", Name: "Soap", Price: 30, Quantity: 3, Unit: models.UnitPcs},
	})
	assert.NoError(t, err)
	assert.NoError(t, ValidateItems(nil))
}

func TestValidateItemsMissingID(t *testing.T) {
	err := ValidateItems([]models.Item{{Name: "Rice", Quantity: 1, Unit: models.UnitKg}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1: missing id")
}
