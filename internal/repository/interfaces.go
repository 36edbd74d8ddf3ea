package repository

import (
	"github.com/Kerhoff/GroceryboT/internal/models"
)

// ListStore defines the operations on one session's grocery list.
// Implementations are not safe for concurrent use; callers serialize access.
type ListStore interface {
	Add(name string, unit models.Unit) (models.ItemID, error)
	Get(id models.ItemID) (models.Item, error)
	SetPrice(id models.ItemID, value float64) error
	SetQuantity(id models.ItemID, value float64) error
	SetPurchased(id models.ItemID, purchased bool) error
	Remove(id models.ItemID) error
	Clear()
	List() []models.Item
	Len() int
	Restore(items []models.Item) error
}
