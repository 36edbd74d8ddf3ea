package memory

import (
	"github.com/google/uuid"

	"github.com/Kerhoff/GroceryboT/internal/models"
	"github.com/Kerhoff/GroceryboT/internal/repository"
)

const (
	defaultPrice    = 0.0
	defaultQuantity = 1.0
)

// IDGenerator produces item identifiers.
type IDGenerator func() models.ItemID

// NewUUID is the default IDGenerator.
func NewUUID() models.ItemID {
	return models.ItemID(uuid.NewString())
}

// Option configures a ListStore.
type Option func(*ListStore)

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *ListStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// ListStore keeps one grocery list in insertion order. An id handed out by
// Add or loaded by Restore is never issued again, even after removal.
type ListStore struct {
	items  []models.Item
	newID  IDGenerator
	issued map[models.ItemID]struct{}
}

var _ repository.ListStore = (*ListStore)(nil)

// NewListStore creates an empty list
func NewListStore(opts ...Option) *ListStore {
	s := &ListStore{newID: NewUUID, issued: make(map[models.ItemID]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ListStore) Add(name string, unit models.Unit) (models.ItemID, error) {
	name, err := repository.ValidateName(name)
	if err != nil {
		return "", err
	}
	if err := repository.ValidateUnit(unit); err != nil {
		return "", err
	}

	id := s.newID()
	for id == "" || s.wasIssued(id) {
		id = s.newID()
	}
	s.issued[id] = struct{}{}

	s.items = append(s.items, models.Item{
		ID:        id,
		Name:      name,
		Price:     defaultPrice,
		Quantity:  defaultQuantity,
		Unit:      unit,
		Purchased: false,
	})
	return id, nil
}

func (s *ListStore) Get(id models.ItemID) (models.Item, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Item{}, repository.NotFound(id)
	}
	return s.items[i], nil
}

func (s *ListStore) SetPrice(id models.ItemID, value float64) error {
	i := s.indexOf(id)
	if i < 0 {
		return repository.NotFound(id)
	}
	if err := repository.ValidateAmount("price", value); err != nil {
		return err
	}
	s.items[i].Price = value
	return nil
}

func (s *ListStore) SetQuantity(id models.ItemID, value float64) error {
	i := s.indexOf(id)
	if i < 0 {
		return repository.NotFound(id)
	}
	if err := repository.ValidateAmount("quantity", value); err != nil {
		return err
	}
	s.items[i].Quantity = value
	return nil
}

func (s *ListStore) SetPurchased(id models.ItemID, purchased bool) error {
	i := s.indexOf(id)
	if i < 0 {
		return repository.NotFound(id)
	}
	s.items[i].Purchased = purchased
	return nil
}

// Remove deletes the item. Removing an absent id is a NotFoundError, not a
// no-op.
func (s *ListStore) Remove(id models.ItemID) error {
	i := s.indexOf(id)
	if i < 0 {
		return repository.NotFound(id)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *ListStore) Clear() {
	s.items = nil
}

// List returns a copy of the items in insertion order.
func (s *ListStore) List() []models.Item {
	out := make([]models.Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ListStore) Len() int {
	return len(s.items)
}

// Restore replaces the whole list with items after validating all of them.
// On error the current list is kept.
func (s *ListStore) Restore(items []models.Item) error {
	if err := repository.ValidateItems(items); err != nil {
		return err
	}
	restored := make([]models.Item, len(items))
	for i, item := range items {
		name, _ := repository.ValidateName(item.Name)
		item.Name = name
		restored[i] = item
		s.issued[item.ID] = struct{}{}
	}
	s.items = restored
	return nil
}

func (s *ListStore) wasIssued(id models.ItemID) bool {
	_, ok := s.issued[id]
	return ok
}

func (s *ListStore) indexOf(id models.ItemID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
