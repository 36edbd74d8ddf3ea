package repository

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/GroceryboT/internal/models"
)

// ValidateName checks an item name and returns it trimmed.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name", "item name must not be empty")
	}
	return name, nil
}

// ValidateUnit rejects units outside the fixed set.
func ValidateUnit(unit models.Unit) error {
	if !unit.Valid() {
		return Invalid("unit", fmt.Sprintf("unsupported unit %q", unit))
	}
	return nil
}

// ValidateAmount rejects negative and non-finite prices and quantities.
func ValidateAmount(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Invalid(field, "must be a finite number")
	}
	if value < 0 {
		return Invalid(field, "must not be negative")
	}
	return nil
}

// ValidateItems checks a full list, as received from a snapshot, and
// reports every problem at once.
func ValidateItems(items []models.Item) error {
	var result *multierror.Error
	seen := make(map[models.ItemID]int, len(items))

	for i, item := range items {
		row := i + 1
		if item.ID == "" {
			result = multierror.Append(result, fmt.Errorf("item %d: missing id", row))
		} else if first, dup := seen[item.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("item %d: duplicate id %s (first seen at item %d)", row, item.ID, first))
		} else {
			seen[item.ID] = row
		}
		if _, err := ValidateName(item.Name); err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d: %w", row, err))
		}
		if err := ValidateUnit(item.Unit); err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d: %w", row, err))
		}
		if err := ValidateAmount("price", item.Price); err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d: %w", row, err))
		}
		if err := ValidateAmount("quantity", item.Quantity); err != nil {
			result = multierror.Append(result, fmt.Errorf("item %d: %w", row, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return &ValidationError{Field: "items", Message: err.Error(), Err: err}
	}
	return nil
}
