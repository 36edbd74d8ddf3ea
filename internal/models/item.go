package models

import (
	"fmt"
	"strings"
)

// ItemID is the opaque identifier of a grocery item.
type ItemID string

// Unit is the measure an item is bought in.
type Unit string

const (
	UnitKg      Unit = "kg"
	UnitLiters  Unit = "liters"
	UnitPcs     Unit = "pcs"
	UnitPackets Unit = "packets"
	UnitDozen   Unit = "dozen"
)

var units = []Unit{UnitKg, UnitLiters, UnitPcs, UnitPackets, UnitDozen}

// Units returns the supported units in display order.
func Units() []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	for _, known := range units {
		if u == known {
			return true
		}
	}
	return false
}

// ParseUnit converts user input into a Unit, ignoring case and surrounding
// whitespace.
func ParseUnit(raw string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(raw)))
	if !u.Valid() {
		return "", fmt.Errorf("unknown unit %q", raw)
	}
	return u, nil
}

// Item represents a single entry on the grocery list
type Item struct {
	ID        ItemID  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Unit      Unit    `json:"unit"`
	Purchased bool    `json:"purchased"`
}

// Subtotal is price times quantity. It is always derived, never stored.
func (i Item) Subtotal() float64 {
	return i.Price * i.Quantity
}

// Totals holds the aggregate figures shown under the list.
type Totals struct {
	Total          float64 `json:"total"`
	PurchasedTotal float64 `json:"purchased_total"`
	Count          int     `json:"count"`
}
