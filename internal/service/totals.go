package service

import (
	"fmt"

	"github.com/Kerhoff/GroceryboT/internal/models"
)

// CurrencySymbol prefixes every amount shown to the user.
const CurrencySymbol = "₹"

// ComputeTotals sums subtotals over all items and over purchased items.
// Sums are kept at full precision; round only for display.
func ComputeTotals(items []models.Item) models.Totals {
	var totals models.Totals
	for _, item := range items {
		subtotal := item.Subtotal()
		totals.Total += subtotal
		if item.Purchased {
			totals.PurchasedTotal += subtotal
		}
	}
	totals.Count = len(items)
	return totals
}

// FormatAmount renders v with two decimals for display.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%s %.2f", CurrencySymbol, v)
}

// FormatQuantity drops trailing zeros so 2 shows as "2" and 1.5 as "1.5".
func FormatQuantity(v float64) string {
	return fmt.Sprintf("%g", v)
}
