package domain

import "github.com/shopspring/decimal"

// FallbackUnitPrice spreads the purchase price evenly over every planned unit.
// Each unit is assumed to carry the same share of the asset's value.
func FallbackUnitPrice(purchasePrice decimal.Decimal, items []SourceItem) decimal.Decimal {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	if total <= 0 || !purchasePrice.IsPositive() {
		return decimal.Zero
	}
	return purchasePrice.Div(decimal.NewFromInt(int64(total))).Round(CurrencyPrecision)
}

// ApplyFallbackPricing returns a copy of items where every missing or zero
// unit price is replaced by FallbackUnitPrice.
func ApplyFallbackPricing(purchasePrice decimal.Decimal, items []SourceItem) []SourceItem {
	fallback := FallbackUnitPrice(purchasePrice, items)
	out := make([]SourceItem, len(items))
	for i, item := range items {
		if item.UnitPrice.IsZero() {
			item.UnitPrice = fallback
		}
		out[i] = item
	}
	return out
}
