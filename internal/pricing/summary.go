package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// Summarize totals order lines.
//
//	subtotal = sum(price * qty)
//	savings  = sum((price - discountPrice) * qty) over discounted lines
//	shipping = sum(shippingCost)
//	total    = subtotal - savings + shipping
func Summarize(items []types.OrderItem) types.PriceSummary {
	subtotal := decimal.Zero
	savings := decimal.Zero
	shipping := decimal.Zero

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(qty))
		if item.DiscountPrice > 0 {
			saved := price.Sub(decimal.NewFromFloat(item.DiscountPrice)).Mul(qty)
			savings = savings.Add(saved)
		}
		shipping = shipping.Add(decimal.NewFromFloat(item.ShippingCost))
	}

	total := subtotal.Sub(savings).Add(shipping)
	return types.PriceSummary{
		Subtotal:     subtotal.Round(2).InexactFloat64(),
		Savings:      savings.Round(2).InexactFloat64(),
		ShippingCost: shipping.Round(2).InexactFloat64(),
		Total:        total.Round(2).InexactFloat64(),
	}
}

// SummariesEqual compares two summaries to the paisa.
func SummariesEqual(a, b types.PriceSummary) bool {
	eq := func(x, y float64) bool {
		return decimal.NewFromFloat(x).Round(2).Equal(decimal.NewFromFloat(y).Round(2))
	}
	return eq(a.Subtotal, b.Subtotal) && eq(a.Savings, b.Savings) &&
		eq(a.ShippingCost, b.ShippingCost) && eq(a.Total, b.Total)
}

// WithShipping adds a shipping cost to a price, rounded to the paisa.
func WithShipping(price, shippingCost float64) float64 {
	return decimal.NewFromFloat(price).Add(decimal.NewFromFloat(shippingCost)).Round(2).InexactFloat64()
}

// ToSubunits converts a rupee amount into paise for the payment gateway.
func ToSubunits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
