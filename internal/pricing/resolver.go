// Package pricing resolves the price of a product for a variant selection.
//
// Resolve is the only place prices are derived. Catalog listings, the
// price-details endpoint, cart insertion and order creation all call it so
// that the amounts snapshotted into carts and orders agree exactly.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

const (
	errValueNotFound   = "Selected value not found in price adjustments"
	errNoValueSelected = "No value selected for this filter"
)

// Entry is the per-filter contribution to a resolved price.
type Entry struct {
	Value          *string `json:"value"`
	NormalPrice    float64 `json:"normalPrice"`
	EffectivePrice float64 `json:"effectivePrice"`
	IsDiscounted   bool    `json:"isDiscounted"`
	Error          string  `json:"error,omitempty"`
}

// Resolution is the outcome of resolving one product against one selection.
type Resolution struct {
	NormalPrice    float64          `json:"normalPrice"`
	EffectivePrice float64          `json:"effectivePrice"`
	Breakdown      map[string]Entry `json:"priceBreakdown"`
}

// Discounted reports whether any breakdown entry applied a discount.
func (r Resolution) Discounted() bool {
	for _, entry := range r.Breakdown {
		if entry.IsDiscounted {
			return true
		}
	}
	return false
}

// Complete reports whether every entry resolved without an error marker.
func (r Resolution) Complete() bool {
	for _, entry := range r.Breakdown {
		if entry.Error != "" {
			return false
		}
	}
	return true
}

// LinePrices returns the (price, discountPrice) pair stored on cart and order lines.
// discountPrice is 0 when nothing in the selection is discounted.
func (r Resolution) LinePrices() (price, discountPrice float64) {
	if r.Discounted() {
		return r.NormalPrice, r.EffectivePrice
	}
	return r.NormalPrice, 0
}

// Resolve computes normal and effective totals for the selection.
// It is pure: the same filters and selection always yield the same Resolution.
func Resolve(filters types.Filters, selection types.Selection) Resolution {
	normal := decimal.Zero
	effective := decimal.Zero
	breakdown := make(map[string]Entry, len(filters))

	for _, filter := range filters {
		selected, ok := selection[filter.Name]
		if !ok || selected == "" {
			if len(filter.PriceAdjustments) > 0 {
				breakdown[filter.Name] = Entry{Error: errNoValueSelected}
			}
			continue
		}

		value := selected
		adj, found := filter.Adjustment(selected)
		if !found {
			breakdown[filter.Name] = Entry{Value: &value, Error: errValueNotFound}
			continue
		}

		price := decimal.NewFromFloat(adj.Price)
		contributed := price
		discounted := adj.DiscountPrice > 0
		if discounted {
			contributed = decimal.NewFromFloat(adj.DiscountPrice)
		}

		normal = normal.Add(price)
		effective = effective.Add(contributed)
		breakdown[filter.Name] = Entry{
			Value:          &value,
			NormalPrice:    adj.Price,
			EffectivePrice: contributed.InexactFloat64(),
			IsDiscounted:   discounted,
		}
	}

	return Resolution{
		NormalPrice:    normal.Round(2).InexactFloat64(),
		EffectivePrice: effective.Round(2).InexactFloat64(),
		Breakdown:      breakdown,
	}
}
