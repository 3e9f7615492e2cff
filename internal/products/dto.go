package products

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/internal/pricing"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// ListQuery holds the browse filters. Filters maps a filter name to the values
// any of which a product must offer.
type ListQuery struct {
	Category    string
	SubCategory string
	Brand       string
	Search      string
	Filters     map[string][]string
}

// Listing is a product annotated with its resolved price for a selection.
type Listing struct {
	models.Product
	EffectivePrice float64                  `json:"effectivePrice"`
	NormalPrice    float64                  `json:"normalPrice"`
	PriceBreakdown map[string]pricing.Entry `json:"priceBreakdown"`
}

func newListing(p models.Product, selection types.Selection) Listing {
	res := pricing.Resolve(p.Filters, selection)
	return Listing{
		Product:        p,
		EffectivePrice: res.EffectivePrice,
		NormalPrice:    res.NormalPrice,
		PriceBreakdown: res.Breakdown,
	}
}

// PriceDetails is the full price resolution for one product.
type PriceDetails struct {
	ProductID      uuid.UUID                `json:"productId"`
	ProductName    string                   `json:"productName"`
	PriceBreakdown map[string]pricing.Entry `json:"priceBreakdown"`
	EffectivePrice float64                  `json:"effectivePrice"`
	NormalPrice    float64                  `json:"normalPrice"`
	ShippingCost   float64                  `json:"shippingCost"`
	TotalCost      float64                  `json:"totalCost"`
}

type Suggestion struct {
	ID       uuid.UUID `json:"_id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Display  string    `json:"display"`
}

// SearchResult holds either suggestions or a message when nothing matched.
type SearchResult struct {
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// ProductInput carries admin create/update fields. Nil pointers leave a field
// unchanged on update; Images, when non-empty, replace the stored images.
type ProductInput struct {
	Name         *string
	Description  *string
	ShippingCost *float64
	Brand        *string
	Category     *string
	SubCategory  *string
	Filters      *types.Filters
	Features     []string
	CountInStock *int
	Images       []media.File
}
