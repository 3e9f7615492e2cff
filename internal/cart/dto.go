package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// AddItemRequest is the body of an add-to-cart call.
type AddItemRequest struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Filters   types.Selection `json:"filters"`
}

// RemoveItemRequest identifies the line to drop by product and selection.
type RemoveItemRequest struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Filters   types.Selection `json:"filters"`
}

// LineKey is the identity of a cart line.
type LineKey struct {
	ProductID uuid.UUID
	Filters   types.Selection
}
