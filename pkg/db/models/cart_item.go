package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// CartItem is one cart line. Identity within a cart is (ProductID, Filters).
type CartItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index" json:"-"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity      int             `gorm:"column:quantity;not null" json:"quantity"`
	Filters       types.Selection `gorm:"column:filters;type:jsonb;not null;default:'{}'" json:"filters"`
	Price         float64         `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	DiscountPrice float64         `gorm:"column:discount_price;type:numeric(12,2);not null;default:0" json:"discountPrice"`
	Position      int             `gorm:"column:position;not null;default:0" json:"-"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
