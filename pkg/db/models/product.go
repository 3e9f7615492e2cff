package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// Product is a catalog listing with its variant filters.
type Product struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string                `gorm:"column:name;not null" json:"name"`
	Description  string                `gorm:"column:description;not null" json:"description"`
	Category     enums.ProductCategory `gorm:"column:category;not null" json:"category"`
	SubCategory  string                `gorm:"column:sub_category;not null" json:"subCategory"`
	Brand        string                `gorm:"column:brand;not null" json:"brand"`
	ShippingCost float64               `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0" json:"shippingCost"`
	Filters      types.Filters         `gorm:"column:filters;type:jsonb;serializer:json;not null;default:'[]'" json:"filters"`
	Features     pq.StringArray        `gorm:"column:features;type:text[];not null;default:'{}'" json:"features"`
	Images       pq.StringArray        `gorm:"column:images;type:text[];not null;default:'{}'" json:"images"`
	CountInStock int                   `gorm:"column:count_in_stock;not null;default:0" json:"countInStock"`
	Rating       float64               `gorm:"column:rating;type:numeric(3,2);not null;default:0" json:"rating"`
	NumReviews   int                   `gorm:"column:num_reviews;not null;default:0" json:"numReviews"`
	CreatedBy    *uuid.UUID            `gorm:"column:created_by;type:uuid" json:"user,omitempty"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// PrimaryImage returns the first image URL or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
