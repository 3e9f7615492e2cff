package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/shopfront-backend/pkg/db/types"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// Homepage is the singleton merchandising configuration.
type Homepage struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Banners          []types.Banner    `gorm:"column:banners;type:jsonb;serializer:json;not null;default:'[]'" json:"banners"`
	FeaturedProducts dbtypes.UUIDArray `gorm:"column:featured_products;type:uuid[];not null;default:'{}'" json:"featuredProducts"`
	Offers           dbtypes.UUIDArray `gorm:"column:offers;type:uuid[];not null;default:'{}'" json:"offers"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
