package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review is a user's rating of a product.
type Review struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index" json:"product"`
	Rating    float64        `gorm:"column:rating;type:numeric(2,1);not null" json:"rating"`
	Comment   string         `gorm:"column:comment;not null" json:"comment"`
	Images    pq.StringArray `gorm:"column:images;type:text[];not null;default:'{}'" json:"images"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
