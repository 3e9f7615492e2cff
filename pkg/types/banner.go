package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	BannerTitleMaxLen       = 100
	BannerDescriptionMaxLen = 200
)

// Banner is one homepage hero slide.
type Banner struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Image         string     `json:"image"`
	SearchProduct *uuid.UUID `json:"searchProduct"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
