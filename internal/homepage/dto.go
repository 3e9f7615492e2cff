package homepage

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// BannerInput is one banner as submitted by an admin. Image may be a URL or a
// base64 data URI; File, when present, wins over Image.
type BannerInput struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Image         string      `json:"image"`
	SearchProduct *uuid.UUID  `json:"searchProduct"`
	File          *media.File `json:"-"`
}

// ReplaceInput is the full homepage document.
type ReplaceInput struct {
	Banners          []BannerInput `json:"banners" validate:"required"`
	FeaturedProducts []uuid.UUID   `json:"featuredProducts" validate:"required"`
	Offers           []uuid.UUID   `json:"offers" validate:"required"`
}

// ListChangeRequest adds or removes a product from a curated list.
type ListChangeRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Action    string    `json:"action" validate:"required"`
}

// BannerView is a banner with its linked product populated.
type BannerView struct {
	types.Banner
	SearchProduct *models.Product `json:"searchProduct"`
}

// View is the homepage as served to clients.
type View struct {
	ID               uuid.UUID        `json:"id"`
	Banners          []BannerView     `json:"banners"`
	FeaturedProducts []models.Product `json:"featuredProducts"`
	Offers           []models.Product `json:"offers"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// DeleteBannerResult is returned after a banner is removed.
type DeleteBannerResult struct {
	Message  string `json:"message"`
	Homepage *View  `json:"homepage"`
}
