package reviews

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Reviewer is the public slice of the author's account.
type Reviewer struct {
	ID        uuid.UUID `gorm:"column:id" json:"_id"`
	FirstName string    `gorm:"column:first_name" json:"firstName"`
	LastName  string    `gorm:"column:last_name" json:"lastName"`
}

// View is a review with its author populated.
type View struct {
	models.Review
	User *Reviewer `json:"user"`
}

// CreateInput carries a new review parsed from a multipart form.
type CreateInput struct {
	ProductID uuid.UUID
	Rating    float64
	Comment   string
	Images    []media.File
}

// UpdateInput leaves a field untouched when it is nil or empty.
type UpdateInput struct {
	Rating  *float64
	Comment string
	Images  []media.File
}
