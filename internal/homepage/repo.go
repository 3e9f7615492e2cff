package homepage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Store persists the singleton homepage row.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Get(ctx context.Context) (*models.Homepage, error)
	Lock(ctx context.Context) (*models.Homepage, error)
	Save(ctx context.Context, page *models.Homepage) error
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Get returns the oldest homepage row; there is normally only one.
func (r *Repository) Get(ctx context.Context) (*models.Homepage, error) {
	var page models.Homepage
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// Lock is Get with a row lock held until the surrounding transaction ends.
func (r *Repository) Lock(ctx context.Context) (*models.Homepage, error) {
	var page models.Homepage
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("created_at ASC").
		First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Save inserts the row when it has no id yet, otherwise overwrites it.
func (r *Repository) Save(ctx context.Context, page *models.Homepage) error {
	return r.db.WithContext(ctx).Save(page).Error
}
