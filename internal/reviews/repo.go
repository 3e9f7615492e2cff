package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Store is the persistence surface the review service depends on.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Save(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	Aggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error)
	Reviewers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Reviewer, error)
}

// Aggregate is the rating summary of a product's review set.
type Aggregate struct {
	Rating     float64 `gorm:"column:rating"`
	NumReviews int     `gorm:"column:num_reviews"`
}

// Repository persists reviews in postgres.
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

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Save(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Model(review).
		Select("rating", "comment", "images", "updated_at").
		Updates(review).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByProduct returns the product's reviews, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Aggregate computes mean rating and count over the whole review set.
func (r *Repository) Aggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	var agg Aggregate
	err := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(AVG(rating), 0) AS rating, COUNT(*) AS num_reviews FROM reviews WHERE product_id = ?`, productID).
		Scan(&agg).Error
	return agg, err
}

func (r *Repository) Reviewers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Reviewer, error) {
	out := make(map[uuid.UUID]Reviewer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Reviewer
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, first_name, last_name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
