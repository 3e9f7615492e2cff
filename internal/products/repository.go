package products

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// filterMatchClause matches products carrying a filter named ? whose values intersect ?.
const filterMatchClause = `EXISTS (
  SELECT 1 FROM jsonb_array_elements(products.filters) AS f
  WHERE f->>'name' = ?
    AND EXISTS (SELECT 1 FROM jsonb_array_elements_text(f->'values') AS v WHERE v = ANY(?))
)`

// Repository encapsulates product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products found among ids, in no particular order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// List applies the browse filters. Text filters are case-insensitive substring matches.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if v := strings.TrimSpace(q.Category); v != "" {
		query = query.Where("category ILIKE ?", containsPattern(v))
	}
	if v := strings.TrimSpace(q.SubCategory); v != "" {
		query = query.Where("sub_category ILIKE ?", containsPattern(v))
	}
	if v := strings.TrimSpace(q.Brand); v != "" {
		query = query.Where("brand ILIKE ?", containsPattern(v))
	}
	if v := strings.TrimSpace(q.Search); v != "" {
		pattern := containsPattern(v)
		query = query.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := q.Filters[name]
		if len(values) == 0 {
			continue
		}
		query = query.Where(filterMatchClause, name, pq.Array(values))
	}

	var rows []models.Product
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// Search matches query against the text columns and returns at most limit rows.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := containsPattern(query)
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "name", "category", "brand", "sub_category").
		Where("name ILIKE ? OR description ILIKE ? OR brand ILIKE ? OR category ILIKE ? OR sub_category ILIKE ?",
			pattern, pattern, pattern, pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CatalogRows loads the columns needed to build the filter catalog.
func (r *Repository) CatalogRows(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "category", "sub_category", "brand", "filters").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves every column of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes the product and returns gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// CountExisting returns how many of ids exist.
func (r *Repository) CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// DecrementStock takes qty units if at least qty remain. It reports false when stock was short.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND count_in_stock >= ?", id, qty).
		UpdateColumn("count_in_stock", gorm.Expr("count_in_stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to stock.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("count_in_stock", gorm.Expr("count_in_stock + ?", qty)).Error
}

// UpdateRating stores recomputed review aggregates.
func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, numReviews int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"rating": rating, "num_reviews": numReviews}).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
