package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/internal/pricing"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

const (
	searchLimit = 5

	msgProductNotFound  = "Product not found"
	msgNoFilterMatches  = "No products found for the given filters"
	msgNoSearchMatches  = "No matching products found"
	msgSearchRequired   = "Search query is required"
	msgMissingFields    = "Missing required fields"
	msgInvalidCategory  = "Invalid category"
	msgNegativeStock    = "countInStock cannot be negative"
	msgNegativeShipping = "shippingCost cannot be negative"
)

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, q ListQuery) ([]models.Product, error)
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
	CatalogRows(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type imageManager interface {
	UploadAll(ctx context.Context, folder string, files []media.File) ([]string, error)
	DestroyAll(ctx context.Context, urls []string) error
}

// Service exposes catalog browsing and admin product management.
type Service interface {
	List(ctx context.Context, q ListQuery, selection types.Selection) ([]Listing, error)
	Filter(ctx context.Context, q ListQuery, selection types.Selection) ([]Listing, error)
	Get(ctx context.Context, id uuid.UUID) (*Listing, error)
	Catalog(ctx context.Context) (*Catalog, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
	PriceDetails(ctx context.Context, id uuid.UUID, selection types.Selection) (*PriceDetails, error)
	Create(ctx context.Context, actorID uuid.UUID, input ProductInput) (*Listing, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type ServiceParams struct {
	Repo   productRepository
	Images imageManager
	Logger *logger.Logger
}

type service struct {
	repo   productRepository
	images imageManager
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, images: params.Images, logg: logg}, nil
}

// List returns every product matching q, priced for selection.
func (s *service) List(ctx context.Context, q ListQuery, selection types.Selection) ([]Listing, error) {
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]Listing, 0, len(rows))
	for _, p := range rows {
		out = append(out, newListing(p, selection))
	}
	return out, nil
}

// Filter is List with an empty result reported as not found.
func (s *service) Filter(ctx context.Context, q ListQuery, selection types.Selection) ([]Listing, error) {
	out, err := s.List(ctx, q, selection)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoFilterMatches)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Listing, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	listing := newListing(*p, nil)
	return &listing, nil
}

func (s *service) Catalog(ctx context.Context) (*Catalog, error) {
	rows, err := s.repo.CatalogRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	catalog := BuildFilterCatalog(rows)
	return &catalog, nil
}

func (s *service) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgSearchRequired)
	}
	rows, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	if len(rows) == 0 {
		return &SearchResult{Message: msgNoSearchMatches}, nil
	}
	suggestions := make([]Suggestion, 0, len(rows))
	for _, p := range rows {
		suggestions = append(suggestions, Suggestion{
			ID:       p.ID,
			Name:     p.Name,
			Category: string(p.Category),
			Display:  fmt.Sprintf("%s (%s)", p.Name, p.Category),
		})
	}
	return &SearchResult{Suggestions: suggestions}, nil
}

// PriceDetails resolves selection against the product and adds shipping.
func (s *service) PriceDetails(ctx context.Context, id uuid.UUID, selection types.Selection) (*PriceDetails, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := pricing.Resolve(p.Filters, selection)
	return &PriceDetails{
		ProductID:      p.ID,
		ProductName:    p.Name,
		PriceBreakdown: res.Breakdown,
		EffectivePrice: res.EffectivePrice,
		NormalPrice:    res.NormalPrice,
		ShippingCost:   p.ShippingCost,
		TotalCost:      pricing.WithShipping(res.EffectivePrice, p.ShippingCost),
	}, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input ProductInput) (*Listing, error) {
	if isBlank(input.Name) || isBlank(input.Description) || isBlank(input.Category) || isBlank(input.SubCategory) || input.ShippingCost == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMissingFields)
	}

	p := models.Product{
		Filters:  types.Filters{},
		Features: []string{},
		Images:   []string{},
	}
	if actorID != uuid.Nil {
		p.CreatedBy = &actorID
	}
	if err := applyInput(&p, input); err != nil {
		return nil, err
	}

	urls, err := s.images.UploadAll(ctx, cloudinary.FolderProducts, input.Images)
	if err != nil {
		return nil, err
	}
	if len(urls) > 0 {
		p.Images = urls
	}

	if err := s.repo.Create(ctx, &p); err != nil {
		_ = s.images.DestroyAll(context.WithoutCancel(ctx), urls)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	listing := newListing(p, nil)
	return &listing, nil
}

// Update applies the provided fields. New images replace the old set, which is
// then destroyed best effort.
func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Listing, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(p, input); err != nil {
		return nil, err
	}

	var replaced []string
	if len(input.Images) > 0 {
		urls, err := s.images.UploadAll(ctx, cloudinary.FolderProducts, input.Images)
		if err != nil {
			return nil, err
		}
		replaced = p.Images
		p.Images = urls
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if len(input.Images) > 0 {
			_ = s.images.DestroyAll(context.WithoutCancel(ctx), p.Images)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if len(replaced) > 0 {
		_ = s.images.DestroyAll(ctx, replaced)
	}
	listing := newListing(*p, nil)
	return &listing, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	_ = s.images.DestroyAll(ctx, p.Images)
	return nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return count, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

func applyInput(p *models.Product, input ProductInput) error {
	if !isBlank(input.Name) {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if !isBlank(input.Description) {
		p.Description = strings.TrimSpace(*input.Description)
	}
	if !isBlank(input.Category) {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*input.Category))
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCategory).WithDetails(map[string]any{"category": *input.Category})
		}
		p.Category = category
	}
	if !isBlank(input.SubCategory) {
		p.SubCategory = strings.TrimSpace(*input.SubCategory)
	}
	if input.Brand != nil {
		p.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.ShippingCost != nil {
		if *input.ShippingCost < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgNegativeShipping)
		}
		p.ShippingCost = *input.ShippingCost
	}
	if input.CountInStock != nil {
		if *input.CountInStock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgNegativeStock)
		}
		p.CountInStock = *input.CountInStock
	}
	if input.Filters != nil {
		if err := input.Filters.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid filters").WithDetails(map[string]any{"reason": err.Error()})
		}
		p.Filters = *input.Filters
	}
	if input.Features != nil {
		p.Features = input.Features
	}
	return nil
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}
