package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
)

const (
	msgReviewNotFound  = "Review not found"
	msgProductNotFound = "Product not found"
	msgEditForbidden   = "Not authorized to edit this review"
	msgDeleteForbidden = "Not authorized to delete this review"
	msgInvalidRating   = "Rating must be between 1 and 5"
	msgMissingFields   = "productId, rating and comment are required"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// RatingWriter stores recomputed product aggregates.
type RatingWriter interface {
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, numReviews int) error
}

type imageManager interface {
	UploadAll(ctx context.Context, folder string, files []media.File) ([]string, error)
	DestroyAll(ctx context.Context, urls []string) error
}

// Service manages product reviews and keeps product rating aggregates current.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*View, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]View, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, input UpdateInput) (*View, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
}

type ServiceParams struct {
	Repo     Store
	Tx       txRunner
	Products productLoader
	// Ratings binds the product rating writer to the review transaction.
	Ratings func(tx *gorm.DB) RatingWriter
	Images  imageManager
	Logger  *logger.Logger
}

type service struct {
	repo     Store
	tx       txRunner
	products productLoader
	ratings  func(tx *gorm.DB) RatingWriter
	images   imageManager
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("rating writer is required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		ratings:  params.Ratings,
		images:   params.Images,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*View, error) {
	if input.ProductID == uuid.Nil || strings.TrimSpace(input.Comment) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMissingFields)
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		return nil, notFoundOr(err, msgProductNotFound, "load product")
	}

	urls, err := s.images.UploadAll(ctx, cloudinary.FolderReviews, input.Images)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		Images:    urls,
	}
	if review.Images == nil {
		review.Images = []string{}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}
		return s.recompute(ctx, tx, review.ProductID)
	})
	if err != nil {
		_ = s.images.DestroyAll(context.WithoutCancel(ctx), urls)
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"review_id":  review.ID.String(),
		"product_id": review.ProductID.String(),
	}), "review created")
	return s.view(ctx, *review)
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]View, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	reviewers, err := s.repo.Reviewers(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reviewers")
	}

	out := make([]View, 0, len(rows))
	for _, r := range rows {
		v := View{Review: r}
		if who, ok := reviewers[r.UserID]; ok {
			v.User = &who
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies the changes of the review's author. New images replace the
// stored set; the replaced ones are destroyed after commit.
func (s *service) Update(ctx context.Context, userID, reviewID uuid.UUID, input UpdateInput) (*View, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, notFoundOr(err, msgReviewNotFound, "load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgEditForbidden)
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if c := strings.TrimSpace(input.Comment); c != "" {
		review.Comment = c
	}

	var replaced, uploaded []string
	if len(input.Images) > 0 {
		uploaded, err = s.images.UploadAll(ctx, cloudinary.FolderReviews, input.Images)
		if err != nil {
			return nil, err
		}
		replaced = review.Images
		review.Images = uploaded
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review")
		}
		return s.recompute(ctx, tx, review.ProductID)
	})
	if err != nil {
		_ = s.images.DestroyAll(context.WithoutCancel(ctx), uploaded)
		return nil, err
	}
	_ = s.images.DestroyAll(ctx, replaced)
	return s.view(ctx, *review)
}

func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return notFoundOr(err, msgReviewNotFound, "load review")
	}
	if review.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgDeleteForbidden)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, review.ID); err != nil {
			return notFoundOr(err, msgReviewNotFound, "delete review")
		}
		return s.recompute(ctx, tx, review.ProductID)
	})
	if err != nil {
		return err
	}
	_ = s.images.DestroyAll(ctx, review.Images)
	return nil
}

// recompute derives rating and numReviews from the full review set.
func (s *service) recompute(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	agg, err := s.repo.WithTx(tx).Aggregate(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate reviews")
	}
	if err := s.ratings(tx).UpdateRating(ctx, productID, agg.Rating, agg.NumReviews); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
	}
	return nil
}

func (s *service) view(ctx context.Context, review models.Review) (*View, error) {
	reviewers, err := s.repo.Reviewers(ctx, []uuid.UUID{review.UserID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reviewer")
	}
	v := &View{Review: review}
	if who, ok := reviewers[review.UserID]; ok {
		v.User = &who
	}
	return v, nil
}

func validateRating(r float64) error {
	if r < MinRating || r > MaxRating {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidRating)
	}
	return nil
}

func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
