package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/pricing"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

const (
	msgCartNotFound    = "Cart not found"
	msgProductNotFound = "Product not found"
	msgOutOfStock      = "Product out of stock"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for the owning user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int, selection types.Selection) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, key LineKey) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type ServiceParams struct {
	Repo     CartRepository
	Tx       txRunner
	Products productLoader
	Logger   *logger.Logger
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		logg:     logg,
	}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddItem prices the selection and folds it into the cart. A line with the same
// product and an equal selection has its quantity increased.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int, selection types.Selection) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.CountInStock < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgOutOfStock).
			WithDetails(map[string]any{"productId": product.ID, "available": product.CountInStock})
	}

	wanted := LineKey{ProductID: product.ID, Filters: selection}.normalized()
	if err := pricing.ValidateSelection(product.Filters, wanted.Filters); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	price, discountPrice := pricing.Resolve(product.Filters, wanted.Filters).LinePrices()

	var out *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		if line := findLine(cart.Items, wanted); line != nil {
			if err := repo.UpdateItemQuantity(ctx, line.ID, line.Quantity+quantity); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				CartID:        cart.ID,
				ProductID:     product.ID,
				Quantity:      quantity,
				Filters:       wanted.Filters,
				Price:         price,
				DiscountPrice: discountPrice,
				Position:      nextPosition(cart.Items),
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return err
			}
		}

		out, err = repo.FindByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return out, nil
}

// RemoveItem drops the matching line. A missing line is not an error; a missing cart is.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, key LineKey) (*models.Cart, error) {
	cart, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := findLine(cart.Items, key.normalized())
	if line == nil {
		return cart, nil
	}
	if err := s.repo.DeleteItem(ctx, line.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.reload(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) find(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgCartNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (k LineKey) normalized() LineKey {
	return LineKey{ProductID: k.ProductID, Filters: k.Filters.Clone()}
}

func findLine(items []models.CartItem, key LineKey) *models.CartItem {
	for i := range items {
		if items[i].ProductID == key.ProductID && items[i].Filters.Equal(key.Filters) {
			return &items[i]
		}
	}
	return nil
}

func nextPosition(items []models.CartItem) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}
