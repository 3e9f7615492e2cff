package homepage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/shopfront-backend/pkg/db/types"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

const (
	dataURIPrefix = "data:image/"

	msgNotConfigured      = "Homepage configuration not found"
	msgBannerNotFound     = "Banner not found"
	msgLastBanner         = "At least one banner is required"
	msgTitleRequired      = "Banner title is required"
	msgImageRequired      = "Banner image is required"
	msgTitleTooLong       = "Banner title cannot exceed 100 characters"
	msgDescriptionTooLong = "Banner description cannot exceed 200 characters"
	msgUnknownProducts    = "One or more products do not exist"
	msgProductNotFound    = "Product not found"
	msgInvalidAction      = `Invalid action. Use "add" or "remove"`
	msgBannerDeleted      = "Banner deleted successfully"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type imageUploader interface {
	UploadAll(ctx context.Context, folder string, files []media.File) ([]string, error)
	UploadDataURI(ctx context.Context, folder, dataURI string) (string, error)
}

// List selects which curated product list a change applies to.
type List int

const (
	ListFeatured List = iota
	ListOffers
)

// Service manages the homepage merchandising document.
type Service interface {
	Get(ctx context.Context) (*View, error)
	Replace(ctx context.Context, input ReplaceInput) (*View, error)
	AddBanner(ctx context.Context, input BannerInput) (*View, error)
	UpdateBanner(ctx context.Context, bannerID uuid.UUID, input BannerInput) (*View, error)
	DeleteBanner(ctx context.Context, bannerID uuid.UUID) (*DeleteBannerResult, error)
	ChangeList(ctx context.Context, list List, req ListChangeRequest) (*View, error)
}

type ServiceParams struct {
	Repo     Store
	Tx       txRunner
	Products productLookup
	Images   imageUploader
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Store
	tx       txRunner
	products productLookup
	images   imageUploader
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("homepage repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image uploader is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		images:   params.Images,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Get(ctx context.Context) (*View, error) {
	page, err := s.repo.Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, msgNotConfigured, "load homepage")
	}
	return s.view(ctx, page)
}

// Replace overwrites every banner and both product lists.
func (s *service) Replace(ctx context.Context, input ReplaceInput) (*View, error) {
	if input.Banners == nil || input.FeaturedProducts == nil || input.Offers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid input data")
	}
	if len(input.Banners) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgLastBanner)
	}
	for _, b := range input.Banners {
		if strings.TrimSpace(b.Title) == "" || (strings.TrimSpace(b.Image) == "" && b.File == nil) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Banner title and image are required")
		}
		if err := validateBannerText(b); err != nil {
			return nil, err
		}
	}

	referenced := append(dbtypes.UUIDArray{}, input.FeaturedProducts...)
	referenced = append(referenced, input.Offers...)
	for _, b := range input.Banners {
		if b.SearchProduct != nil {
			referenced = append(referenced, *b.SearchProduct)
		}
	}
	if err := s.ensureProducts(ctx, referenced.Dedup()); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	banners := make([]types.Banner, 0, len(input.Banners))
	for _, b := range input.Banners {
		image, err := s.resolveImage(ctx, b)
		if err != nil {
			return nil, err
		}
		banners = append(banners, newBanner(b, image, now))
	}

	var saved *models.Homepage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		page, err := s.lockOrNew(ctx, tx)
		if err != nil {
			return err
		}
		page.Banners = banners
		page.FeaturedProducts = dbtypes.UUIDArray(input.FeaturedProducts).Dedup()
		page.Offers = dbtypes.UUIDArray(input.Offers).Dedup()
		saved = page
		return s.save(ctx, tx, page)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "banners", len(banners)), "homepage replaced")
	return s.view(ctx, saved)
}

// AddBanner appends a banner, creating the homepage on first use.
func (s *service) AddBanner(ctx context.Context, input BannerInput) (*View, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgTitleRequired)
	}
	if err := validateBannerText(input); err != nil {
		return nil, err
	}
	if err := s.ensureSearchProduct(ctx, input.SearchProduct); err != nil {
		return nil, err
	}
	image, err := s.resolveImage(ctx, input)
	if err != nil {
		return nil, err
	}
	if image == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgImageRequired)
	}

	var saved *models.Homepage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		page, err := s.lockOrNew(ctx, tx)
		if err != nil {
			return err
		}
		page.Banners = append(page.Banners, newBanner(input, image, s.now().UTC()))
		saved = page
		return s.save(ctx, tx, page)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, saved)
}

func (s *service) UpdateBanner(ctx context.Context, bannerID uuid.UUID, input BannerInput) (*View, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgTitleRequired)
	}
	if err := validateBannerText(input); err != nil {
		return nil, err
	}
	if err := s.ensureSearchProduct(ctx, input.SearchProduct); err != nil {
		return nil, err
	}
	image, err := s.resolveImage(ctx, input)
	if err != nil {
		return nil, err
	}

	var saved *models.Homepage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		page, err := s.repo.WithTx(tx).Lock(ctx)
		if err != nil {
			return notFoundOr(err, msgNotConfigured, "lock homepage")
		}
		idx := bannerIndex(page.Banners, bannerID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgBannerNotFound)
		}
		b := &page.Banners[idx]
		b.Title = strings.TrimSpace(input.Title)
		b.Description = input.Description
		b.SearchProduct = input.SearchProduct
		if image != "" {
			b.Image = image
		}
		b.UpdatedAt = s.now().UTC()
		saved = page
		return s.save(ctx, tx, page)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, saved)
}

func (s *service) DeleteBanner(ctx context.Context, bannerID uuid.UUID) (*DeleteBannerResult, error) {
	var saved *models.Homepage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		page, err := s.repo.WithTx(tx).Lock(ctx)
		if err != nil {
			return notFoundOr(err, msgNotConfigured, "lock homepage")
		}
		idx := bannerIndex(page.Banners, bannerID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgBannerNotFound)
		}
		if len(page.Banners) <= 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgLastBanner)
		}
		page.Banners = append(page.Banners[:idx:idx], page.Banners[idx+1:]...)
		saved = page
		return s.save(ctx, tx, page)
	})
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, saved)
	if err != nil {
		return nil, err
	}
	return &DeleteBannerResult{Message: msgBannerDeleted, Homepage: view}, nil
}

// ChangeList adds or removes one product from the featured or offers list.
// Adding a product that is already listed leaves the list unchanged.
func (s *service) ChangeList(ctx context.Context, list List, req ListChangeRequest) (*View, error) {
	action, err := enums.ParseListAction(req.Action)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidAction)
	}
	if req.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid product ID")
	}
	n, err := s.products.CountExisting(ctx, []uuid.UUID{req.ProductID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}

	var saved *models.Homepage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		page, err := s.lockOrNew(ctx, tx)
		if err != nil {
			return err
		}
		target := &page.FeaturedProducts
		if list == ListOffers {
			target = &page.Offers
		}
		switch action {
		case enums.ListActionAdd:
			*target = target.Append(req.ProductID)
		case enums.ListActionRemove:
			*target = target.Without(req.ProductID)
		}
		saved = page
		return s.save(ctx, tx, page)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, saved)
}

func (s *service) lockOrNew(ctx context.Context, tx *gorm.DB) (*models.Homepage, error) {
	page, err := s.repo.WithTx(tx).Lock(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Homepage{
			Banners:          []types.Banner{},
			FeaturedProducts: dbtypes.UUIDArray{},
			Offers:           dbtypes.UUIDArray{},
		}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock homepage")
	}
	return page, nil
}

func (s *service) save(ctx context.Context, tx *gorm.DB, page *models.Homepage) error {
	if err := s.repo.WithTx(tx).Save(ctx, page); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save homepage")
	}
	return nil
}

// resolveImage uploads a file or data URI and returns the hosted URL. Plain
// URLs pass through unchanged.
func (s *service) resolveImage(ctx context.Context, b BannerInput) (string, error) {
	if b.File != nil {
		urls, err := s.images.UploadAll(ctx, cloudinary.FolderBanners, []media.File{*b.File})
		if err != nil {
			return "", err
		}
		return urls[0], nil
	}
	image := strings.TrimSpace(b.Image)
	if strings.HasPrefix(image, dataURIPrefix) {
		return s.images.UploadDataURI(ctx, cloudinary.FolderBanners, image)
	}
	return image, nil
}

func (s *service) ensureSearchProduct(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	return s.ensureProducts(ctx, []uuid.UUID{*id})
}

func (s *service) ensureProducts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.products.CountExisting(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check products")
	}
	if n != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgUnknownProducts)
	}
	return nil
}

// view populates banner search products and both curated lists, keeping the
// stored order and skipping products that no longer exist.
func (s *service) view(ctx context.Context, page *models.Homepage) (*View, error) {
	ids := append(dbtypes.UUIDArray{}, page.FeaturedProducts...)
	ids = append(ids, page.Offers...)
	for _, b := range page.Banners {
		if b.SearchProduct != nil {
			ids = append(ids, *b.SearchProduct)
		}
	}
	ids = ids.Dedup()

	byID := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) > 0 {
		rows, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load homepage products")
		}
		for _, p := range rows {
			byID[p.ID] = p
		}
	}

	v := &View{
		ID:               page.ID,
		Banners:          make([]BannerView, 0, len(page.Banners)),
		FeaturedProducts: pick(byID, page.FeaturedProducts),
		Offers:           pick(byID, page.Offers),
		UpdatedAt:        page.UpdatedAt,
	}
	for _, b := range page.Banners {
		bv := BannerView{Banner: b}
		if b.SearchProduct != nil {
			if p, ok := byID[*b.SearchProduct]; ok {
				bv.SearchProduct = &p
			}
		}
		v.Banners = append(v.Banners, bv)
	}
	return v, nil
}

func pick(byID map[uuid.UUID]models.Product, ids dbtypes.UUIDArray) []models.Product {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func newBanner(in BannerInput, image string, now time.Time) types.Banner {
	return types.Banner{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Image:         image,
		SearchProduct: in.SearchProduct,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func bannerIndex(banners []types.Banner, id uuid.UUID) int {
	for i, b := range banners {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func validateBannerText(b BannerInput) error {
	if utf8.RuneCountInString(strings.TrimSpace(b.Title)) > types.BannerTitleMaxLen {
		return pkgerrors.New(pkgerrors.CodeValidation, msgTitleTooLong)
	}
	if utf8.RuneCountInString(b.Description) > types.BannerDescriptionMaxLen {
		return pkgerrors.New(pkgerrors.CodeValidation, msgDescriptionTooLong)
	}
	return nil
}

func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
