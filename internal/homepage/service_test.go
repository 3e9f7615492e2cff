package homepage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type memoryStore struct {
	page  *models.Homepage
	saves int
}

func (m *memoryStore) WithTx(*gorm.DB) Store { return m }

func (m *memoryStore) Get(context.Context) (*models.Homepage, error) {
	if m.page == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.page
	return &cp, nil
}

func (m *memoryStore) Lock(ctx context.Context) (*models.Homepage, error) { return m.Get(ctx) }

func (m *memoryStore) Save(_ context.Context, page *models.Homepage) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	cp := *page
	m.page = &cp
	m.saves++
	return nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type catalog map[uuid.UUID]models.Product

func (c catalog) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c catalog) CountExisting(_ context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := c[id]; ok {
			n++
		}
	}
	return n, nil
}

type fakeUploader struct{ dataURIs int }

func (f *fakeUploader) UploadAll(_ context.Context, folder string, files []media.File) ([]string, error) {
	out := make([]string, len(files))
	for i, file := range files {
		out[i] = "https://cdn.test/" + folder + "/" + file.Filename
	}
	return out, nil
}

func (f *fakeUploader) UploadDataURI(_ context.Context, folder, _ string) (string, error) {
	f.dataURIs++
	return "https://cdn.test/" + folder + "/inline", nil
}

func newTestService(t *testing.T, store *memoryStore, products catalog) (Service, *fakeUploader) {
	t.Helper()
	up := &fakeUploader{}
	svc, err := NewService(ServiceParams{
		Repo:     store,
		Tx:       fakeTx{},
		Products: products,
		Images:   up,
		Now:      func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, up
}

func TestGetWithoutConfiguration(t *testing.T) {
	svc, _ := newTestService(t, &memoryStore{}, catalog{})
	_, err := svc.Get(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, "Homepage configuration not found", pkgerrors.As(err).Message())
}

func TestAddBannerCreatesHomepageAndUploadsDataURI(t *testing.T) {
	store := &memoryStore{}
	product := models.Product{ID: uuid.New(), Name: "Kettle"}
	svc, up := newTestService(t, store, catalog{product.ID: product})

	view, err := svc.AddBanner(context.Background(), BannerInput{
		Title:         "Summer",
		Image:         "data:image/png;base64,AAAA",
		SearchProduct: &product.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 1, up.dataURIs)
	require.Len(t, view.Banners, 1)
	require.Equal(t, "https://cdn.test/homepage_banners/inline", view.Banners[0].Image)
	require.Equal(t, "Kettle", view.Banners[0].SearchProduct.Name)
	require.NotNil(t, store.page)
}

func TestBannerValidation(t *testing.T) {
	svc, _ := newTestService(t, &memoryStore{}, catalog{})
	ctx := context.Background()

	_, err := svc.AddBanner(ctx, BannerInput{Image: "https://x"})
	require.Equal(t, "Banner title is required", pkgerrors.As(err).Message())

	_, err = svc.AddBanner(ctx, BannerInput{Title: "t"})
	require.Equal(t, "Banner image is required", pkgerrors.As(err).Message())

	_, err = svc.AddBanner(ctx, BannerInput{Title: strings.Repeat("a", 101), Image: "https://x"})
	require.Equal(t, "Banner title cannot exceed 100 characters", pkgerrors.As(err).Message())

	_, err = svc.AddBanner(ctx, BannerInput{Title: "t", Description: strings.Repeat("d", 201), Image: "https://x"})
	require.Equal(t, "Banner description cannot exceed 200 characters", pkgerrors.As(err).Message())

	missing := uuid.New()
	_, err = svc.AddBanner(ctx, BannerInput{Title: "t", Image: "https://x", SearchProduct: &missing})
	require.Equal(t, "One or more products do not exist", pkgerrors.As(err).Message())
}

func TestDeleteBannerKeepsAtLeastOne(t *testing.T) {
	store := &memoryStore{}
	svc, _ := newTestService(t, store, catalog{})
	ctx := context.Background()

	view, err := svc.AddBanner(ctx, BannerInput{Title: "one", Image: "https://x/1"})
	require.NoError(t, err)
	first := view.Banners[0].ID

	_, err = svc.DeleteBanner(ctx, first)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "At least one banner is required", pkgerrors.As(err).Message())

	_, err = svc.AddBanner(ctx, BannerInput{Title: "two", Image: "https://x/2"})
	require.NoError(t, err)

	res, err := svc.DeleteBanner(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "Banner deleted successfully", res.Message)
	require.Len(t, res.Homepage.Banners, 1)
	require.Equal(t, "two", res.Homepage.Banners[0].Title)

	_, err = svc.DeleteBanner(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateBannerKeepsImageWhenNoneGiven(t *testing.T) {
	store := &memoryStore{}
	svc, _ := newTestService(t, store, catalog{})
	ctx := context.Background()

	view, err := svc.AddBanner(ctx, BannerInput{Title: "one", Image: "https://x/1"})
	require.NoError(t, err)

	updated, err := svc.UpdateBanner(ctx, view.Banners[0].ID, BannerInput{Title: "renamed", Description: "new"})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Banners[0].Title)
	require.Equal(t, "https://x/1", updated.Banners[0].Image)

	_, err = svc.UpdateBanner(ctx, uuid.New(), BannerInput{Title: "x"})
	require.Equal(t, "Banner not found", pkgerrors.As(err).Message())
}

func TestChangeListDeduplicatesAdds(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Lamp"}
	store := &memoryStore{}
	svc, _ := newTestService(t, store, catalog{product.ID: product})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.ChangeList(ctx, ListFeatured, ListChangeRequest{ProductID: product.ID, Action: "add"})
		require.NoError(t, err)
	}
	require.Len(t, store.page.FeaturedProducts, 1)
	require.Empty(t, store.page.Offers)

	view, err := svc.ChangeList(ctx, ListOffers, ListChangeRequest{ProductID: product.ID, Action: "add"})
	require.NoError(t, err)
	require.Equal(t, "Lamp", view.Offers[0].Name)

	view, err = svc.ChangeList(ctx, ListFeatured, ListChangeRequest{ProductID: product.ID, Action: "remove"})
	require.NoError(t, err)
	require.Empty(t, view.FeaturedProducts)

	_, err = svc.ChangeList(ctx, ListFeatured, ListChangeRequest{ProductID: product.ID, Action: "toggle"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ChangeList(ctx, ListFeatured, ListChangeRequest{ProductID: uuid.New(), Action: "add"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReplaceValidatesReferencedProducts(t *testing.T) {
	product := models.Product{ID: uuid.New()}
	store := &memoryStore{}
	svc, _ := newTestService(t, store, catalog{product.ID: product})
	ctx := context.Background()

	_, err := svc.Replace(ctx, ReplaceInput{
		Banners:          []BannerInput{{Title: "a", Image: "https://x"}},
		FeaturedProducts: []uuid.UUID{uuid.New()},
		Offers:           []uuid.UUID{},
	})
	require.Equal(t, "One or more products do not exist", pkgerrors.As(err).Message())
	require.Zero(t, store.saves)

	view, err := svc.Replace(ctx, ReplaceInput{
		Banners:          []BannerInput{{Title: "a", Image: "https://x"}},
		FeaturedProducts: []uuid.UUID{product.ID, product.ID},
		Offers:           []uuid.UUID{product.ID},
	})
	require.NoError(t, err)
	require.Len(t, view.FeaturedProducts, 1)
	require.Len(t, view.Offers, 1)
	require.Len(t, view.Banners, 1)
}

func TestReplaceRequiresABanner(t *testing.T) {
	store := &memoryStore{}
	svc, _ := newTestService(t, store, catalog{})

	_, err := svc.Replace(context.Background(), ReplaceInput{
		Banners:          []BannerInput{},
		FeaturedProducts: []uuid.UUID{},
		Offers:           []uuid.UUID{},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "At least one banner is required", pkgerrors.As(err).Message())
	require.Zero(t, store.saves)
}
