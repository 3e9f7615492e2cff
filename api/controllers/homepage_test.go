package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	homepagesvc "github.com/angelmondragon/shopfront-backend/internal/homepage"
)

type stubHomepage struct {
	banner homepagesvc.BannerInput
	list   homepagesvc.List
	change homepagesvc.ListChangeRequest
}

func (s *stubHomepage) Get(ctx context.Context) (*homepagesvc.View, error) {
	return &homepagesvc.View{}, nil
}

func (s *stubHomepage) Replace(ctx context.Context, input homepagesvc.ReplaceInput) (*homepagesvc.View, error) {
	return &homepagesvc.View{}, nil
}

func (s *stubHomepage) AddBanner(ctx context.Context, input homepagesvc.BannerInput) (*homepagesvc.View, error) {
	s.banner = input
	return &homepagesvc.View{}, nil
}

func (s *stubHomepage) UpdateBanner(ctx context.Context, bannerID uuid.UUID, input homepagesvc.BannerInput) (*homepagesvc.View, error) {
	s.banner = input
	return &homepagesvc.View{}, nil
}

func (s *stubHomepage) DeleteBanner(ctx context.Context, bannerID uuid.UUID) (*homepagesvc.DeleteBannerResult, error) {
	return &homepagesvc.DeleteBannerResult{Message: "Banner deleted successfully"}, nil
}

func (s *stubHomepage) ChangeList(ctx context.Context, list homepagesvc.List, req homepagesvc.ListChangeRequest) (*homepagesvc.View, error) {
	s.list, s.change = list, req
	return &homepagesvc.View{}, nil
}

func TestHomepageAddBannerMultipartFile(t *testing.T) {
	svc := &stubHomepage{}
	productID := uuid.New()
	req := multipartRequest(t, http.MethodPost, "/api/homepage/banners", map[string]string{
		"title":         "Summer sale",
		"searchProduct": productID.String(),
	}, formFile{field: "image", filename: "hero.webp", data: []byte("webp")})
	resp := httptest.NewRecorder()
	HomepageAddBanner(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.banner.Title != "Summer sale" || svc.banner.File == nil || svc.banner.File.Filename != "hero.webp" {
		t.Fatalf("unexpected banner %+v", svc.banner)
	}
	if svc.banner.SearchProduct == nil || *svc.banner.SearchProduct != productID {
		t.Fatalf("unexpected search product %v", svc.banner.SearchProduct)
	}
}

func TestHomepageAddBannerJSON(t *testing.T) {
	svc := &stubHomepage{}
	req := jsonRequest(t, http.MethodPost, "/api/homepage/banners", map[string]string{
		"title": "Winter",
		"image": "https://cdn.example.com/winter.png",
	})
	resp := httptest.NewRecorder()
	HomepageAddBanner(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.banner.Image != "https://cdn.example.com/winter.png" || svc.banner.File != nil {
		t.Fatalf("unexpected banner %+v", svc.banner)
	}
}

func TestHomepageChangeListTargetsOffers(t *testing.T) {
	svc := &stubHomepage{}
	productID := uuid.New()
	req := jsonRequest(t, http.MethodPost, "/api/homepage/offers", map[string]string{
		"productId": productID.String(),
		"action":    "add",
	})
	resp := httptest.NewRecorder()
	HomepageChangeList(svc, homepagesvc.ListOffers, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.list != homepagesvc.ListOffers || svc.change.ProductID != productID || svc.change.Action != "add" {
		t.Fatalf("unexpected change %v %+v", svc.list, svc.change)
	}
}
