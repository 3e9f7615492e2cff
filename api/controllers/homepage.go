package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	homepagesvc "github.com/angelmondragon/shopfront-backend/internal/homepage"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

func HomepageGet(svc homepagesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// HomepageReplace overwrites banners and both product lists in one call.
func HomepageReplace(svc homepagesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input homepagesvc.ReplaceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Replace(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func HomepageAddBanner(svc homepagesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := bannerInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.AddBanner(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func HomepageUpdateBanner(svc homepagesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bannerID, err := pathUUID(r, "bannerId", "banner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := bannerInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateBanner(r.Context(), bannerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func HomepageDeleteBanner(svc homepagesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bannerID, err := pathUUID(r, "bannerId", "banner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.DeleteBanner(r.Context(), bannerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// HomepageChangeList adds or removes a product on the featured or offers list.
func HomepageChangeList(svc homepagesvc.Service, list homepagesvc.List, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req homepagesvc.ListChangeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.ChangeList(r.Context(), list, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// bannerInput reads a banner from a multipart form with an optional image
// file, or from a JSON body whose image is a URL or data URI.
func bannerInput(r *http.Request) (homepagesvc.BannerInput, error) {
	var input homepagesvc.BannerInput
	if !validators.IsMultipart(r) {
		err := validators.DecodeJSONBody(r, &input)
		return input, err
	}
	if err := validators.ParseMultipart(r, validators.DefaultMaxUploadBytes); err != nil {
		return input, err
	}
	input.Title = r.FormValue("title")
	input.Description = r.FormValue("description")
	input.Image = r.FormValue("image")
	if raw := strings.TrimSpace(r.FormValue("searchProduct")); raw != "" {
		id, err := validators.ParseUUID(raw, "product")
		if err != nil {
			return input, err
		}
		input.SearchProduct = &id
	}
	files, err := formImages(r, "image")
	if err != nil {
		return input, err
	}
	if len(files) > 0 {
		input.File = &files[0]
	}
	return input, nil
}
