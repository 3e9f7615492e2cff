package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	reviewsvc "github.com/angelmondragon/shopfront-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

const msgReviewFieldsRequired = "productId, rating and comment are required"

// ReviewCreate accepts a multipart form: productId, rating, comment and images.
func ReviewCreate(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := parseForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rawProduct := strings.TrimSpace(r.FormValue("productId"))
		rawRating := strings.TrimSpace(r.FormValue("rating"))
		comment := strings.TrimSpace(r.FormValue("comment"))
		if rawProduct == "" || rawRating == "" || comment == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, msgReviewFieldsRequired))
			return
		}
		productID, err := validators.ParseUUID(rawProduct, "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rating, err := parseRating(rawRating)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		images, err := formImages(r, "images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Create(r.Context(), userID, reviewsvc.CreateInput{
			ProductID: productID,
			Rating:    rating,
			Comment:   comment,
			Images:    images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func ReviewListForProduct(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ReviewUpdate(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := pathUUID(r, "reviewId", "review")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := parseForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input reviewsvc.UpdateInput
		if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
			rating, err := parseRating(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Rating = &rating
		}
		input.Comment = r.FormValue("comment")
		if input.Images, err = formImages(r, "images"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Update(r.Context(), userID, reviewID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ReviewDelete(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := pathUUID(r, "reviewId", "review")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, reviewID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Review deleted successfully")
	}
}

func parseRating(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < reviewsvc.MinRating || v > reviewsvc.MaxRating {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	return v, nil
}

// parseForm reads a multipart body when one is sent and a urlencoded body otherwise.
func parseForm(r *http.Request) error {
	if validators.IsMultipart(r) {
		return validators.ParseMultipart(r, validators.DefaultMaxUploadBytes)
	}
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form")
	}
	return nil
}
