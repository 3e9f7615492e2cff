package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/media"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// actorID returns the authenticated user id placed on the context by middleware.Auth.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Not authorized")
	}
	return id, nil
}

func pathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	return validators.ParseUUID(chi.URLParam(r, param), label)
}

// formImages reads the multipart files under field as media files.
func formImages(r *http.Request, field string) ([]media.File, error) {
	uploads, err := validators.FormFiles(r, field)
	if err != nil {
		return nil, err
	}
	files := make([]media.File, 0, len(uploads))
	for _, u := range uploads {
		files = append(files, media.File{Filename: u.Filename, ContentType: u.ContentType, Data: u.Data})
	}
	return files, nil
}
