// Package media relays image bytes to the hosted image store.
package media

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
)

const maxParallelUploads = 4

// File is an uploaded image held in memory.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

type imageStore interface {
	Upload(ctx context.Context, folder, filename string, data []byte) (*cloudinary.Asset, error)
	UploadDataURI(ctx context.Context, folder, dataURI string) (*cloudinary.Asset, error)
	DestroyURL(ctx context.Context, rawURL string) error
}

// Images uploads and deletes hosted images.
type Images struct {
	store imageStore
	logg  *logger.Logger
}

func NewImages(store imageStore, logg *logger.Logger) (*Images, error) {
	if store == nil {
		return nil, fmt.Errorf("image store is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Images{store: store, logg: logg}, nil
}

// UploadAll validates every file, then uploads them concurrently. The returned
// URLs keep the order of files. If any upload fails, the ones that succeeded
// are destroyed before the error is returned.
func (i *Images) UploadAll(ctx context.Context, folder string, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	for _, f := range files {
		if err := ValidateImage(f); err != nil {
			return nil, err
		}
	}

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for idx, f := range files {
		g.Go(func() error {
			asset, err := i.store.Upload(gctx, folder, f.Filename, f.Data)
			if err != nil {
				return err
			}
			urls[idx] = asset.SecureURL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uploaded := make([]string, 0, len(urls))
		for _, u := range urls {
			if u != "" {
				uploaded = append(uploaded, u)
			}
		}
		i.DestroyAll(context.WithoutCancel(ctx), uploaded)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image upload failed")
	}
	return urls, nil
}

// UploadDataURI stores a base64 data URI image.
func (i *Images) UploadDataURI(ctx context.Context, folder, dataURI string) (string, error) {
	asset, err := i.store.UploadDataURI(ctx, folder, dataURI)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image upload failed")
	}
	return asset.SecureURL, nil
}

// DestroyAll deletes every URL, best effort. Failures are logged and returned
// combined; callers never roll back on them.
func (i *Images) DestroyAll(ctx context.Context, urls []string) error {
	var errs error
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := i.store.DestroyURL(ctx, u); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("destroy %s: %w", u, err))
		}
	}
	if errs != nil {
		i.logg.Warn(i.logg.WithField(ctx, "error", errs.Error()), "image cleanup incomplete")
	}
	return errs
}
