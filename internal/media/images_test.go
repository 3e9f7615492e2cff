package media

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000000000")

type fakeStore struct {
	mu        sync.Mutex
	failOn    string
	destroyed []string
	destroyFn func(string) error
}

func (f *fakeStore) Upload(_ context.Context, folder, filename string, _ []byte) (*cloudinary.Asset, error) {
	if filename == f.failOn {
		return nil, errors.New("upstream 500")
	}
	return &cloudinary.Asset{SecureURL: "https://cdn.test/" + folder + "/" + filename}, nil
}

func (f *fakeStore) UploadDataURI(_ context.Context, folder, _ string) (*cloudinary.Asset, error) {
	return &cloudinary.Asset{SecureURL: "https://cdn.test/" + folder + "/inline"}, nil
}

func (f *fakeStore) DestroyURL(_ context.Context, u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyFn != nil {
		if err := f.destroyFn(u); err != nil {
			return err
		}
	}
	f.destroyed = append(f.destroyed, u)
	return nil
}

func TestUploadAllKeepsOrder(t *testing.T) {
	store := &fakeStore{}
	images, err := NewImages(store, nil)
	require.NoError(t, err)

	files := []File{
		{Filename: "a.png", ContentType: "image/png", Data: pngHeader},
		{Filename: "b.png", Data: pngHeader},
		{Filename: "c.png", ContentType: "image/png", Data: pngHeader},
	}
	urls, err := images.UploadAll(context.Background(), cloudinary.FolderProducts, files)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.test/products/a.png",
		"https://cdn.test/products/b.png",
		"https://cdn.test/products/c.png",
	}, urls)
}

func TestUploadAllCleansUpOnFailure(t *testing.T) {
	store := &fakeStore{failOn: "b.png"}
	images, err := NewImages(store, nil)
	require.NoError(t, err)

	_, err = images.UploadAll(context.Background(), cloudinary.FolderReviews, []File{
		{Filename: "a.png", ContentType: "image/png", Data: pngHeader},
		{Filename: "b.png", ContentType: "image/png", Data: pngHeader},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	for _, u := range store.destroyed {
		assert.NotContains(t, u, "b.png")
	}
}

func TestUploadAllRejectsNonImages(t *testing.T) {
	images, err := NewImages(&fakeStore{}, nil)
	require.NoError(t, err)

	_, err = images.UploadAll(context.Background(), cloudinary.FolderProducts, []File{
		{Filename: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDestroyAllCombinesErrors(t *testing.T) {
	store := &fakeStore{destroyFn: func(u string) error {
		if strings.HasSuffix(u, "bad") {
			return errors.New("gone")
		}
		return nil
	}}
	images, err := NewImages(store, nil)
	require.NoError(t, err)

	err = images.DestroyAll(context.Background(), []string{"https://cdn.test/x/ok", "https://cdn.test/x/bad", "", "https://cdn.test/y/bad"})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"https://cdn.test/x/ok"}, store.destroyed)
}
