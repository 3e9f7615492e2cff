package validators

import (
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

const DefaultMaxUploadBytes = 32 << 20

// Upload is a file part read fully into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsMultipart reports whether the request carries a multipart body.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func ParseMultipart(r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFiles reads every file under field. A missing field yields nil.
func FormFiles(r *http.Request, field string) ([]Upload, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload").WithDetails(map[string]any{"field": field, "file": fh.Filename})
		}
		uploads = append(uploads, Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// BracketFields collects form keys shaped like prefix[key] into a map keyed by the bracket contents.
// For prefix "features", "features[size]"="L" yields {"size":"L"}.
func BracketFields(values map[string][]string, prefix string) map[string]string {
	open := prefix + "["
	out := map[string]string{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, open) || !strings.HasSuffix(k, "]") {
			continue
		}
		inner := k[len(open) : len(k)-1]
		if inner == "" || len(values[k]) == 0 {
			continue
		}
		out[inner] = values[k][0]
	}
	return out
}
