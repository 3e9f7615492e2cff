package media

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

const maxImageBytes = 10 * 1024 * 1024

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

// ValidateImage checks size and media type. A missing or generic content type
// falls back to sniffing the bytes.
func ValidateImage(file File) error {
	if len(file.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "image is empty").WithDetails(map[string]any{"file": file.Filename})
	}
	if len(file.Data) > maxImageBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "image exceeds 10MB").WithDetails(map[string]any{"file": file.Filename})
	}

	declared := file.ContentType
	if declared == "" || strings.EqualFold(declared, "application/octet-stream") {
		declared = http.DetectContentType(file.Data)
	}
	mediaType, err := sniffMimeType(declared)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image type").WithDetails(map[string]any{"file": file.Filename})
	}
	if _, ok := allowedImageTypes[mediaType]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "images must be png, jpeg, webp, or gif").
			WithDetails(map[string]any{"file": file.Filename, "mime_type": mediaType})
	}
	return nil
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}
