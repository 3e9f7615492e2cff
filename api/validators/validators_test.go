package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyReportsFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["password"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"x","admin":true}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, `/?selectedFilters=%7B%22size%22%3A%22M%22%7D`, nil)
	sel := map[string]string{}
	require.NoError(t, ParseQueryJSON(req, "selectedFilters", &sel))
	assert.Equal(t, "M", sel["size"])

	bad := httptest.NewRequest(http.MethodGet, `/?selectedFilters=%7Bbroken`, nil)
	err := ParseQueryJSON(bad, "selectedFilters", &sel)
	require.Error(t, err)
	assert.Equal(t, "Invalid selectedFilters format", pkgerrors.As(err).Message())
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.Error(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}

func TestParseUUID(t *testing.T) {
	_, err := ParseUUID("not-a-uuid", "product")
	require.Error(t, err)
	assert.Equal(t, "Invalid product ID", pkgerrors.As(err).Message())

	id, err := ParseUUID(" 6f1c1f2e-8d2b-4b8e-9c55-5a8c2b0d1e11 ", "product")
	require.NoError(t, err)
	assert.Equal(t, "6f1c1f2e-8d2b-4b8e-9c55-5a8c2b0d1e11", id.String())
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = BearerToken("bearer   ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBracketFields(t *testing.T) {
	got := BracketFields(map[string][]string{
		"features[size]":  {"L"},
		"features[color]": {"Blue"},
		"features[]":      {"skip"},
		"name":            {"Shirt"},
		"features[open":   {"skip"},
	}, "features")
	assert.Equal(t, map[string]string{"size": "L", "color": "Blue"}, got)
}

func TestFormFilesReadsUploads(t *testing.T) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("name", "Shirt"))
	fw, err := mw.CreateFormFile("images", "a.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.True(t, IsMultipart(req))
	require.NoError(t, ParseMultipart(req, 0))

	files, err := FormFiles(req, "images")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.png", files[0].Filename)
	assert.Equal(t, []byte("png-bytes"), files[0].Data)

	none, err := FormFiles(req, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSanitizeHelpers(t *testing.T) {
	assert.Equal(t, "héll", SanitizeString("  héllo ", 4))
	assert.Equal(t, "a@b.co", NormalizeEmail(" A@B.co "))
}
