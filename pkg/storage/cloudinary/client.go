// Package cloudinary uploads and deletes images through the Cloudinary
// signed upload API.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"

	FolderProducts = "products"
	FolderReviews  = "reviews"
	FolderBanners  = "homepage_banners"
)

// Asset is the subset of the upload response the service keeps.
type Asset struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	now        func() time.Time
	logg       *logger.Logger
}

func NewClient(cfg config.CloudinaryConfig, httpClient *http.Client, logg *logger.Logger) (*Client, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary cloud name, api key and api secret are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		now:        time.Now,
		logg:       logg,
	}, nil
}

// Upload stores raw image bytes under folder.
func (c *Client) Upload(ctx context.Context, folder, filename string, data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return c.upload(ctx, folder, func(w *multipart.Writer) error {
		if filename == "" {
			filename = "upload"
		}
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err
	})
}

// UploadDataURI stores a data:image/...;base64 payload under folder.
func (c *Client) UploadDataURI(ctx context.Context, folder, dataURI string) (*Asset, error) {
	if !IsDataURI(dataURI) {
		return nil, errors.New("not an image data uri")
	}
	return c.upload(ctx, folder, func(w *multipart.Writer) error {
		return w.WriteField("file", dataURI)
	})
}

// Destroy deletes the asset identified by publicID.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return errors.New("public id is required")
	}
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", Sign(params, c.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("destroy"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(req, &out); err != nil {
		return err
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, out.Result)
	}
	return nil
}

// DestroyURL deletes the asset behind a delivery URL.
func (c *Client) DestroyURL(ctx context.Context, rawURL string) error {
	publicID, ok := PublicIDFromURL(rawURL)
	if !ok {
		return fmt.Errorf("cannot derive public id from %q", rawURL)
	}
	return c.Destroy(ctx, publicID)
}

func (c *Client) upload(ctx context.Context, folder string, writeFile func(*multipart.Writer) error) (*Asset, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := writeFile(w); err != nil {
		return nil, err
	}
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.WriteField("api_key", c.apiKey); err != nil {
		return nil, err
	}
	if err := w.WriteField("signature", Sign(params, c.apiSecret)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var asset Asset
	if err := c.do(req, &asset); err != nil {
		return nil, err
	}
	if asset.SecureURL == "" {
		return nil, errors.New("cloudinary upload returned no url")
	}
	return &asset, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && c.logg != nil {
			c.logg.Warn(req.Context(), "cloudinary: closing response body failed")
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("cloudinary read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(payload, &envelope)
		return fmt.Errorf("cloudinary: status %d: %s", resp.StatusCode, envelope.Error.Message)
	}
	return json.Unmarshal(payload, out)
}

func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("%s/%s/image/%s", c.baseURL, url.PathEscape(c.cloudName), action)
}

// Sign returns the hex SHA-1 of the sorted k=v pairs joined by '&' with the secret appended.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// IsDataURI reports whether s is an inline base64 image.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}

// PublicIDFromURL extracts "folder/name" from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/products/abc.jpg.
func PublicIDFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	const marker = "/upload/"
	idx := strings.Index(u.Path, marker)
	if idx < 0 {
		return "", false
	}
	rest := u.Path[idx+len(marker):]
	segments := strings.Split(rest, "/")
	if len(segments) > 1 && isVersionSegment(segments[0]) {
		segments = segments[1:]
	}
	joined := strings.Join(segments, "/")
	joined = strings.TrimSuffix(joined, path.Ext(joined))
	if joined == "" {
		return "", false
	}
	return joined, true
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 10, 64)
	return err == nil
}
