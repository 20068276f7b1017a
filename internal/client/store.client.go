package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"profile-service/internal/domain"
	"profile-service/pkg/response"
	"profile-service/pkg/xerrors"
)

// StoreClient talks to a remote profile store. Origin is fixed at
// construction and prefixed to relative upload paths.
type StoreClient struct {
	origin string
	http   *http.Client
}

func NewStoreClient(origin string, httpClient *http.Client) *StoreClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &StoreClient{origin: strings.TrimRight(origin, "/"), http: httpClient}
}

func (c *StoreClient) Origin() string { return c.origin }

// StatusError is a non-2xx answer from the store.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store responded %d", e.Code)
	}
	return fmt.Sprintf("store responded %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return xerrors.ErrNotFound
	}
	return nil
}

func (c *StoreClient) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	var out []domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles", nil, "", &out); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if out == nil {
		out = []domain.Profile{}
	}
	return out, nil
}

func (c *StoreClient) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &out, nil
}

func (c *StoreClient) CreateProfile(ctx context.Context, req domain.ProfileCreate) (*domain.Profile, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out domain.Profile
	if err := c.do(ctx, http.MethodPost, "/api/profiles", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &out, nil
}

// UploadPhoto sends data as the multipart field "file" and returns the
// absolute URL of the stored copy.
func (c *StoreClient) UploadPhoto(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out domain.UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType(), &out); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return c.Absolute(out.URL), nil
}

// Absolute prefixes relative paths with the store origin.
func (c *StoreClient) Absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.origin + path
}

// Export downloads /cards/{id}/export.<format>. The filename comes from
// Content-Disposition.
func (c *StoreClient) Export(ctx context.Context, id, format, layout string) (string, []byte, error) {
	target := fmt.Sprintf("%s/cards/%s/export.%s?layout=%s",
		c.origin, url.PathEscape(id), url.PathEscape(format), url.QueryEscape(layout))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("export card: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", nil, fmt.Errorf("export card: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	name := "arcians-" + id + "." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, data, nil
}

func (c *StoreClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var env response.APIResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &env); err != nil || env.Message == "" {
		env.Message = strings.TrimSpace(string(raw))
	}
	return &StatusError{Code: resp.StatusCode, Message: env.Message}
}
