package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// webpMagic is the RIFF container header every WebP file starts with.
// Bytes 8..11 are checked separately for the "WEBP" fourcc.
var webpMagic = []byte("RIFF")

var (
	// ErrNotWebP is returned when the payload is not a WebP image.
	ErrNotWebP = errors.New("storage: only webp images are accepted")
	// ErrTooLarge is returned when the payload exceeds the configured size cap.
	ErrTooLarge = errors.New("storage: image exceeds size limit")
)

// ObjectStore uploads question images and returns their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Client is an ObjectStore backed by an S3-compatible HTTP endpoint.
// Objects are written with a single PUT and served from a public base URL.
type Client struct {
	baseURL string
	bucket  string
	maxSize int64
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithMaxSize caps the accepted image size in bytes.
func WithMaxSize(n int64) Option {
	return func(c *Client) {
		c.maxSize = n
	}
}

// New creates a Client for the given public base URL and bucket.
func New(baseURL, bucket string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		maxSize: 4 << 20,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put uploads a WebP image under key and returns its public URL.
// The payload is sniffed before any network traffic happens, so a bad
// file never reaches the object store.
func (c *Client) Put(ctx context.Context, key string, data []byte) (string, error) {
	if int64(len(data)) > c.maxSize {
		return "", ErrTooLarge
	}
	if !IsWebP(data) {
		return "", ErrNotWebP
	}

	target := c.objectURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/webp")
	req.ContentLength = int64(len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: status %d: %s", key, resp.StatusCode, string(body))
	}

	return target, nil
}

func (c *Client) objectURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + c.bucket + "/" + strings.Join(parts, "/")
}

// IsWebP reports whether data starts with a valid WebP header.
func IsWebP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return bytes.Equal(data[:4], webpMagic) && string(data[8:12]) == "WEBP"
}

// MemoryStore is an in-memory ObjectStore for tests and local development.
type MemoryStore struct {
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore serving from baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte) (string, error) {
	if !IsWebP(data) {
		return "", ErrNotWebP
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return m.baseURL + "/" + key, nil
}

// Get returns a stored object, for test assertions.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	data, ok := m.objects[key]
	return data, ok
}
