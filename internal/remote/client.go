// Package remote issues requests against the pipeline service and normalizes
// every outcome into either a raw response body or an *OperationError.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
)

// PayloadKind selects how a request body is encoded.
type PayloadKind int

// Payload kinds.
const (
	PayloadNone PayloadKind = iota
	PayloadMultipart
	PayloadJSON
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadMultipart:
		return "multipart"
	case PayloadJSON:
		return "json"
	default:
		return "none"
	}
}

// FilePart is one named file in a multipart payload.
type FilePart struct {
	Field string
	Path  string
}

// Request describes a single call to the pipeline service.
type Request struct {
	JSON     any
	Method   string
	Endpoint string
	Files    []FilePart
	Kind     PayloadKind
}

// Response is a successful (2xx) reply. Body is returned verbatim.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// OperationError is returned for transport failures and non-2xx replies.
type OperationError struct {
	Err        error
	Method     string
	Endpoint   string
	Body       string
	StatusCode int
}

func (e *OperationError) Error() string {
	if e.StatusCode != 0 {
		body := strings.TrimSpace(e.Body)
		if body == "" {
			return fmt.Sprintf("request failed with status code %d", e.StatusCode)
		}
		return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, body)
	}
	return e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Client talks to the pipeline service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRootCAs trusts pool for HTTPS connections, e.g. a self-signed stub
// certificate. It must come after WithHTTPClient when both are used.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(c *Client) {
		t, ok := c.httpClient.Transport.(*http.Transport)
		if !ok {
			t = http.DefaultTransport.(*http.Transport).Clone()
		} else {
			t = t.Clone()
		}
		t.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
		c.httpClient.Transport = t
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: server url", common.ErrMissingConfig)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: server url: %v", common.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: server url must be http or https, got %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:   u,
		userAgent: "inventory-mapper",
		// Per-attempt deadlines come from the caller's context.
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URL resolves an endpoint path against the service root.
func (c *Client) URL(endpoint string) string {
	return c.BaseURL() + "/" + strings.TrimLeft(endpoint, "/")
}

// Send issues req and returns the raw body of a 2xx reply.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	body, contentType, err := encodePayload(req)
	if err != nil {
		return Response{}, &OperationError{Method: method, Endpoint: req.Endpoint, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Endpoint), body)
	if err != nil {
		return Response{}, &OperationError{Method: method, Endpoint: req.Endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	slog.Debug("Sending pipeline request",
		"method", method,
		"endpoint", req.Endpoint,
		"payload", req.Kind.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, &OperationError{Method: method, Endpoint: req.Endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &OperationError{Method: method, Endpoint: req.Endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &OperationError{
			Method:     method,
			Endpoint:   req.Endpoint,
			StatusCode: resp.StatusCode,
			Body:       serverMessage(data),
			Err:        fmt.Errorf("%w: status %d", common.ErrUnexpectedResponse, resp.StatusCode),
		}
	}

	return Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func encodePayload(req Request) (io.Reader, string, error) {
	switch req.Kind {
	case PayloadNone:
		return nil, "", nil
	case PayloadJSON:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	case PayloadMultipart:
		return encodeMultipart(req.Files)
	default:
		return nil, "", fmt.Errorf("unsupported payload kind %d", req.Kind)
	}
}

func encodeMultipart(files []FilePart) (io.Reader, string, error) {
	if len(files) == 0 {
		return nil, "", fmt.Errorf("%w: multipart payload has no files", common.ErrMissingInput)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range files {
		if err := writeFilePart(w, part); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, part FilePart) error {
	f, err := os.Open(filepath.Clean(part.Path))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", part.Path, err)
	}
	defer func() { _ = f.Close() }()

	fw, err := w.CreateFormFile(part.Field, filepath.Base(part.Path))
	if err != nil {
		return fmt.Errorf("failed to add form file %s: %w", part.Field, err)
	}

	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", part.Path, err)
	}

	return nil
}

// serverMessage prefers the "message" field of a JSON error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := DecodeJSON(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	const maxBody = 512
	text := string(body)
	if len(text) > maxBody {
		text = text[:maxBody] + "..."
	}
	return text
}
