package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/blogia/internal/apperror"
)

// DefaultTimeout bounds backend HTTP requests when the config doesn't say
// otherwise.
const DefaultTimeout = 15 * time.Second

// placeholderURL is where an unconfigured client points. Requests against it
// never happen in practice: services check Configured() and fail fast with a
// configuration error first. Keeping the client non-nil lets callers be
// written unconditionally.
const placeholderURL = "https://placeholder.supabase.co"

// Client is the configured handle for the backend platform. Sub-clients are
// exposed via Auth, Database and Storage.
type Client struct {
	cfg        Config
	configured bool
	httpc      *http.Client

	baseURL    string
	authURL    string
	restURL    string
	storageURL string

	auth     *AuthClient
	database *DatabaseClient
	storage  *StorageClient
}

// New creates a client from cfg. It always returns a usable handle: when the
// config fails shape validation the client targets a placeholder endpoint and
// Configured reports false.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	configured := cfg.IsConfigured()
	if !configured {
		baseURL = placeholderURL
	}

	c := &Client{
		cfg:        cfg,
		configured: configured,
		httpc:      &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		authURL:    baseURL + "/auth/v1",
		restURL:    baseURL + "/rest/v1",
		storageURL: baseURL + "/storage/v1",
	}
	c.auth = &AuthClient{client: c}
	c.database = &DatabaseClient{client: c}
	c.storage = &StorageClient{client: c}
	return c
}

// Configured reports whether the client targets a real project. Services must
// check this before issuing calls.
func (c *Client) Configured() bool {
	return c.configured
}

// Auth returns the auth sub-client.
func (c *Client) Auth() *AuthClient { return c.auth }

// Database returns the row-store sub-client.
func (c *Client) Database() *DatabaseClient { return c.database }

// Storage returns the blob-store sub-client.
func (c *Client) Storage() *StorageClient { return c.storage }

// WithTimeout runs fn under a budget, failing with an apperror.Timeout that
// carries label and the budget when it elapses. The budget is enforced with a
// derived context, so the underlying HTTP request is genuinely cancelled and
// nothing keeps running after the caller has given up.
func WithTimeout(ctx context.Context, budget time.Duration, label string, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	err := fn(tctx)
	if err != nil && tctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return apperror.Timeout(label, budget)
	}
	return err
}

// response is the raw result of a backend request. Header is retained for
// Content-Range (exact counts).
type response struct {
	body   []byte
	status int
	header http.Header
}

// request performs one HTTP request against the platform. The anon key always
// rides along in the apikey header; bearer selects the Authorization value
// (a user's access token, the service key, or, when empty, the anon key).
func (c *Client) request(ctx context.Context, method, url string, body []byte, headers map[string]string, bearer string) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apperror.Network(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.cfg.AnonKey)
	if bearer == "" {
		bearer = c.cfg.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Surface context expiry as-is so WithTimeout can classify it.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Network(err)
	}

	return &response{body: data, status: resp.StatusCode, header: resp.Header}, nil
}

// parseError decodes the backend's error envelope. Unparseable bodies still
// yield a usable *Error with the raw text as the message.
func parseError(body []byte, status int) *Error {
	var envelope struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Details          string `json:"details"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return &Error{Code: "unknown", Message: string(body), StatusCode: status}
	}

	msg := envelope.Message
	if msg == "" {
		msg = envelope.Msg
	}
	if msg == "" {
		msg = envelope.ErrorDescription
	}
	if msg == "" {
		msg = envelope.Error
	}

	code := envelope.Code
	if code == "" {
		code = envelope.Error
	}

	return &Error{Code: code, Message: msg, Details: envelope.Details, StatusCode: status}
}

// AsError extracts the backend error envelope from err, if present.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
