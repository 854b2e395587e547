// API service for making requests to the catalogue API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// CredentialSource supplies the credential to attach to an outbound request.
// It is consulted when each request is sent, never cached.
type CredentialSource interface {
	Credential() (*oauth2.Token, bool)
}

// CredentialFunc adapts a function to [CredentialSource].
type CredentialFunc func() (*oauth2.Token, bool)

func (f CredentialFunc) Credential() (*oauth2.Token, bool) { return f() }

// APIService is the only component that talks to the network. Every request carries the credential
// currently held by its [CredentialSource], if any.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *log.Logger

	mu     sync.RWMutex
	source CredentialSource
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithLimiter throttles outbound requests.
func WithLimiter(l *rate.Limiter) APIOption {
	return func(a *APIService) { a.limiter = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) APIOption {
	return func(a *APIService) { a.userAgent = ua }
}

// WithAPILogger sets the logger used for request tracing.
func WithAPILogger(l *log.Logger) APIOption {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service instance for the catalogue API.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewLimiter builds the outbound limiter from requests per second and burst. A zero rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetCredentialSource replaces the source consulted at send time. A nil source sends every request unauthenticated.
func (a *APIService) SetCredentialSource(src CredentialSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// BaseURL returns the API root requests are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	RequestID  string
}

type requestConfig struct {
	credential *oauth2.Token
	anonymous  bool
	header     http.Header
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

// WithCredential attaches tok to this request instead of the source's credential.
func WithCredential(tok *oauth2.Token) RequestOption {
	return func(c *requestConfig) { c.credential = tok }
}

// WithoutCredential sends this request unauthenticated.
func WithoutCredential() RequestOption {
	return func(c *requestConfig) { c.anonymous = true }
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) {
		if c.header == nil {
			c.header = http.Header{}
		}
		c.header.Set(key, value)
	}
}

func (a *APIService) credentialFor(rc requestConfig) *oauth2.Token {
	if rc.anonymous {
		return nil
	}
	if rc.credential != nil {
		return rc.credential
	}

	a.mu.RLock()
	src := a.source
	a.mu.RUnlock()

	if src == nil {
		return nil
	}
	tok, ok := src.Credential()
	if !ok || tok == nil || tok.AccessToken == "" {
		return nil
	}
	return tok
}

// Do sends a request to path with body encoded as JSON (a []byte body is sent as-is).
//
// Non-2xx responses return the response together with a [*StatusError]. Failures before a response
// arrives return a [*NetworkError]. Requests are never retried.
func (a *APIService) Do(ctx context.Context, method, path string, body any, query url.Values, opts ...RequestOption) (*APIResponse, error) {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	var reader io.Reader
	if body != nil {
		data, ok := body.([]byte)
		if !ok {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			data = encoded
		}
		reader = bytes.NewReader(data)
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rc.header {
		req.Header[k] = v
	}

	netErr := func(op string, err error) *NetworkError {
		return &NetworkError{Method: method, Path: path, Op: op, Err: err}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, netErr("rate limit", err)
		}
	}

	// The credential is read after the limiter wait so a queued request carries the one current at send time.
	if tok := a.credentialFor(rc); tok != nil {
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, netErr("request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, netErr("failed to read response", err)
	}

	a.logger.Debug("request",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		RequestID:  requestID,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiResp, &StatusError{Code: resp.StatusCode, Body: data, Detail: parseDetail(data)}
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path.
func (a *APIService) Get(ctx context.Context, path string, opts ...RequestOption) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, nil, opts...)
}

// Post performs a POST request with body encoded as JSON.
func (a *APIService) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, body, nil, opts...)
}

// DecodeJSON unmarshals the response body into v, returning a [*DecodeError] on mismatch.
func DecodeJSON(resp *APIResponse, v any) error {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return &DecodeError{Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
