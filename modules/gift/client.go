package gift

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common"
	"github.com/giftify/giftapi/common/model"
)

// Client defines lower-level HTTP operations against the Giftify backend:
// GET/POST/PATCH/DELETE, token refresh checks, response caching.
type Client interface {
	GetJSON(ctx context.Context, endpoint string, entity interface{}, token *oauth2.Token, params map[string]string) error
	GetBytes(ctx context.Context, endpoint string, token *oauth2.Token, params map[string]string) ([]byte, error)
	// GetJSONFresh bypasses the byte-level response cache. Used for
	// resources whose typed values live in the query store instead.
	GetJSONFresh(ctx context.Context, endpoint string, entity interface{}, token *oauth2.Token, params map[string]string) error
	PostJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error)
	// PostJSONIdempotent is PostJSON with an Idempotency-Key header, for
	// mutations that must not be applied twice when a retry fires.
	PostJSONIdempotent(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, idempotencyKey string, expectedStatusCodes ...int) ([]byte, error)
	PatchJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error)
	DeleteJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error)
	DoRequest(ctx context.Context, method, urlStr string, token *oauth2.Token, body io.Reader, headers map[string]string, expectedStatus ...int) ([]byte, error)
	RemoveCacheEntry(cacheKey string)
	BuildCacheKey(endpoint string, params map[string]string) string
}

// HeaderIdempotencyKey guards order creation against duplicate submission
// when a logical action is retried.
const HeaderIdempotencyKey = "Idempotency-Key"

type giftClient struct {
	baseURL    string
	httpClient common.HttpClient
	cache      common.CacheRepository
	authClient common.AuthClient
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// Request outcome counters.
var (
	totalCalls    int64
	notFoundCount int64
	successCount  int64
	failCount     int64
)

// NewClient creates a Client for the Giftify API. cacheTTL controls how
// long GET responses stay in the byte cache; zero means the repository
// default. A nil logger disables logging.
func NewClient(baseURL string, httpClient common.HttpClient, cache common.CacheRepository, authClient common.AuthClient, cacheTTL time.Duration, logger *slog.Logger) Client {
	if logger == nil {
		logger = discardLogger()
	}
	return &giftClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
		authClient: authClient,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ---------------------------------------------------
// Implementation of Client interface
// ---------------------------------------------------

// GetJSON retrieves JSON from an endpoint (cache-aside) and unmarshals into entity.
func (c *giftClient) GetJSON(ctx context.Context, endpoint string, entity interface{}, token *oauth2.Token, params map[string]string) error {
	data, err := c.GetBytes(ctx, endpoint, token, params)
	if err != nil {
		return err
	}
	return unmarshalJSON(data, entity)
}

// GetJSONFresh always hits the network, skipping the byte cache.
func (c *giftClient) GetJSONFresh(ctx context.Context, endpoint string, entity interface{}, token *oauth2.Token, params map[string]string) error {
	urlStr, err := c.buildURL(endpoint, params)
	if err != nil {
		return err
	}
	data, err := c.retryGet(ctx, urlStr, token)
	if err != nil {
		return err
	}
	return unmarshalJSON(data, entity)
}

// GetBytes retrieves raw bytes from an endpoint, with caching.
func (c *giftClient) GetBytes(ctx context.Context, endpoint string, token *oauth2.Token, params map[string]string) ([]byte, error) {
	cacheKey := c.BuildCacheKey(endpoint, params)
	if cached, found := c.cache.Get(cacheKey); found {
		return cached, nil
	}

	urlStr, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	data, err := c.retryGet(ctx, urlStr, token)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey, data, c.cacheTTL)
	return data, nil
}

// retryGet performs a GET with the http client's backoff policy.
func (c *giftClient) retryGet(ctx context.Context, urlStr string, token *oauth2.Token) ([]byte, error) {
	operation := func() (interface{}, error) {
		return c.DoRequest(ctx, http.MethodGet, urlStr, token, nil, nil)
	}
	result, err := c.httpClient.RetryWithExponentialBackoff(operation)
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// PostJSON sends a POST with optional expected status codes.
func (c *giftClient) PostJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error) {
	urlStr, err := c.buildURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(ctx, http.MethodPost, urlStr, token, body, nil, expectedStatusCodes...)
}

// PostJSONIdempotent sends a POST carrying the given idempotency key.
func (c *giftClient) PostJSONIdempotent(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, idempotencyKey string, expectedStatusCodes ...int) ([]byte, error) {
	urlStr, err := c.buildURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{HeaderIdempotencyKey: idempotencyKey}
	return c.DoRequest(ctx, http.MethodPost, urlStr, token, body, headers, expectedStatusCodes...)
}

// PatchJSON sends a PATCH with optional expected status codes.
func (c *giftClient) PatchJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error) {
	urlStr, err := c.buildURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(ctx, http.MethodPatch, urlStr, token, body, nil, expectedStatusCodes...)
}

// DeleteJSON sends a DELETE with optional expected status codes.
func (c *giftClient) DeleteJSON(ctx context.Context, endpoint string, token *oauth2.Token, body io.Reader, expectedStatusCodes ...int) ([]byte, error) {
	urlStr, err := c.buildURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(ctx, http.MethodDelete, urlStr, token, body, nil, expectedStatusCodes...)
}

// DoRequest is the core method that actually performs the HTTP request.
func (c *giftClient) DoRequest(ctx context.Context, method, urlStr string, token *oauth2.Token, body io.Reader, headers map[string]string, expectedStatus ...int) ([]byte, error) {
	if len(expectedStatus) == 0 {
		expectedStatus = []int{http.StatusOK}
	}

	// read the entire body so we can retry
	var bodyBytes []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		bodyBytes = b
	}

	// Execute request
	data, status, err := c.executeRequest(ctx, method, urlStr, token, bytes.NewReader(bodyBytes), headers)
	if err != nil {
		return nil, err
	}

	// if unauthorized/forbidden and we have refresh capability, try refresh
	if (status == http.StatusUnauthorized || status == http.StatusForbidden) && canRefresh(token, c.authClient) {
		newToken, refreshErr := c.authClient.RefreshToken(token.RefreshToken)
		if refreshErr == nil && newToken != nil {
			c.logger.Debug("token refreshed, retrying request", "method", method, "url", urlStr)
			token = newToken
			data, status, err = c.executeRequest(ctx, method, urlStr, token, bytes.NewReader(bodyBytes), headers)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, fmt.Errorf("token refresh failed: %w", refreshErr)
		}
	}

	// metrics
	atomic.AddInt64(&totalCalls, 1)
	switch {
	case status == http.StatusNotFound:
		atomic.AddInt64(&notFoundCount, 1)
	case status >= 200 && status < 300:
		atomic.AddInt64(&successCount, 1)
	default:
		atomic.AddInt64(&failCount, 1)
	}

	if !statusMatches(status, expectedStatus) {
		c.logger.Debug("unexpected status", "method", method, "url", urlStr, "status", status)
		return nil, &common.HTTPError{
			StatusCode: status,
			Body:       data,
		}
	}
	return data, nil
}

// executeRequest actually does the low-level HTTP
func (c *giftClient) executeRequest(ctx context.Context, method, urlStr string, token *oauth2.Token, body io.Reader, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != nil && token.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %v", readErr)
	}
	return data, resp.StatusCode, nil
}

// buildURL merges baseURL + endpoint + params
func (c *giftClient) buildURL(endpoint string, params map[string]string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	path, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	fullURL := base.ResolveReference(path)
	q := fullURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	fullURL.RawQuery = q.Encode()
	return fullURL.String(), nil
}

// RemoveCacheEntry forcibly removes a specific cached response.
func (c *giftClient) RemoveCacheEntry(cacheKey string) {
	c.cache.Delete(cacheKey)
}

// BuildCacheKey composes the byte-cache key for an endpoint + params.
func (c *giftClient) BuildCacheKey(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	queryParams := ""
	for _, k := range keys {
		queryParams += fmt.Sprintf("&%s=%s", k, params[k])
	}
	return fmt.Sprintf("gift:%s:%s", endpoint, queryParams)
}

func statusMatches(statusCode int, expected []int) bool {
	for _, s := range expected {
		if statusCode == s {
			return true
		}
	}
	return false
}

func canRefresh(token *oauth2.Token, auth common.AuthClient) bool {
	return token != nil && token.RefreshToken != "" && auth != nil
}

// unmarshalJSON helper
func unmarshalJSON(data []byte, out interface{}) error {
	return model.JSONUnmarshal(data, out)
}
