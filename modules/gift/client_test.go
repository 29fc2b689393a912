package gift_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common"
	"github.com/giftify/giftapi/modules/gift"
)

type mockHttpClient struct {
	doFunc    func(req *http.Request) (*http.Response, error)
	retryFunc func(operation func() (interface{}, error)) (interface{}, error)
}

func (m *mockHttpClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}
func (m *mockHttpClient) Get(url string) (*http.Response, error) {
	panic("Get not implemented in mock")
}
func (m *mockHttpClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	panic("Post not implemented in mock")
}
func (m *mockHttpClient) CloseIdleConnections() {}
func (m *mockHttpClient) RetryWithExponentialBackoff(op func() (interface{}, error)) (interface{}, error) {
	if m.retryFunc != nil {
		return m.retryFunc(op)
	}
	// default: call op directly
	return op()
}
func (m *mockHttpClient) SetRandAndSleepForTest(sleep func(d time.Duration), seed int64) {}

type mockCache struct {
	store map[string][]byte
}

func (c *mockCache) Get(key string) ([]byte, bool) {
	val, ok := c.store[key]
	return val, ok
}
func (c *mockCache) Set(key string, value []byte, _ time.Duration) {
	c.store[key] = value
}
func (c *mockCache) Delete(key string) {
	delete(c.store, key)
}

type mockAuth struct {
	refreshFunc func(refreshToken string) (*oauth2.Token, error)
}

func (m *mockAuth) RefreshToken(refreshToken string) (*oauth2.Token, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(refreshToken)
	}
	return nil, errors.New("mockAuth called refresh, but no func set")
}

func newTestClient(httpClient common.HttpClient, cache common.CacheRepository, auth common.AuthClient) gift.Client {
	return gift.NewClient("https://api.giftify.test/", httpClient, cache, auth, time.Minute, nil)
}

func TestClient_DoRequest_Success(t *testing.T) {
	mockHTTP := &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			// Return a 200 with dummy JSON
			body := io.NopCloser(bytes.NewBufferString(`{"foo":"bar"}`))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       body,
			}, nil
		},
	}

	client := newTestClient(mockHTTP, &mockCache{store: make(map[string][]byte)}, &mockAuth{
		refreshFunc: func(token string) (*oauth2.Token, error) {
			return nil, errors.New("should not refresh token for 200 response")
		},
	})

	ctx := context.Background()
	data, err := client.DoRequest(ctx, http.MethodGet, "https://api.giftify.test/test", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"foo":"bar"}` {
		t.Errorf("expected %v, got %v", `{"foo":"bar"}`, string(data))
	}
}

func TestClient_DoRequest_Refresh(t *testing.T) {
	firstCall := true
	mockHTTP := &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			if firstCall {
				firstCall = false
				// simulate 403
				return &http.Response{
					StatusCode: http.StatusForbidden,
					Body:       io.NopCloser(bytes.NewBufferString("forbidden")),
				}, nil
			}
			// second call is 200
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"refreshed":"token"}`)),
			}, nil
		},
	}

	client := newTestClient(mockHTTP, &mockCache{store: make(map[string][]byte)}, &mockAuth{
		refreshFunc: func(r string) (*oauth2.Token, error) {
			return &oauth2.Token{
				AccessToken:  "newAccessToken",
				RefreshToken: "newRefreshToken",
			}, nil
		},
	})

	ctx := context.Background()
	token := &oauth2.Token{
		AccessToken:  "oldAccessToken",
		RefreshToken: "oldRefreshToken",
	}
	data, err := client.DoRequest(ctx, http.MethodGet, "https://api.giftify.test/test", token, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"refreshed":"token"}` {
		t.Errorf("expected %v, got %v", `{"refreshed":"token"}`, string(data))
	}
}

func TestClient_GetBytes_Caching(t *testing.T) {
	called := 0
	mockHTTP := &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			called++
			body := io.NopCloser(bytes.NewBufferString(`{"cached":"data"}`))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       body,
			}, nil
		},
	}

	client := newTestClient(mockHTTP, &mockCache{store: make(map[string][]byte)}, &mockAuth{})

	ctx := context.Background()
	// first call
	_, err := client.GetBytes(ctx, "api/v2/products", nil, map[string]string{"category": "toys"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 1 {
		t.Errorf("expected called=1, got %d", called)
	}

	// second call => should use cache
	_, err = client.GetBytes(ctx, "api/v2/products", nil, map[string]string{"category": "toys"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 1 {
		t.Errorf("expected called=1 after second call, got %d", called)
	}
}

func TestClient_PostJSONIdempotent_Header(t *testing.T) {
	var gotKey string
	mockHTTP := &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			gotKey = req.Header.Get(gift.HeaderIdempotencyKey)
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString(`{"id":"order-1"}`)),
			}, nil
		},
	}

	client := newTestClient(mockHTTP, &mockCache{store: make(map[string][]byte)}, &mockAuth{})

	_, err := client.PostJSONIdempotent(context.Background(), "api/v2/orders", nil,
		bytes.NewBufferString(`{}`), "key-123", http.StatusCreated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "key-123" {
		t.Errorf("expected idempotency key header 'key-123', got %q", gotKey)
	}
}

func TestClient_DoRequest_UnexpectedStatus(t *testing.T) {
	mockHTTP := &mockHttpClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(bytes.NewBufferString("no such order")),
			}, nil
		},
	}

	client := newTestClient(mockHTTP, &mockCache{store: make(map[string][]byte)}, &mockAuth{})

	_, err := client.DoRequest(context.Background(), http.MethodGet, "https://api.giftify.test/api/v2/orders/x", nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !common.IsNotFound(err) {
		t.Errorf("expected NotFound error, got %v", err)
	}
}
