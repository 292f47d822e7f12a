package outlook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, "https://outlook.office365.com/api/v1.0", defaultBaseURL)
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	require.NotNil(t, client)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	require.NotNil(t, client.httpClient)
	assert.Equal(t, 60*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.Nil(t, client.credential)
	assert.Empty(t, client.mailbox)
}

func TestNewClient_WithOptions(t *testing.T) {
	cred := NewBasicCredential("audit@contoso.com", "hunter2")
	httpClient := &http.Client{Timeout: 5 * time.Second}

	client := NewClient(
		WithCredential(cred),
		WithMailbox("audit@contoso.com"),
		WithBaseURL("https://example.test/api/v1.0/"),
		WithHTTPClient(httpClient),
		WithRateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}),
	)

	assert.Equal(t, cred, client.credential)
	assert.Equal(t, "audit@contoso.com", client.mailbox)
	assert.Equal(t, "https://example.test/api/v1.0", client.baseURL, "trailing slash is trimmed")
	assert.Equal(t, httpClient, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestClient_resolveSession(t *testing.T) {
	cred1 := NewBasicCredential("first@contoso.com", "one")
	cred2 := NewBasicCredential("second@contoso.com", "two")

	t.Run("supplied values are cached", func(t *testing.T) {
		client := NewClient()

		cred, mailbox, err := client.resolveSession(cred1, "first@contoso.com")

		require.NoError(t, err)
		assert.Equal(t, cred1, cred)
		assert.Equal(t, "first@contoso.com", mailbox)
		assert.Equal(t, cred1, client.credential)
		assert.Equal(t, "first@contoso.com", client.mailbox)
	})

	t.Run("cached values are reused", func(t *testing.T) {
		client := NewClient(WithCredential(cred1), WithMailbox("first@contoso.com"))

		cred, mailbox, err := client.resolveSession(nil, "")

		require.NoError(t, err)
		assert.Equal(t, cred1, cred)
		assert.Equal(t, "first@contoso.com", mailbox)
	})

	t.Run("supplied values replace the cache", func(t *testing.T) {
		client := NewClient(WithCredential(cred1), WithMailbox("first@contoso.com"))

		cred, mailbox, err := client.resolveSession(cred2, "second@contoso.com")

		require.NoError(t, err)
		assert.Equal(t, cred2, cred)
		assert.Equal(t, "second@contoso.com", mailbox)
		assert.Equal(t, cred2, client.credential)
		assert.Equal(t, "second@contoso.com", client.mailbox)
	})

	t.Run("no credential anywhere", func(t *testing.T) {
		client := NewClient()

		_, _, err := client.resolveSession(nil, "mailbox@contoso.com")

		assert.ErrorIs(t, err, ErrCredentialsNotSet)
		assert.Empty(t, client.mailbox, "the mailbox is not cached when the credential check fails")
	})

	t.Run("no mailbox anywhere", func(t *testing.T) {
		client := NewClient()

		_, _, err := client.resolveSession(cred1, "")

		assert.ErrorIs(t, err, ErrUserNotSet)
		assert.Equal(t, cred1, client.credential, "the supplied credential is cached before the mailbox check")
	})
}

func TestClient_Validate(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredential(NewBasicCredential("audit@contoso.com", "hunter2")),
		WithMailbox("audit@contoso.com"),
	)

	err := client.Validate(context.Background())

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "/Users('audit@contoso.com')/Messages", seen.URL.Path)
	assert.Equal(t, "1", seen.URL.Query().Get("$top"))
	assert.Equal(t, "Id", seen.URL.Query().Get("$select"))
}

func TestClient_Validate_Unauthorised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"InvalidCredentials"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredential(NewBasicCredential("audit@contoso.com", "wrong")),
		WithMailbox("audit@contoso.com"),
	)

	err := client.Validate(context.Background())

	assert.True(t, IsUnauthorised(err))
}

func TestClient_Validate_NoSession(t *testing.T) {
	err := NewClient().Validate(context.Background())

	assert.ErrorIs(t, err, ErrCredentialsNotSet)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredential(NewBasicCredential("audit@contoso.com", "hunter2")),
		WithMailbox("audit@contoso.com"),
	)

	_, err := client.GetMailActivity(context.Background(), ActivityQuery{})

	assert.ErrorIs(t, err, ErrServerError)
	assert.True(t, IsTransport(err))
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>surprise</html>"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredential(NewBasicCredential("audit@contoso.com", "hunter2")),
		WithMailbox("audit@contoso.com"),
	)

	_, err := client.GetMailActivity(context.Background(), ActivityQuery{})

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_RateLimitedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		http.Error(w, `{"error":{"code":"TooManyRequests"}}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredential(NewBasicCredential("audit@contoso.com", "hunter2")),
		WithMailbox("audit@contoso.com"),
	)

	_, err := client.GetMailActivity(context.Background(), ActivityQuery{})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, client.rateLimiter.Allow(), "the Retry-After backoff is recorded")
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(
		WithBaseURL(srv.URL),
		WithCredential(NewBasicCredential("audit@contoso.com", "hunter2")),
		WithMailbox("audit@contoso.com"),
	)

	_, err := client.GetMailActivity(context.Background(), ActivityQuery{})

	assert.True(t, IsTransport(err))
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{name: "seconds", header: "30", expected: 30},
		{name: "absent", header: "", expected: 0},
		{name: "http date form is ignored", header: "Wed, 21 Oct 2026 07:28:00 GMT", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}

			assert.Equal(t, tt.expected, retryAfterSeconds(resp))
		})
	}
}
