package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/issuer/knobs"
)

type testClock struct {
	Time time.Time
}

func (c *testClock) Now() time.Time {
	return c.Time
}

type testMemoryStore struct {
	ok bool
}

func (s *testMemoryStore) Take(ctx context.Context, key string) (tokens uint64, remaining uint64, reset uint64, ok bool, err error) {
	return 0, 0, 0, s.ok, nil
}

func serveLimited(t *testing.T, rl *RateLimiter, path, xff string) *httptest.ResponseRecorder {
	t.Helper()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func requireRateLimited(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var envelope errors.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, errors.CodeResourceExhausted, envelope.Error.Code)
	assert.Equal(t, "rate limit exceeded", envelope.Error.Message)
}

func TestRateLimiter(t *testing.T) {
	config := &RateLimiterConfig{
		Window:      time.Second,
		MaxRequests: 2,
		Paths:       []string{"/v1/assets/USD/mint"},
	}

	t.Run("basic rate limiting", func(t *testing.T) {
		rateLimiter, err := NewRateLimiter(config)
		require.NoError(t, err)

		rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())

		rec = serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		requireRateLimited(t, rec)
	})

	t.Run("path not rate limited", func(t *testing.T) {
		rateLimiter, err := NewRateLimiter(config)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("window expiration", func(t *testing.T) {
		clock := &testClock{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		store := &testMemoryStore{ok: true}

		rateLimiter, err := NewRateLimiter(config, WithClock(clock), WithStore(store))
		require.NoError(t, err)

		rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)

		// Simulate rate limit exceeding
		store.ok = false

		rec = serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		requireRateLimited(t, rec)

		// Now simulate time passing which resets the rate limit
		clock.Time = clock.Time.Add(2 * time.Second)
		store.ok = true

		rec = serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("different clients", func(t *testing.T) {
		rateLimiter, err := NewRateLimiter(config)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code)

			rec = serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "5.6.7.8")
			require.Equal(t, http.StatusOK, rec.Code)
		}

		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4"))
		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "5.6.7.8"))
	})

	t.Run("multiple x-forwarded-for entries", func(t *testing.T) {
		rateLimiter, err := NewRateLimiter(config)
		require.NoError(t, err)

		// The last IP is the client, so exhausting its budget must not
		// affect a request chain that differs only in the last hop.
		xff := "1.2.3.4, 5.6.7.8, 9.10.11.12"
		for i := 0; i < 2; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff))

		rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4, 5.6.7.8, 9.10.11.13")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("custom x-forwarded-for client IP position", func(t *testing.T) {
		configWithCustomPosition := &RateLimiterConfig{
			Window:              time.Second,
			MaxRequests:         2,
			Paths:               []string{"/v1/assets/USD/mint"},
			XffClientIpPosition: 1,
		}

		rateLimiter, err := NewRateLimiter(configWithCustomPosition)
		require.NoError(t, err)

		// Position 1 keys the limit on the second-to-last IP.
		xff := "192.168.1.100, 10.0.0.1, 172.16.0.1"
		for i := 0; i < 2; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff))

		xff2 := "192.168.1.100, 10.0.0.2, 172.16.0.1"
		for i := 0; i < 2; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff2)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/assets/USD/mint", xff2))
	})

	t.Run("knob forces limiting on unlisted path", func(t *testing.T) {
		k := knobs.NewFixedKnobs(map[string]float64{
			knobs.KnobRateLimitPaths + "@/v1/audit": 1,
		})
		rateLimiter, err := NewRateLimiter(config, WithKnobs(k))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/audit", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		requireRateLimited(t, serveLimited(t, rateLimiter, "/v1/audit", "1.2.3.4"))
	})

	t.Run("knob disables limiting on listed path", func(t *testing.T) {
		k := knobs.NewFixedKnobs(map[string]float64{
			knobs.KnobRateLimitPaths + "@/v1/assets/USD/mint": 0,
		})
		rateLimiter, err := NewRateLimiter(config, WithKnobs(k))
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("path disabled via rollout knob", func(t *testing.T) {
		k := knobs.NewFixedKnobs(map[string]float64{
			knobs.KnobHTTPPathEnabled + "@/v1/assets/USD/mint": 0,
		})
		rateLimiter, err := NewRateLimiter(config, WithKnobs(k))
		require.NoError(t, err)

		rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "1.2.3.4")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var envelope errors.Envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Equal(t, errors.CodeUnavailable, envelope.Error.Code)

		// Other paths stay reachable.
		rec = serveLimited(t, rateLimiter, "/v1/assets", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing client IP skips limiting", func(t *testing.T) {
		rateLimiter, err := NewRateLimiter(config)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			rec := serveLimited(t, rateLimiter, "/v1/assets/USD/mint", "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestNewRateLimiter_InvalidConfig(t *testing.T) {
	_, err := NewRateLimiter(42)
	require.ErrorContains(t, err, "invalid config type")
}
