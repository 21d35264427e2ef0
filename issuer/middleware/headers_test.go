package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		expectedIp string
	}{
		{
			name:       "last ip",
			count:      0,
			expectedIp: "192.168.1.3",
		},
		{
			name:       "middle ip",
			count:      1,
			expectedIp: "192.168.1.2",
		},
		{
			name:       "first ip",
			count:      2,
			expectedIp: "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
			req.Header.Set("X-Forwarded-For", "192.168.1.1,192.168.1.2,192.168.1.3")

			ip, err := ClientIPFromRequest(req, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIp, ip)
		})
	}
}

func TestClientIPFromRequestErrors(t *testing.T) {
	t.Run("no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)

		ip, err := ClientIPFromRequest(req, 0)
		require.ErrorContains(t, err, "no client IP found in header")
		assert.Empty(t, ip)
	})

	tests := []struct {
		name  string
		count int
	}{
		{
			name:  "too big of a count",
			count: 3,
		},
		{
			name:  "negative count",
			count: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
			req.Header.Set("X-Forwarded-For", "192.168.1.1,192.168.1.2,192.168.1.3")

			ip, err := ClientIPFromRequest(req, tt.count)
			require.ErrorContains(t, err, "no client IP found in header")
			assert.Empty(t, ip)
		})
	}
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	assert.Equal(t, "10.1.2.3", ClientIP(req, 0))

	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "1.2.3.4", ClientIP(req, 0))
}
