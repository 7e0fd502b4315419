package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders_Apply(t *testing.T) {
	tests := []struct {
		name     string
		secure   bool
		path     string
		expected map[string]string
	}{
		{
			name: "non-secure mode",
			path: "/health",
			expected: map[string]string{
				"X-Frame-Options":           "DENY",
				"X-Content-Type-Options":    "nosniff",
				"Referrer-Policy":           "no-referrer",
				"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
				"Strict-Transport-Security": "",
				"Cache-Control":             "",
			},
		},
		{
			name:   "secure mode api path",
			secure: true,
			path:   "/api/gifts",
			expected: map[string]string{
				"X-Frame-Options":           "DENY",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
				"Cache-Control":             "no-store",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewSecurityHeaders(tt.secure).Apply(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			for header, expected := range tt.expected {
				if got := rr.Header().Get(header); got != expected {
					t.Errorf("header %s: expected %q, got %q", header, expected, got)
				}
			}
		})
	}
}
