package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	wrapped := Auth("secret")(okHandler())

	cases := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"no token", "/api/markets/daily", nil, http.StatusUnauthorized},
		{"wrong token", "/api/markets/daily", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"bearer token", "/api/markets/daily", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"api key header", "/api/markets/daily", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"health exempt", "/api/health", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestAuth_DisabledWhenKeyEmpty(t *testing.T) {
	wrapped := Auth("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/votes", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rr.Code)
	}
}
