package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(method, origin string) *http.Request {
	req := httptest.NewRequest(method, "/products/shirt/discount", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(CORSConfig{
		AllowOrigins: []string{"https://Shop.example"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       600,
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := corsRequest(http.MethodOptions, "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://Shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_PreflightDisallowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())

	req := corsRequest(http.MethodOptions, "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_EchoesRequestedHeaders(t *testing.T) {
	handler := CORS(CORSConfig{})(okHandler())

	req := corsRequest(http.MethodOptions, "https://any.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Request-ID")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_ActualRequest(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		allow       string
		credentials string
	}{
		{"wildcard", CORSConfig{AllowOrigins: []string{"*"}}, "https://a.example", "*", ""},
		{"listed", CORSConfig{AllowOrigins: []string{"https://a.example"}}, "https://a.example", "https://a.example", ""},
		{"unlisted", CORSConfig{AllowOrigins: []string{"https://a.example"}}, "https://b.example", "", ""},
		{"wildcard with credentials echoes origin", CORSConfig{AllowCredentials: true}, "https://a.example", "https://a.example", "true"},
		{"no origin", CORSConfig{}, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.cfg)(okHandler())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, corsRequest(http.MethodPut, tt.origin))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.allow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_ExposeHeaders(t *testing.T) {
	handler := CORS(CORSConfig{ExposeHeaders: []string{RequestIDHeader}})(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, corsRequest(http.MethodGet, "https://a.example"))

	assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
}
