package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtutil "github.com/Dias221467/achievements/pkg/jwt"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func captureClaims(got **jwtutil.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	token, err := jwtutil.GenerateToken("5f4e1b2c3d4e5f6a7b8c9d0e", "rob@email.com", "user", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantID  string
	}{
		{"no token", func(r *http.Request) {}, ""},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "5f4e1b2c3d4e5f6a7b8c9d0e"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, "5f4e1b2c3d4e5f6a7b8c9d0e"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *jwtutil.Claims
			h := OptionalAuthMiddleware(secret)(captureClaims(&got))

			req := httptest.NewRequest(http.MethodGet, "/achievements", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.UserID)
		})
	}
}

func TestRateLimiterBlocksWritesOnly(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string) int {
		req := httptest.NewRequest(method, "/achievements", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost))
	assert.Equal(t, http.StatusOK, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	assert.Equal(t, http.StatusOK, do(http.MethodGet))
}

func TestRateLimiterKeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	post := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/achievements", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if userID != "" {
			req = req.WithContext(WithUser(req.Context(), &jwtutil.Claims{UserID: userID}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("a"))
	assert.Equal(t, http.StatusOK, post("b"))
	assert.Equal(t, http.StatusOK, post(""))
	assert.Equal(t, http.StatusTooManyRequests, post("a"))
}

func TestMetricsAndLoggingMiddlewarePassThrough(t *testing.T) {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware, MetricsMiddleware)
	r.HandleFunc("/achievements/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/achievements/abc", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/achievements/abc", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
