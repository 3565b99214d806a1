package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callWithKey(t *testing.T, auth *APIKeyAuth, key string) int {
	t.Helper()

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAPIKeyAuth_Middleware(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"alpha", ""})

	assert.Equal(t, http.StatusNoContent, callWithKey(t, auth, "alpha"))
	assert.Equal(t, http.StatusUnauthorized, callWithKey(t, auth, "beta"))
	assert.Equal(t, http.StatusUnauthorized, callWithKey(t, auth, ""), "empty keys are never valid")
}

func TestAPIKeyAuth_BearerScheme(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"alpha"})

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer alpha")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIKeyAuth_KeyRotation(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"old"})
	require.True(t, auth.IsValid("old"))

	// Rotate: admit the new key before retiring the old one, so in-flight
	// callers never see a window with no valid key.
	auth.AddKey("new")
	assert.Equal(t, http.StatusNoContent, callWithKey(t, auth, "old"))
	assert.Equal(t, http.StatusNoContent, callWithKey(t, auth, "new"))

	auth.RemoveKey("old")
	assert.False(t, auth.IsValid("old"))
	assert.Equal(t, http.StatusUnauthorized, callWithKey(t, auth, "old"))
	assert.Equal(t, http.StatusNoContent, callWithKey(t, auth, "new"))
}

func TestChain_AppliesOutermostFirst(t *testing.T) {
	tag := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Trace", name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("outer"), tag("middle"), tag("inner"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, rec.Header().Values("X-Trace"))
}

func TestChain_Empty(t *testing.T) {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	Chain()(final).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
