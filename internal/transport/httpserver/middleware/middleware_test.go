package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"household-app-go/internal/config"
	"household-app-go/pkg/logger"
)

type recordingProfiles struct {
	calls []string
	err   error
}

func (p *recordingProfiles) UpsertProfile(ctx context.Context, userID, displayName, email, avatarURL string) error {
	p.calls = append(p.calls, userID+"|"+displayName+"|"+email)
	return p.err
}

func okHandler(t *testing.T, seen *User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		*seen = user
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestWebhookSecret(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "match", secret: "s3cret", header: "s3cret", want: http.StatusAccepted},
		{name: "mismatch", secret: "s3cret", header: "nope", want: http.StatusUnauthorized},
		{name: "missing header", secret: "s3cret", want: http.StatusUnauthorized},
		{name: "not configured", secret: "", header: "", want: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/recurring-chores", nil)
			if tc.header != "" {
				req.Header.Set(WebhookSecretHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			RequireWebhookSecret(tc.secret)(next).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSupabaseAuthSkipUsesMockUser(t *testing.T) {
	profiles := &recordingProfiles{err: errors.New("db down")}
	auth := NewSupabaseAuth(config.SupabaseConfig{
		SkipAuth:      true,
		MockUserID:    "dev-user",
		MockUserEmail: "dev@example.com",
		MockUserName:  "Dev",
	}, profiles, logger.Nop())

	var seen User
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler(t, &seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "dev-user", seen.ID)
	assert.Equal(t, []string{"dev-user|Dev|dev@example.com"}, profiles.calls)
}

func TestSupabaseAuthVerifiesToken(t *testing.T) {
	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("Authorization") != "Bearer good" || r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-1","email":"a@example.com","user_metadata":{"full_name":"Alice"}}`))
	}))
	t.Cleanup(supabase.Close)

	profiles := &recordingProfiles{}
	auth := NewSupabaseAuth(config.SupabaseConfig{URL: supabase.URL + "/", PublishableKey: "anon"}, profiles, logger.Nop())

	var seen User
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler(t, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", seen.ID)
	assert.Equal(t, "Alice", seen.Name)
	assert.Equal(t, []string{"user-1|Alice|a@example.com"}, profiles.calls)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	auth.Middleware(okHandler(t, &seen)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	auth.Middleware(okHandler(t, &seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS(t *testing.T) {
	handler := NewCORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chores", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/chores", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
