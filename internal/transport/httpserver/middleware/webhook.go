package middleware

import (
	"crypto/subtle"
	"net/http"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// RequireWebhookSecret rejects requests whose secret header does not match.
// An empty secret disables the endpoint.
func RequireWebhookSecret(secret string) func(http.Handler) http.Handler {
	expected := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				writeError(w, http.StatusServiceUnavailable, "webhook_not_configured", "webhook secret not configured")
				return
			}
			provided := []byte(r.Header.Get(WebhookSecretHeader))
			if subtle.ConstantTimeCompare(provided, expected) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid_webhook_secret", "invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
