package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const webhookTokenHeader = "X-Webhook-Token"
const webhookTokenQuery = "webhook_token"

// requireWebhookToken enforces the shared verification token the email
// provider includes on reply notifications. Some providers can only append
// the token to the callback URL, so the query parameter is accepted too.
// When expected is empty, the middleware is a no-op.
func requireWebhookToken(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(webhookTokenHeader))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get(webhookTokenQuery))
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				http.Error(w, "invalid webhook token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
