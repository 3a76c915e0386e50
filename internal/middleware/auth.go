package middleware

import (
	"net/http"
	"sync"

	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// TokenHeader carries the admin shared secret.
const TokenHeader = "X-Admin-Token"

// AdminToken gates a route behind the shared admin secret.
//
// An empty secret is a server misconfiguration and always answers 500, so an
// operator can tell it apart from a caller presenting a bad token (401).
func AdminToken(secret string) func(http.Handler) http.Handler {
	var warnOnce sync.Once
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				warnOnce.Do(func() {
					logger.LogError("Admin request refused: ADMIN_TOKEN is not configured")
				})
				utils.WriteError(w, http.StatusInternalServerError, utils.ErrConfigMissingSecret, "ADMIN_TOKEN not set")
				return
			}

			given := r.Header.Get(TokenHeader)
			if given == "" {
				utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthRequired, "Unauthorised")
				return
			}
			if !utils.SecureCompare(given, secret) {
				utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthInvalid, "Unauthorised")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BasicAuth gates a route behind HTTP Basic credentials. With no username
// configured the gate is disabled and passes every request through.
func BasicAuth(username, password, realm string) func(http.Handler) http.Handler {
	if realm == "" {
		realm = "admin"
	}
	return func(next http.Handler) http.Handler {
		if username == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()

			// Both comparisons always run so timing does not reveal which one failed.
			userMatch := utils.SecureCompare(user, username)
			passMatch := utils.SecureCompare(pass, password)

			if !ok || !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
				utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthRequired, "Unauthorised")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
