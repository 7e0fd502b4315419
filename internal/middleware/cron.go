package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/HammerMeetNail/timegift/internal/logging"
)

// CronAuth guards the job and admin endpoints with a shared secret sent as
// a bearer token. The configured secret is either plaintext or a bcrypt
// hash. An empty secret leaves the endpoints open.
type CronAuth struct {
	secret string
	hashed bool
}

func NewCronAuth(secret string) *CronAuth {
	return &CronAuth{secret: secret, hashed: isBcryptHash(secret)}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func (c *CronAuth) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !c.valid(bearerToken(r)) {
			logging.FromContext(r.Context()).Warn("Rejected job trigger", logging.Fields{"path": r.URL.Path})
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *CronAuth) valid(token string) bool {
	if token == "" {
		return false
	}
	if c.hashed {
		return bcrypt.CompareHashAndPassword([]byte(c.secret), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.secret)) == 1
}
