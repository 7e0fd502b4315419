package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/handlers"
	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

// Claims are the access token fields issued by the auth provider.
type Claims struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// UserSyncer mirrors an authenticated identity into the users table.
type UserSyncer interface {
	Sync(ctx context.Context, user models.User) (*models.User, error)
}

type AuthMiddleware struct {
	secret []byte
	issuer string
	users  UserSyncer
}

func NewAuthMiddleware(secret, issuer string, users UserSyncer) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), issuer: issuer, users: users}
}

// Authenticate verifies a bearer access token and adds the user to context
// if valid. Does not reject unauthenticated requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || len(m.secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.parse(token)
		if err != nil {
			logging.FromContext(r.Context()).Debug("Rejected access token", logging.Fields{"error": err.Error()})
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.Sync(r.Context(), *identity)
		if err != nil {
			logging.FromContext(r.Context()).Error("Failed to sync user profile", logging.Fields{
				"user_id": identity.ID.String(),
				"error":   err.Error(),
			})
			writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := handlers.SetUserInContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) parse(raw string) (*models.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Email: claims.Email, Phone: claims.Phone}, nil
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUserFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
