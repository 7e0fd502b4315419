package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the web client's origins to call the API with bearer tokens.
type CORS struct {
	cors *cors.Cors
}

func NewCORS(allowedOrigins []string) *CORS {
	return &CORS{cors: cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	})}
}

func (c *CORS) Apply(next http.Handler) http.Handler {
	return c.cors.Handler(next)
}
