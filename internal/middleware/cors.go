package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS permits browser clients served from another origin to reach the API,
// including the SSE and WebSocket endpoints.
func CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	})(next)
}
