package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DefaultOrigins are allowed when no origins are configured
var DefaultOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"https://app.levrix.io",
}

// CORSConfig returns the CORS configuration for the given origins.
// main.go and the tests build it the same way.
func CORSConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"Stripe-Signature",
		},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        600,
	}
}
