package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultCORSConfig allows any origin to read the API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-Admin-Token",
		},
		MaxAge: 600,
	}
}

// CORS returns CORS middleware backed by rs/cors. Register it with e.Pre so that
// preflight requests are answered before routing.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: cfg.AllowMethods,
		AllowedHeaders: cfg.AllowHeaders,
		MaxAge:         cfg.MaxAge,
	})
	return echo.WrapMiddleware(c.Handler)
}
