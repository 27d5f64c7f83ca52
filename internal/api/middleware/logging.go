package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/ghoulgame/internal/middleware"
)

// HealthPath is polled by load balancers, so its requests log at debug level
const HealthPath = "/api/v1/health"

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger, HealthPath)
}
