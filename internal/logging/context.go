package logging

import (
	"context"
	"log/slog"

	"soundbridge/internal/services"
)

// WithContext returns a logger augmented with the request ID carried by the
// supplied context, if any.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		return logger.With(String(FieldRequestID, rid))
	}
	return logger
}
