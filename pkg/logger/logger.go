package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	// Create logger
	logger := slog.New(handler)

	return &Logger{
		Logger: logger,
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Business logic logging methods

// LogBookingCreated logs when a booking is created by the saga
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, offeringID, orderID string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("offering_id", offeringID),
		slog.String("order_id", orderID),
	)
}

// LogBookingCancelled logs when a booking is cancelled (user action or compensation)
func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID, reason string) {
	l.Logger.InfoContext(ctx,
		"Booking Cancelled",
		slog.String("booking_id", bookingID),
		slog.String("reason", reason),
	)
}

// LogSagaCompensation logs a compensating action taken after a partial failure.
// The original error is kept alongside so it is never masked by the cleanup.
func (l *Logger) LogSagaCompensation(ctx context.Context, bookingID string, cause error, compensationErr error) {
	attrs := []any{
		slog.String("booking_id", bookingID),
		slog.String("cause", cause.Error()),
	}
	if compensationErr != nil {
		attrs = append(attrs, slog.String("compensation_error", compensationErr.Error()))
	}
	l.Logger.ErrorContext(ctx, "Saga Compensation", attrs...)
}

// Webhook logging methods

// LogWebhookReceived logs an inbound payment webhook before processing
func (l *Logger) LogWebhookReceived(ctx context.Context, provider, externalTxnID, status string) {
	l.Logger.InfoContext(ctx,
		"Payment Webhook Received",
		slog.String("provider", provider),
		slog.String("external_transaction_id", externalTxnID),
		slog.String("gateway_status", status),
	)
}

// LogWebhookDuplicate logs an idempotent no-op delivery
func (l *Logger) LogWebhookDuplicate(ctx context.Context, externalTxnID, status string) {
	l.Logger.InfoContext(ctx,
		"Payment Webhook Duplicate Ignored",
		slog.String("external_transaction_id", externalTxnID),
		slog.String("status", status),
	)
}

// Security logging methods

// LogSecurityEvent logs security-relevant rejections (bad signature, amount
// mismatch) with full context for forensic review.
func (l *Logger) LogSecurityEvent(ctx context.Context, event, detail, ip string) {
	l.Logger.ErrorContext(ctx,
		"Security Event",
		slog.String("event", event),
		slog.String("detail", detail),
		slog.String("ip", ip),
	)
}

// LogUnauthenticatedWebhook warns that a webhook was accepted without a
// configured signing secret. This is a configuration gap, not a normal mode.
func (l *Logger) LogUnauthenticatedWebhook(ctx context.Context, ip string) {
	l.Logger.WarnContext(ctx,
		"Webhook Accepted Without Signature Verification",
		slog.String("ip", ip),
		slog.String("hint", "set PAYMENT_WEBHOOK_SECRET"),
	)
}

// LogDegradedMode warns that a fallback computation path was used in place of
// a store-side check.
func (l *Logger) LogDegradedMode(ctx context.Context, check string, err error) {
	l.Logger.WarnContext(ctx,
		"Degraded Mode Fallback",
		slog.String("check", check),
		slog.String("error", err.Error()),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
