// Package observability carries the request-scoped logging context and the
// in-process metrics for AI operations.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for the request id.
	LogFieldRequestID = "request_id"
	// LogFieldBoardID is the field name for the board id.
	LogFieldBoardID = "board_id"
	// LogFieldOperation is the field name for the engine operation.
	LogFieldOperation = "operation"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for the wire error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext pins one request's id, board and operation to every log
// line emitted while serving it.
type RequestContext struct {
	RequestID string
	BoardID   string
	Operation string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a request context with a generated request id.
func NewRequestContext(logger *slog.Logger, operation, boardID string) *RequestContext {
	return NewRequestContextWithID(logger, uuid.New().String(), operation, boardID)
}

// NewRequestContextWithID creates a request context with a caller-supplied
// request id, so HTTP middleware can reuse the id it already logged.
func NewRequestContextWithID(logger *slog.Logger, requestID, operation, boardID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: requestID,
		BoardID:   boardID,
		Operation: operation,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message with the base fields attached.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.withBase(attrs)...)
}

// Debug logs a debug message with the base fields attached.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.withBase(attrs)...)
}

// Warn logs a warning with the base fields attached.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.withBase(attrs)...)
}

// Error logs an error with the base fields attached.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.withBase(attrs)...)
}

// DurationMs returns the elapsed time since the request started.
func (r *RequestContext) DurationMs() int64 {
	return time.Since(r.StartTime).Milliseconds()
}

func (r *RequestContext) withBase(attrs []slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldOperation, r.Operation),
	}
	if r.BoardID != "" {
		base = append(base, slog.String(LogFieldBoardID, r.BoardID))
	}
	return append(base, attrs...)
}

type ctxKey struct{}

// WithRequestContext stores the request context on a context.Context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}
