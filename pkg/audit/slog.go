package audit

import (
	"context"
	"log/slog"
)

// SlogLogger writes audit events to a slog.Logger. It is the default
// audit sink when no database is configured.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger writing to the given slog logger.
// A nil logger selects slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log records an audit event at info level (warn for failures).
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	attrs := []any{
		"audit_id", event.ID,
		"action", string(event.Action),
		"email", event.Email,
		"user_id", event.UserID,
		"role", event.Role,
		"success", event.Success,
	}
	if event.Detail != "" {
		attrs = append(attrs, "detail", event.Detail)
	}

	if event.Success {
		l.logger.InfoContext(ctx, "auth event", attrs...)
		return
	}
	l.logger.WarnContext(ctx, "auth event", attrs...)
}

// Verify interface compliance.
var _ Logger = (*SlogLogger)(nil)
