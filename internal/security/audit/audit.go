package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event is one recorded action against a tenant's data.
type Event struct {
	CompanyID  string
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Status     string
	Details    string
	At         time.Time
}

// Sink persists audit events somewhere durable. The zero configuration
// runs without one and audit stays log-only.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

type Logger struct {
	logger *slog.Logger
	sink   Sink
}

func NewLogger(logger *slog.Logger, sink Sink) *Logger {
	return &Logger{logger: logger, sink: sink}
}

// LogAction emits a structured audit line and, when a sink is configured,
// persists the event. Sink failures are logged and swallowed; audit
// persistence never fails the action it records.
func (al *Logger) LogAction(ctx context.Context, companyID, userID, action, resource, resourceID, status, details string) {
	ev := Event{
		CompanyID:  companyID,
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Status:     status,
		Details:    details,
		At:         time.Now().UTC(),
	}

	al.logger.Info("audit",
		slog.String("action", ev.Action),
		slog.String("resource", ev.Resource),
		slog.String("resource_id", ev.ResourceID),
		slog.String("company_id", ev.CompanyID),
		slog.String("user_id", ev.UserID),
		slog.String("status", ev.Status),
		slog.String("details", ev.Details),
		slog.Time("timestamp", ev.At),
	)

	if al.sink != nil {
		if err := al.sink.Record(ctx, ev); err != nil {
			al.logger.Error("audit sink write failed", slog.String("error", err.Error()))
		}
	}
}

// LogMutation records a successful or failed resource mutation.
func (al *Logger) LogMutation(ctx context.Context, companyID, userID, action, resource, resourceID, status string) {
	al.LogAction(ctx, companyID, userID, action, resource, resourceID, status, "")
}

// LogDenied records a rejected action.
func (al *Logger) LogDenied(ctx context.Context, companyID, userID, resource, reason string) {
	al.LogAction(ctx, companyID, userID, "access_denied", resource, "", "denied", reason)
}
