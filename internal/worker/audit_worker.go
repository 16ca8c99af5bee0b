package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/events"
	"github.com/spec-kit/storefront-guard/internal/session"
)

// StartAuditWorker subscribes to session events, logging each one and
// recording it in the visitor's activity log.
func StartAuditWorker(dispatcher events.Dispatcher, activity *session.ActivityLog, logger *zap.Logger) {
	if dispatcher == nil || activity == nil {
		return
	}
	handler := auditHandler(activity, logger)
	for _, et := range []events.EventType{
		events.EventSessionSaved,
		events.EventSessionCleared,
		events.EventAccessGranted,
		events.EventAccessDenied,
	} {
		dispatcher.Subscribe(et, handler)
	}
}

func auditHandler(activity *session.ActivityLog, logger *zap.Logger) events.EventHandler {
	return func(ctx context.Context, e events.Event) error {
		logger.Info("session event",
			zap.String("event_id", e.ID),
			zap.String("type", string(e.Type)),
			zap.String("visitor_id", e.VisitorID),
			zap.String("subject", e.Subject),
			zap.String("path", e.Path),
		)
		if e.VisitorID == "" {
			return nil
		}
		entry := session.ActivityEntry{
			Type:      string(e.Type),
			Path:      e.Path,
			Detail:    detail(e),
			Timestamp: e.Timestamp,
		}
		if err := activity.Record(ctx, e.VisitorID, entry); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	}
}

func detail(e events.Event) string {
	switch p := e.Payload.(type) {
	case events.SessionClearedPayload:
		return p.Reason
	case events.AccessDeniedPayload:
		return p.State + " -> " + p.Target
	default:
		return ""
	}
}
