package audit

import "context"

// NopLogger discards all events. Used in tests and when auditing is disabled.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }

func (NopLogger) LogLogin(ctx context.Context, userID *int64, username string, success bool) error {
	return nil
}

func (NopLogger) LogDenial(ctx context.Context, userID *int64, resourceType ResourceType, resourceID, action, reason string) error {
	return nil
}

func (NopLogger) LogMutation(ctx context.Context, eventType EventType, userID *int64, resourceType ResourceType, resourceID string) error {
	return nil
}
