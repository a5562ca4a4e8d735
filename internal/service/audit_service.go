package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/credential-auth/internal/events"
)

// AuditService records authentication events to the structured log. It is a
// passive subscriber; failures here never affect the request that emitted
// the event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to auth events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAccountRegistered, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoggedOut, a.handleEvent)
}

func (a *AuditService) handleEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.AccountID != 0 {
		fields = append(fields, zap.Int64("account_id", event.AccountID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	a.logger.Info(string(event.Type), fields...)
	return nil
}
