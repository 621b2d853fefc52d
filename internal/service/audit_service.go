package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/events"
)

// AuditService writes complaint events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventComplaintSubmitted, a.handleSubmitted)
	a.dispatcher.Subscribe(events.EventComplaintStatusChanged, a.handleChanged)
	a.dispatcher.Subscribe(events.EventComplaintPriorityChanged, a.handleChanged)
	a.dispatcher.Subscribe(events.EventComplaintAssigned, a.handleAssigned)
}

func (a *AuditService) handleSubmitted(_ context.Context, event events.Event) error {
	a.logger.Info("ComplaintSubmitted",
		zap.String("event_id", event.ID),
		zap.Int64("complaint_id", event.ComplaintID),
		zap.Int64("owner_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleChanged(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("complaint_id", event.ComplaintID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.String("department", event.Actor.Department.Code()),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintAssignedPayload)
	if !ok {
		return a.handleChanged(context.Background(), event)
	}
	msg := "ComplaintAssigned"
	if payload.Claimed {
		msg = "ComplaintClaimed"
	}
	a.logger.Info(msg,
		zap.String("event_id", event.ID),
		zap.Int64("complaint_id", event.ComplaintID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.String("from", payload.OldDepartment.Code()),
		zap.String("to", payload.NewDepartment.Code()))
	return nil
}
