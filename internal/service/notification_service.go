package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
)

// NotificationService reports hiring activity to the operations log.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEmployeeCreated, n.handleEmployeeCreated)
	n.dispatcher.Subscribe(events.EventEmployeeStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventEmployeeDeleted, n.handleEmployeeDeleted)
}

func (n *NotificationService) handleEmployeeCreated(_ context.Context, event events.Event) error {
	n.logger.Info("EmployeeOnboarded",
		zap.String("employee_id", event.EntityID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

// handleStatusChanged announces final hiring decisions; intermediate moves
// are only traced.
func (n *NotificationService) handleStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EmployeeStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected status change payload", zap.String("event_id", event.ID))
		return nil
	}
	fields := []zap.Field{
		zap.String("employee_id", payload.EmployeeID),
		zap.String("user_id", payload.UserID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)),
	}
	if event.CompanyID != nil {
		fields = append(fields, zap.String("company_id", *event.CompanyID))
	}
	switch payload.NewStatus {
	case domain.StatusHired, domain.StatusNotAccepted:
		n.logger.Info("HiringDecision", fields...)
	default:
		n.logger.Debug("HiringProgress", fields...)
	}
	return nil
}

func (n *NotificationService) handleEmployeeDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("EmployeeOffboarded",
		zap.String("employee_id", event.EntityID),
		zap.String("actor_id", event.Actor.UserID))
	return nil
}
