package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated       EventType = "employee.created"
	EventEmployeeUpdated       EventType = "employee.updated"
	EventEmployeeDeleted       EventType = "employee.deleted"
	EventEmployeeStatusChanged EventType = "employee.status_changed"
	EventCompanyChanged        EventType = "company.changed"
	EventDepartmentChanged     EventType = "department.changed"
	EventUserChanged           EventType = "user.changed"
)

// AllEventTypes lists every type a subscriber may want to mirror.
func AllEventTypes() []EventType {
	return []EventType{
		EventEmployeeCreated,
		EventEmployeeUpdated,
		EventEmployeeDeleted,
		EventEmployeeStatusChanged,
		EventCompanyChanged,
		EventDepartmentChanged,
		EventUserChanged,
	}
}

// Change actions carried by the *.changed events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorFrom builds the actor block from a principal.
func ActorFrom(p *domain.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{UserID: p.UserID, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	CompanyID *string   `json:"company_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, entityID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// WithCompany scopes the event to a tenant.
func (e Event) WithCompany(companyID *string) Event {
	if companyID != nil {
		id := *companyID
		e.CompanyID = &id
	}
	return e
}

// EmployeeStatusChangedPayload payload.
type EmployeeStatusChangedPayload struct {
	EmployeeID string                `json:"employee_id"`
	UserID     string                `json:"user_id"`
	OldStatus  domain.EmployeeStatus `json:"old_status"`
	NewStatus  domain.EmployeeStatus `json:"new_status"`
}

// EmployeePayload accompanies employee lifecycle events.
type EmployeePayload struct {
	UserID       string                `json:"user_id"`
	DepartmentID string                `json:"department_id"`
	Designation  string                `json:"designation"`
	Status       domain.EmployeeStatus `json:"status"`
}

// EntityChangedPayload accompanies company, department and user events.
type EntityChangedPayload struct {
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
}
