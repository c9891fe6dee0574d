package dto

import (
	"time"

	"github.com/spec-kit/employee-service/internal/domain"
)

// DateLayout is the wire format of hire dates.
const DateLayout = "2006-01-02"

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	UserID       string  `json:"user_id"`
	DepartmentID string  `json:"department_id"`
	Designation  string  `json:"designation"`
	HiredOn      *string `json:"hired_on"`
}

// UpdateEmployeeRequest payload. An empty hired_on clears the date. Status is
// decoded only so it can be refused.
type UpdateEmployeeRequest struct {
	DepartmentID *string `json:"department_id"`
	Designation  *string `json:"designation"`
	HiredOn      *string `json:"hired_on"`
	Status       *string `json:"status"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// EmployeeResponse representation.
type EmployeeResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Username     string                `json:"username,omitempty"`
	Email        string                `json:"email,omitempty"`
	CompanyID    string                `json:"company_id"`
	DepartmentID string                `json:"department_id"`
	Designation  string                `json:"designation"`
	HiredOn      *string               `json:"hired_on"`
	DaysEmployed int                   `json:"days_employed"`
	Status       domain.EmployeeStatus `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// StatusChangeResponse is one audit trail entry.
type StatusChangeResponse struct {
	ID         string                `json:"id"`
	EmployeeID string                `json:"employee_id"`
	ActorID    *string               `json:"actor_id"`
	OldStatus  domain.EmployeeStatus `json:"old_status"`
	NewStatus  domain.EmployeeStatus `json:"new_status"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ParseDate reads an optional hire date.
func ParseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// FormatDate renders an optional hire date.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(DateLayout)
	return &formatted
}
