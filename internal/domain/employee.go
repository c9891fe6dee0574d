package domain

import "time"

// Employee extends a user with tenancy placement and hiring state.
// Status is only ever written through the status workflow.
type Employee struct {
	ID           string
	UserID       string
	CompanyID    string
	DepartmentID string
	Designation  string
	HiredOn      *time.Time
	Status       EmployeeStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	User         *User
}

func (e Employee) OwningCompanyID() *string { return &e.CompanyID }

func (e Employee) OwningUserID() string { return e.UserID }

// DaysEmployed returns whole days between the hire date and now.
func (e *Employee) DaysEmployed(now time.Time) int {
	if e == nil || e.HiredOn == nil {
		return 0
	}
	hired := truncateDate(*e.HiredOn)
	today := truncateDate(now)
	if today.Before(hired) {
		return 0
	}
	return int(today.Sub(hired).Hours() / 24)
}

// EmployeeStatusChange is an audit entry for a successful workflow move.
type EmployeeStatusChange struct {
	ID         string
	EmployeeID string
	ActorID    *string
	OldStatus  EmployeeStatus
	NewStatus  EmployeeStatus
	CreatedAt  time.Time
}

// EmployeeReportRow is the flattened read-only report projection.
type EmployeeReportRow struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	CompanyName    string         `json:"company_name"`
	DepartmentName string         `json:"department_name"`
	Designation    string         `json:"designation"`
	Status         EmployeeStatus `json:"status"`
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate strips the clock component of t.
func NormalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := truncateDate(*t)
	return &normalized
}
