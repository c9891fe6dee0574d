package domain

import "time"

// Company is the tenant root. It owns departments and employees.
type Company struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Company) OwningCompanyID() *string { return &c.ID }

func (c Company) OwningUserID() string { return "" }
