package domain

import "time"

// Department represents an organizational unit inside a company.
type Department struct {
	ID          string
	CompanyID   string
	CompanyName string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (d Department) OwningCompanyID() *string { return &d.CompanyID }

func (d Department) OwningUserID() string { return "" }
