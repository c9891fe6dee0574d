package dto

import "time"

// CompanyRequest payload for create and rename.
type CompanyRequest struct {
	Name string `json:"name"`
}

// CompanyResponse representation.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
}

// UpdateDepartmentRequest payload. A department never changes company.
type UpdateDepartmentRequest struct {
	Name string `json:"name"`
}

// DepartmentResponse representation.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
