package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-service/internal/api/dto"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/service"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// EmployeesHandler exposes employee profiles, the hiring workflow and the report.
type EmployeesHandler struct {
	service *service.EmployeeService
	reports *service.ReportService
	now     func() time.Time
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService, reportService *service.ReportService) *EmployeesHandler {
	return &EmployeesHandler{service: employeeService, reports: reportService, now: time.Now}
}

// List GET /api/employees?status=&department_id=.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.EmployeeListFilter{
		Status:       c.Query("status"),
		DepartmentID: c.Query("department_id"),
	}
	employees, err := h.service.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, h.employeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	employee, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.employeeResponse(employee)})
}

// Create POST /api/employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	hiredOn, err := parseHiredOn(req.HiredOn)
	if err != nil {
		return err
	}
	employee, err := h.service.Create(c.UserContext(), principal, service.EmployeeCreateInput{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		Designation:  req.Designation,
		HiredOn:      hiredOn,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.employeeResponse(employee)})
}

// Update PUT /api/employees/:id. Status is owned by the change-status endpoint.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status != nil {
		return apperrors.NewValidationError("Status can only be changed through the change-status endpoint.", nil)
	}
	hiredOn, err := parseHiredOn(req.HiredOn)
	if err != nil {
		return err
	}
	employee, err := h.service.Update(c.UserContext(), principal, c.Params("id"), service.EmployeeUpdateInput{
		DepartmentID: req.DepartmentID,
		Designation:  req.Designation,
		HiredOn:      hiredOn,
		ClearHiredOn: req.HiredOn != nil && *req.HiredOn == "",
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.employeeResponse(employee)})
}

// Delete DELETE /api/employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangeStatus PATCH /api/employees/:id/change-status.
func (h *EmployeesHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.service.ChangeStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.employeeResponse(employee)})
}

// History GET /api/employees/:id/history.
func (h *EmployeesHandler) History(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	changes, err := h.service.History(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.StatusChangeResponse, 0, len(changes))
	for _, change := range changes {
		items = append(items, dto.StatusChangeResponse{
			ID:         change.ID,
			EmployeeID: change.EmployeeID,
			ActorID:    change.ActorID,
			OldStatus:  change.OldStatus,
			NewStatus:  change.NewStatus,
			CreatedAt:  change.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Report GET /api/employees/report. The body is the bare row list.
func (h *EmployeesHandler) Report(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.EmployeeReport(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *EmployeesHandler) employeeResponse(employee *domain.Employee) dto.EmployeeResponse {
	resp := dto.EmployeeResponse{
		ID:           employee.ID,
		UserID:       employee.UserID,
		CompanyID:    employee.CompanyID,
		DepartmentID: employee.DepartmentID,
		Designation:  employee.Designation,
		HiredOn:      dto.FormatDate(employee.HiredOn),
		DaysEmployed: employee.DaysEmployed(h.now()),
		Status:       employee.Status,
		CreatedAt:    employee.CreatedAt,
		UpdatedAt:    employee.UpdatedAt,
	}
	if employee.User != nil {
		resp.Username = employee.User.Username
		resp.Email = employee.User.Email
	}
	return resp
}

func parseHiredOn(raw *string) (*time.Time, error) {
	hiredOn, err := dto.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("hired_on must be a date in YYYY-MM-DD format.", map[string]any{"field": "hired_on"})
	}
	return hiredOn, nil
}
