// Package memory provides process-local repositories used when no database
// is configured and by service and handler tests. Referential rules mirror
// the SQL schema: unique names, cascading deletes and the department/company
// pairing on employees.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
)

// Store holds every table behind one lock.
type Store struct {
	mu          sync.RWMutex
	seq         int64
	now         func() time.Time
	companies   map[string]domain.Company
	departments map[string]domain.Department
	users       map[string]domain.User
	employees   map[string]domain.Employee
	order       map[string]int64
	history     []domain.EmployeeStatusChange
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		companies:   map[string]domain.Company{},
		departments: map[string]domain.Department{},
		users:       map[string]domain.User{},
		employees:   map[string]domain.Employee{},
		order:       map[string]int64{},
	}
}

func (s *Store) Companies() repository.CompanyRepository       { return &companyRepository{s} }
func (s *Store) Departments() repository.DepartmentRepository { return &departmentRepository{s} }
func (s *Store) Users() repository.UserRepository             { return &userRepository{s} }
func (s *Store) Employees() repository.EmployeeRepository     { return &employeeRepository{s} }

func (s *Store) History() repository.EmployeeHistoryRepository {
	return &historyRepository{s}
}

// stamp assigns an id and insertion order. Callers hold the write lock.
func (s *Store) stamp() (string, time.Time) {
	s.seq++
	id := uuid.NewString()
	s.order[id] = s.seq
	return id, s.now()
}

func (s *Store) companyNameTaken(name, exceptID string) bool {
	for id, c := range s.companies {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) usernameTaken(username, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func (s *Store) companyExists(id *string) bool {
	if id == nil {
		return true
	}
	_, ok := s.companies[*id]
	return ok
}

// deleteEmployeesWhere removes employees (and their history) matching pred.
func (s *Store) deleteEmployeesWhere(pred func(domain.Employee) bool) {
	removed := map[string]bool{}
	for id, e := range s.employees {
		if pred(e) {
			delete(s.employees, id)
			delete(s.order, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return
	}
	kept := s.history[:0]
	for _, h := range s.history {
		if !removed[h.EmployeeID] {
			kept = append(kept, h)
		}
	}
	s.history = kept
}

func (s *Store) hydrateEmployee(e domain.Employee) domain.Employee {
	if u, ok := s.users[e.UserID]; ok {
		user := cloneUser(u)
		e.User = &user
	}
	e.HiredOn = cloneTime(e.HiredOn)
	return e
}

func (s *Store) sortByOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })
}

func conflict(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrConflict, Constraint: constraint}
}

func missingReference(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrReferenceMissing, Constraint: constraint}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}

func cloneUser(u domain.User) domain.User {
	u.Phone = cloneString(u.Phone)
	u.CompanyID = cloneString(u.CompanyID)
	return u
}
