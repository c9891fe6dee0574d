// Package visibility decides which records a principal may read or act upon.
//
// The policy is a pure function of the principal's role, company and user id.
// Repositories translate a Scope into SQL predicates; in-memory callers use
// Allows and Filter. Both paths share the table below, so list, detail,
// mutation and reporting stay consistent.
package visibility

import (
	"fmt"

	"github.com/spec-kit/employee-service/internal/domain"
)

// Entity names a class of scoped records.
type Entity string

const (
	EntityUser       Entity = "user"
	EntityCompany    Entity = "company"
	EntityDepartment Entity = "department"
	EntityEmployee   Entity = "employee"
)

// Kind is the breadth of a scope.
type Kind int

const (
	KindNone Kind = iota
	KindAll
	KindCompany
	KindSelf
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindCompany:
		return "company"
	case KindSelf:
		return "self"
	default:
		return "none"
	}
}

// Record is implemented by every scoped domain entity.
type Record interface {
	OwningCompanyID() *string
	OwningUserID() string
}

// Scope is the resolved visibility of one principal over one entity class.
type Scope struct {
	Kind      Kind
	CompanyID string
	UserID    string
}

var policy = map[domain.Role]map[Entity]Kind{
	domain.RoleAdmin: {
		EntityUser:       KindAll,
		EntityCompany:    KindAll,
		EntityDepartment: KindAll,
		EntityEmployee:   KindAll,
	},
	domain.RoleManager: {
		EntityUser:       KindCompany,
		EntityCompany:    KindCompany,
		EntityDepartment: KindCompany,
		EntityEmployee:   KindCompany,
	},
	domain.RoleEmployee: {
		EntityUser:     KindSelf,
		EntityEmployee: KindSelf,
	},
}

var (
	// None is the empty scope.
	None = Scope{Kind: KindNone}
	// All is unrestricted. Services use it for internal reloads after a
	// scoped lookup has already succeeded.
	All = Scope{Kind: KindAll}
)

// For resolves the scope of p over entity. Unknown roles, missing
// principals and company-bound roles without a company get None.
func For(p *domain.Principal, entity Entity) Scope {
	if p == nil {
		return None
	}
	switch policy[p.Role][entity] {
	case KindAll:
		return All
	case KindCompany:
		if p.CompanyID == nil || *p.CompanyID == "" {
			return None
		}
		return Scope{Kind: KindCompany, CompanyID: *p.CompanyID}
	case KindSelf:
		if p.UserID == "" {
			return None
		}
		return Scope{Kind: KindSelf, UserID: p.UserID}
	default:
		return None
	}
}

// Empty reports whether the scope admits no records.
func (s Scope) Empty() bool {
	return s.Kind == KindNone
}

// Allows reports whether r falls inside the scope.
func (s Scope) Allows(r Record) bool {
	if r == nil {
		return false
	}
	switch s.Kind {
	case KindAll:
		return true
	case KindCompany:
		companyID := r.OwningCompanyID()
		return companyID != nil && *companyID != "" && *companyID == s.CompanyID
	case KindSelf:
		return s.UserID != "" && r.OwningUserID() == s.UserID
	default:
		return false
	}
}

// Key is a stable identifier for caching results per scope.
func (s Scope) Key() string {
	switch s.Kind {
	case KindCompany:
		return fmt.Sprintf("%s:%s", s.Kind, s.CompanyID)
	case KindSelf:
		return fmt.Sprintf("%s:%s", s.Kind, s.UserID)
	default:
		return s.Kind.String()
	}
}

// Filter returns the candidates s admits, preserving order.
func Filter[T Record](s Scope, candidates []T) []T {
	out := make([]T, 0, len(candidates))
	if s.Empty() {
		return out
	}
	for _, candidate := range candidates {
		if s.Allows(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}
