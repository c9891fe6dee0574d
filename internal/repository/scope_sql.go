package repository

import (
	"fmt"

	"github.com/spec-kit/employee-service/internal/visibility"
)

// scopeColumns names the columns a scope is matched against. userCol is
// empty for entities that have no owning user.
type scopeColumns struct {
	companyCol string
	userCol    string
}

var (
	userScopeColumns       = scopeColumns{companyCol: "u.company_id", userCol: "u.id"}
	companyScopeColumns    = scopeColumns{companyCol: "c.id"}
	departmentScopeColumns = scopeColumns{companyCol: "d.company_id"}
	employeeScopeColumns   = scopeColumns{companyCol: "e.company_id", userCol: "e.user_id"}
)

// scopeClause renders scope as a SQL predicate, appending its arguments.
func scopeClause(scope visibility.Scope, cols scopeColumns, args []any) (string, []any) {
	switch scope.Kind {
	case visibility.KindAll:
		return "TRUE", args
	case visibility.KindCompany:
		if scope.CompanyID == "" {
			return "FALSE", args
		}
		args = append(args, scope.CompanyID)
		return fmt.Sprintf("%s=$%d", cols.companyCol, len(args)), args
	case visibility.KindSelf:
		if cols.userCol == "" || scope.UserID == "" {
			return "FALSE", args
		}
		args = append(args, scope.UserID)
		return fmt.Sprintf("%s=$%d", cols.userCol, len(args)), args
	default:
		return "FALSE", args
	}
}
