package domain

// Principal is the authenticated caller as seen by services.
type Principal struct {
	UserID    string
	Username  string
	Role      Role
	CompanyID *string
}

// PrincipalFromUser builds a principal from a persisted user.
func PrincipalFromUser(user *User) *Principal {
	if user == nil {
		return nil
	}
	p := &Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if user.CompanyID != nil {
		companyID := *user.CompanyID
		p.CompanyID = &companyID
	}
	return p
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
