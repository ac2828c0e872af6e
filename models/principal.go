package models

// AccountType discriminates the two principal kinds. It travels in the
// account_type token claim.
type AccountType string

const (
	AccountTypeUser     AccountType = "user"
	AccountTypeEmployee AccountType = "employee"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeUser || t == AccountTypeEmployee
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Principal is the authenticated caller: either an *Account or an *Employee.
// The set of implementations is closed.
type Principal interface {
	PrincipalID() string
	PrincipalEmail() string
	PrincipalRole() Role
	Kind() AccountType
	IsAdmin() bool
	Version() int

	sealed()
}

var (
	_ Principal = (*Account)(nil)
	_ Principal = (*Employee)(nil)
)
