package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role names the three kinds of account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Account holds the fields every identity shares.
type Account struct {
	ID    string
	Email string
	Name  string
}

// Identity is the authenticated subject. Exactly one of Admin, Agent or Customer.
type Identity interface {
	Account() Account
	Role() Role
	sealed()
}

// Admin may act on every ticket.
type Admin struct {
	User Account
}

// Agent works tickets of the departments it belongs to.
type Agent struct {
	User          Account
	DepartmentIDs []string
}

// Customer owns tickets opened on behalf of its company.
type Customer struct {
	User      Account
	CompanyID string
}

func (a Admin) Account() Account    { return a.User }
func (a Agent) Account() Account    { return a.User }
func (c Customer) Account() Account { return c.User }

func (Admin) Role() Role    { return RoleAdmin }
func (Agent) Role() Role    { return RoleAgent }
func (Customer) Role() Role { return RoleCustomer }

func (Admin) sealed()    {}
func (Agent) sealed()    {}
func (Customer) sealed() {}

// InDepartment reports whether the agent belongs to departmentID.
func (a Agent) InDepartment(departmentID string) bool {
	return slices.Contains(a.DepartmentIDs, departmentID)
}

// NewIdentity builds the variant for role, enforcing the fields that role requires.
func NewIdentity(role Role, account Account, companyID string, departmentIDs []string) (Identity, error) {
	if strings.TrimSpace(account.ID) == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrInvalidIdentity)
	}
	switch role {
	case RoleAdmin:
		return Admin{User: account}, nil
	case RoleAgent:
		depts := make([]string, 0, len(departmentIDs))
		depts = append(depts, departmentIDs...)
		return Agent{User: account, DepartmentIDs: depts}, nil
	case RoleCustomer:
		if companyID == "" {
			return nil, fmt.Errorf("%w: customer %s has no company", ErrInvalidIdentity, account.ID)
		}
		return Customer{User: account, CompanyID: companyID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, role)
	}
}

// Affiliation returns the company and department references carried by id.
func Affiliation(id Identity) (companyID string, departmentIDs []string) {
	switch v := id.(type) {
	case Customer:
		return v.CompanyID, nil
	case Agent:
		return "", v.DepartmentIDs
	default:
		return "", nil
	}
}

// IsStaff reports whether id is an agent or an admin.
func IsStaff(id Identity) bool {
	switch id.(type) {
	case Admin, Agent:
		return true
	default:
		return false
	}
}

// Credential is a stored user record: identity plus password hash.
type Credential struct {
	Identity     Identity
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Company is the collaborator record tickets keep a snapshot of.
type Company struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
