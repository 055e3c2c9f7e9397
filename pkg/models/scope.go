package models

import (
	"fmt"
	"strings"
)

// Role identifies the caller audience. It arrives as an argument on every
// pipeline entry point; there is no ambient "current user".
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleBusiness:
		return RoleBusiness, nil
	}
	return "", fmt.Errorf("invalid role %q", raw)
}

// AccessScope is the row-visibility boundary for one request. A customer
// scope admits only rows belonging to SubjectID; a business scope admits
// all rows. The predicate is applied structurally inside the execution
// engine, never as an instruction to the planner.
type AccessScope struct {
	Role      Role
	SubjectID string // customer id when Role == RoleCustomer, empty otherwise
}

// Business reports whether the scope admits all rows.
func (s AccessScope) Business() bool {
	return s.Role == RoleBusiness
}

// AdmitsCustomer reports whether rows owned by the given customer id are
// visible under this scope.
func (s AccessScope) AdmitsCustomer(customerID string) bool {
	if s.Business() {
		return true
	}
	return customerID != "" && customerID == s.SubjectID
}
