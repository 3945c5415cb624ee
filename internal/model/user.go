package model

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHR      Role = "HR"
	RoleNewHire Role = "NEW_HIRE"
)

// User is implemented only by *HrUser and *Hire.
type User interface {
	UserID() uuid.UUID
	Role() Role
	DisplayName() string
	isUser()
}

// Identity holds the fields every user variant shares.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CompanyID *int      `json:"company_id,omitempty"`
}

func (i Identity) UserID() uuid.UUID { return i.ID }

func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

type HrUser struct {
	Identity
	Position     string `json:"position"`
	DepartmentID *int   `json:"department_id,omitempty"`
}

func (*HrUser) Role() Role { return RoleHR }
func (*HrUser) isUser()    {}

type Hire struct {
	Identity
	Title          string    `json:"title"`
	RegisteredByHR uuid.UUID `json:"registered_by_hr"`
	DepartmentID   *int      `json:"department_id,omitempty"`
}

func (*Hire) Role() Role { return RoleNewHire }
func (*Hire) isUser()    {}
