package memory

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"onboarding/internal/model"
)

// Seed lists the users and departments a memory store starts with.
// Accounts are owned elsewhere, so a memory store has no other way to learn them.
type Seed struct {
	Departments []seedDepartment `yaml:"departments"`
	HrUsers     []seedHR         `yaml:"hr_users"`
	Hires       []seedHire       `yaml:"hires"`
}

type seedDepartment struct {
	ID        int    `yaml:"id"`
	CompanyID int    `yaml:"company_id"`
	Name      string `yaml:"name"`
}

type seedIdentity struct {
	ID        uuid.UUID `yaml:"id"`
	Email     string    `yaml:"email"`
	FirstName string    `yaml:"first_name"`
	LastName  string    `yaml:"last_name"`
	CompanyID *int      `yaml:"company_id"`
}

type seedHR struct {
	seedIdentity `yaml:",inline"`
	Position     string `yaml:"position"`
	DepartmentID *int   `yaml:"department_id"`
}

type seedHire struct {
	seedIdentity   `yaml:",inline"`
	Title          string    `yaml:"title"`
	RegisteredByHR uuid.UUID `yaml:"registered_by_hr"`
	DepartmentID   *int      `yaml:"department_id"`
}

func (i seedIdentity) identity() model.Identity {
	return model.Identity{ID: i.ID, Email: i.Email, FirstName: i.FirstName, LastName: i.LastName, CompanyID: i.CompanyID}
}

// LoadSeedFile reads a YAML seed from path.
func LoadSeedFile(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &seed, nil
}

// Apply adds every seeded record to s. Users must have an id.
func (seed *Seed) Apply(s *Store) error {
	for _, d := range seed.Departments {
		s.AddDepartment(model.Department{ID: d.ID, CompanyID: d.CompanyID, Name: d.Name})
	}
	for _, u := range seed.HrUsers {
		if u.ID == uuid.Nil {
			return fmt.Errorf("hr user %q has no id", u.Email)
		}
		s.AddUser(&model.HrUser{Identity: u.identity(), Position: u.Position, DepartmentID: u.DepartmentID})
	}
	for _, h := range seed.Hires {
		if h.ID == uuid.Nil {
			return fmt.Errorf("hire %q has no id", h.Email)
		}
		s.AddUser(&model.Hire{Identity: h.identity(), Title: h.Title, RegisteredByHR: h.RegisteredByHR, DepartmentID: h.DepartmentID})
	}
	return nil
}
