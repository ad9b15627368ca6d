// Package employees manages front-desk staff accounts.
package employees

import (
	"strings"
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Employee is a staff account.
type Employee struct {
	ID        string      `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Role      shared.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// FullName joins the name parts.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Profile holds the editable fields.
type Profile struct {
	FirstName string `json:"first_name" validate:"required,personname"`
	LastName  string `json:"last_name" validate:"required,personname"`
	Username  string `json:"username" validate:"required,alphanum,min=4,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phmobile"`
	Role      string `json:"role" validate:"required,oneof=admin front_desk"`
}

// CreateInput registers a new employee.
type CreateInput struct {
	Profile
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UpdateInput edits an employee. An empty password keeps the current one.
type UpdateInput struct {
	Profile
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (p *Profile) normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.ReplaceAll(p.Phone, " ", "")
	p.Role = strings.ToLower(strings.TrimSpace(p.Role))
}

func (p Profile) payload() map[string]any {
	return map[string]any{
		"employee_fname":      p.FirstName,
		"employee_lname":      p.LastName,
		"employee_username":   p.Username,
		"employee_email":      p.Email,
		"employee_phone":      p.Phone,
		"employee_user_level": backendLevel(shared.Role(p.Role)),
	}
}

type employeeRecord struct {
	ID        backend.ID   `json:"employee_id"`
	FirstName string       `json:"employee_fname"`
	LastName  string       `json:"employee_lname"`
	Username  string       `json:"employee_username"`
	Email     string       `json:"employee_email"`
	Phone     string       `json:"employee_phone"`
	Level     string       `json:"employee_user_level"`
	Status    backend.Bool `json:"employee_status"`
	CreatedAt backend.Time `json:"employee_created_at"`
}

func (r employeeRecord) employee() Employee {
	return Employee{
		ID:        r.ID.String(),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Email:     r.Email,
		Phone:     r.Phone,
		Role:      roleOf(r.Level),
		Active:    bool(r.Status),
		CreatedAt: r.CreatedAt.Time,
	}
}

// The backend spells levels "Admin" and "Front Desk".
func backendLevel(role shared.Role) string {
	if role == shared.RoleAdmin {
		return "Admin"
	}
	return "Front Desk"
}

func roleOf(level string) shared.Role {
	if strings.EqualFold(strings.TrimSpace(level), "admin") {
		return shared.RoleAdmin
	}
	return shared.RoleEmployee
}
