package auth

import (
	"strings"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Session keys written at login.
const (
	sessionName      = "display_name"
	sessionTwoFactor = "two_factor"
)

// Credentials is the login form. Role picks the portal: staff roles sign in
// through the admin endpoint, customers through the customer endpoint.
type Credentials struct {
	Role     string `json:"role" validate:"required,oneof=admin front_desk customer"`
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (c Credentials) staff() bool {
	return shared.Role(c.Role).Staff()
}

// Identity is the signed-in user.
type Identity struct {
	UserID      string      `json:"user_id"`
	Role        shared.Role `json:"role"`
	Name        string      `json:"name"`
	TwoFactor   bool        `json:"two_factor"`
	Permissions []string    `json:"permissions"`
}

type loginRecord struct {
	EmployeeID backend.ID   `json:"employee_id"`
	AdminID    backend.ID   `json:"admin_id"`
	CustomerID backend.ID   `json:"customers_id"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	EmpFirst   string       `json:"employee_fname"`
	EmpLast    string       `json:"employee_lname"`
	CustFirst  string       `json:"customers_fname"`
	CustLast   string       `json:"customers_lname"`
	Level      string       `json:"employee_user_level"`
	TwoFactor  backend.Bool `json:"two_factor_enabled"`
}

type loginEnvelope struct {
	User *loginRecord `json:"user"`
}

func (r loginRecord) id() string {
	for _, id := range []backend.ID{r.EmployeeID, r.AdminID, r.CustomerID} {
		if s := id.String(); s != "" && s != "0" {
			return s
		}
	}
	return ""
}

func (r loginRecord) name() string {
	for _, pair := range [][2]string{{r.FirstName, r.LastName}, {r.EmpFirst, r.EmpLast}, {r.CustFirst, r.CustLast}} {
		if n := strings.TrimSpace(pair[0] + " " + pair[1]); n != "" {
			return n
		}
	}
	return ""
}

// staffRole maps the backend level to a role. Admin accounts carry an
// admin_id or the "Admin" level.
func (r loginRecord) staffRole() shared.Role {
	if strings.EqualFold(strings.TrimSpace(r.Level), "admin") || (r.AdminID.String() != "" && r.AdminID.String() != "0") {
		return shared.RoleAdmin
	}
	return shared.RoleEmployee
}
