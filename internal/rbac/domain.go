package rbac

import "github.com/hotelia/frontdesk/internal/shared"

// Permissions checked by route groups.
const (
	PermDashboardView   = "dashboard.view"
	PermBookingsView    = "bookings.view"
	PermBookingsManage  = "bookings.manage"
	PermApprovalsManage = "approvals.manage"
	PermBillingView     = "billing.view"
	PermBillingManage   = "billing.manage"
	PermInvoicesManage  = "invoices.manage"
	PermEmployeesManage = "employees.manage"
	PermRoomsView       = "rooms.view"
	PermSelfService     = "customer.self"
)

var frontDesk = []string{
	PermDashboardView,
	PermBookingsView,
	PermBookingsManage,
	PermApprovalsManage,
	PermBillingView,
	PermBillingManage,
	PermInvoicesManage,
	PermRoomsView,
}

var grants = map[shared.Role][]string{
	shared.RoleAdmin:    append(append([]string{}, frontDesk...), PermEmployeesManage),
	shared.RoleEmployee: frontDesk,
	shared.RoleCustomer: {PermSelfService, PermRoomsView},
}

// PermissionsFor returns the permissions granted to role.
func PermissionsFor(role shared.Role) []string {
	return grants[role]
}
