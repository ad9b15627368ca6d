package backend

// Endpoint names a PHP script and the form field that carries the action.
type Endpoint struct {
	Script      string
	ActionField string
}

var (
	// Admin serves staff operations.
	Admin = Endpoint{Script: "admin.php", ActionField: "method"}
	// Customer serves the customer portal.
	Customer = Endpoint{Script: "customer.php", ActionField: "operation"}
	// Transactions records payments.
	Transactions = Endpoint{Script: "transactions.php", ActionField: "operation"}
)

func (e Endpoint) String() string { return e.Script }
