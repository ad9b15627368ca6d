package billing

import (
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
)

// Charge is an extra billed to a booking (minibar, laundry, damages).
type Charge struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Total     float64   `json:"total"`
	AddedAt   time.Time `json:"added_at,omitempty"`
}

// CatalogItem is a predefined chargeable item.
type CatalogItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Category groups catalog items.
type Category struct {
	Name  string        `json:"name"`
	Items []CatalogItem `json:"items"`
}

// AddChargeInput is the payload for attaching a charge.
type AddChargeInput struct {
	BookingID string  `json:"booking_id" validate:"required"`
	Category  string  `json:"category" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gt=0"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
}

// Payment is a recorded settlement against a booking.
type Payment struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	PaidAt    time.Time `json:"paid_at,omitempty"`
}

// PaymentInput records a payment.
type PaymentInput struct {
	BookingID string  `json:"booking_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Method    string  `json:"method" validate:"required,oneof=cash gcash card bank_transfer"`
	Reference string  `json:"reference" validate:"max=64"`
}

// PaymentView is the customer's bill for one booking.
type PaymentView struct {
	BookingID    string    `json:"booking_id"`
	Reference    string    `json:"reference"`
	Status       string    `json:"status"`
	Rooms        Summary   `json:"rooms"`
	Charges      []Charge  `json:"charges"`
	ChargesTotal float64   `json:"charges_total"`
	Payments     []Payment `json:"payments"`
	AmountDue    float64   `json:"amount_due"`
	AmountPaid   float64   `json:"amount_paid"`
	Balance      float64   `json:"balance"`
	Display      struct {
		AmountDue  string `json:"amount_due"`
		AmountPaid string `json:"amount_paid"`
		Balance    string `json:"balance"`
	} `json:"display"`
}

// InvoiceLine is one row of an invoice breakdown.
type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Invoice is the backend-computed invoice for a booking.
type Invoice struct {
	ID              string        `json:"id"`
	Number          string        `json:"number"`
	BookingID       string        `json:"booking_id"`
	GuestName       string        `json:"guest_name"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        time.Time     `json:"check_out"`
	Lines           []InvoiceLine `json:"lines"`
	RoomSubtotal    float64       `json:"room_subtotal"`
	ChargesSubtotal float64       `json:"charges_subtotal"`
	VAT             float64       `json:"vat"`
	GrandTotal      float64       `json:"grand_total"`
	AmountPaid      float64       `json:"amount_paid"`
	Balance         float64       `json:"balance"`
	IssuedAt        time.Time     `json:"issued_at"`
}

// Nights is the length of the invoiced stay.
func (inv Invoice) Nights() int { return Nights(inv.CheckIn, inv.CheckOut) }

// wire records as the PHP scripts send them

type chargeRecord struct {
	ID        backend.ID     `json:"charge_id"`
	BookingID backend.ID     `json:"booking_id"`
	Category  string         `json:"charges_category_name"`
	Name      string         `json:"charges_master_name"`
	UnitPrice backend.Number `json:"charges_price"`
	Quantity  backend.Int    `json:"charges_quantity"`
	Total     backend.Number `json:"total"`
	AddedAt   backend.Time   `json:"created_at"`
}

func (r chargeRecord) charge() Charge {
	qty := int(r.Quantity)
	if qty <= 0 {
		qty = 1
	}
	total := r.Total.Float64()
	if total == 0 {
		total = r.UnitPrice.Float64() * float64(qty)
	}
	return Charge{
		ID:        r.ID.String(),
		BookingID: r.BookingID.String(),
		Category:  r.Category,
		Name:      r.Name,
		UnitPrice: r.UnitPrice.Float64(),
		Quantity:  qty,
		Total:     total,
		AddedAt:   r.AddedAt.Time,
	}
}

type catalogRecord struct {
	ID       backend.ID     `json:"charges_master_id"`
	Category string         `json:"charges_category_name"`
	Name     string         `json:"charges_master_name"`
	Price    backend.Number `json:"charges_master_price"`
}

type paymentRecord struct {
	ID        backend.ID     `json:"payment_id"`
	BookingID backend.ID     `json:"booking_id"`
	Amount    backend.Number `json:"amount"`
	Method    string         `json:"payment_method"`
	Reference string         `json:"reference_no"`
	PaidAt    backend.Time   `json:"paid_at"`
}

func (r paymentRecord) payment() Payment {
	return Payment{
		ID:        r.ID.String(),
		BookingID: r.BookingID.String(),
		Amount:    r.Amount.Float64(),
		Method:    r.Method,
		Reference: r.Reference,
		PaidAt:    r.PaidAt.Time,
	}
}

type totalsRecord struct {
	ID          backend.ID      `json:"booking_id"`
	Reference   string          `json:"reference_no"`
	Status      string          `json:"booking_status"`
	CheckIn     backend.Time    `json:"booking_checkin_dateandtime"`
	CheckOut    backend.Time    `json:"booking_checkout_dateandtime"`
	TotalAmount backend.Number  `json:"booking_total_amount"`
	VAT         backend.Number  `json:"booking_vat"`
	Downpayment backend.Number  `json:"booking_downpayment"`
	Balance     *backend.Number `json:"booking_balance"`
}

func (r totalsRecord) totals() BookingTotals {
	t := BookingTotals{
		TotalAmount: r.TotalAmount.Float64(),
		VAT:         r.VAT.Float64(),
		Downpayment: r.Downpayment.Float64(),
	}
	if r.Balance != nil {
		b := r.Balance.Float64()
		t.Balance = &b
	}
	return t
}

type billingRecord struct {
	Booking  totalsRecord    `json:"booking"`
	Charges  []chargeRecord  `json:"charges"`
	Payments []paymentRecord `json:"payments"`
}

type invoiceLineRecord struct {
	Description string         `json:"description"`
	Quantity    backend.Int    `json:"quantity"`
	UnitPrice   backend.Number `json:"unit_price"`
	Total       backend.Number `json:"total"`
}

type invoiceRecord struct {
	ID              backend.ID          `json:"invoice_id"`
	Number          string              `json:"invoice_number"`
	BookingID       backend.ID          `json:"booking_id"`
	GuestName       string              `json:"guest_name"`
	CheckIn         backend.Time        `json:"check_in"`
	CheckOut        backend.Time        `json:"check_out"`
	Lines           []invoiceLineRecord `json:"lines"`
	RoomSubtotal    backend.Number      `json:"room_subtotal"`
	ChargesSubtotal backend.Number      `json:"charges_subtotal"`
	VAT             backend.Number      `json:"vat"`
	GrandTotal      backend.Number      `json:"invoice_total_amount"`
	AmountPaid      backend.Number      `json:"amount_paid"`
	Balance         backend.Number      `json:"balance"`
	IssuedAt        backend.Time        `json:"invoice_date"`
}

func (r invoiceRecord) invoice() Invoice {
	inv := Invoice{
		ID:              r.ID.String(),
		Number:          r.Number,
		BookingID:       r.BookingID.String(),
		GuestName:       r.GuestName,
		CheckIn:         r.CheckIn.Time,
		CheckOut:        r.CheckOut.Time,
		RoomSubtotal:    r.RoomSubtotal.Float64(),
		ChargesSubtotal: r.ChargesSubtotal.Float64(),
		VAT:             r.VAT.Float64(),
		GrandTotal:      r.GrandTotal.Float64(),
		AmountPaid:      r.AmountPaid.Float64(),
		Balance:         r.Balance.Float64(),
		IssuedAt:        r.IssuedAt.Time,
	}
	if inv.Number == "" {
		inv.Number = "INV-" + inv.ID
	}
	for _, l := range r.Lines {
		qty := int(l.Quantity)
		if qty <= 0 {
			qty = 1
		}
		total := l.Total.Float64()
		if total == 0 {
			total = l.UnitPrice.Float64() * float64(qty)
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: l.Description,
			Quantity:    qty,
			UnitPrice:   l.UnitPrice.Float64(),
			Total:       total,
		})
	}
	return inv
}
