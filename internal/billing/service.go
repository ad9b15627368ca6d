package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Service wraps billing operations on the backend.
type Service struct {
	backend backend.Caller
	audit   shared.AuditSink
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(caller backend.Caller, audit shared.AuditSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: caller, audit: audit, logger: logger}
}

// ChargeCatalog lists chargeable items grouped by category.
func (s *Service) ChargeCatalog(ctx context.Context) ([]Category, error) {
	resp, err := s.backend.Call(ctx, backend.Admin, "getChargesMaster", nil)
	if err != nil {
		return nil, fmt.Errorf("charge catalog: %w", err)
	}
	var records []catalogRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("charge catalog: %w", err)
	}
	index := make(map[string]int)
	var categories []Category
	for _, r := range records {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			name = "Other"
		}
		i, ok := index[name]
		if !ok {
			i = len(categories)
			index[name] = i
			categories = append(categories, Category{Name: name})
		}
		categories[i].Items = append(categories[i].Items, CatalogItem{ID: r.ID.String(), Name: r.Name, Price: r.Price.Float64()})
	}
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// ListCharges returns the charges attached to a booking.
func (s *Service) ListCharges(ctx context.Context, bookingID string) ([]Charge, error) {
	if bookingID == "" {
		return nil, shared.Invalid("booking_id", "booking_id is required")
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "getBookingCharges", map[string]any{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	var records []chargeRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	charges := make([]Charge, 0, len(records))
	for _, r := range records {
		charges = append(charges, r.charge())
	}
	return charges, nil
}

// AddCharge attaches a charge and returns the refreshed list.
func (s *Service) AddCharge(ctx context.Context, actor string, input AddChargeInput) ([]Charge, error) {
	input.Category = strings.TrimSpace(input.Category)
	input.Name = strings.TrimSpace(input.Name)
	if err := shared.Validate(input); err != nil {
		return nil, err
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	payload := map[string]any{
		"booking_id":  input.BookingID,
		"category":    input.Category,
		"name":        input.Name,
		"unit_price":  Round2(input.UnitPrice),
		"quantity":    input.Quantity,
		"total":       Round2(input.UnitPrice * float64(input.Quantity)),
		"employee_id": actor,
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "addBookingCharge", payload)
	if err != nil {
		return nil, fmt.Errorf("add charge: %w", err)
	}
	if err := resp.Check(); err != nil {
		return nil, fmt.Errorf("add charge: %w", err)
	}
	s.record(ctx, actor, "charge.add", "booking", input.BookingID, map[string]any{"name": input.Name, "quantity": input.Quantity, "unit_price": input.UnitPrice})
	return s.ListCharges(ctx, input.BookingID)
}

// CustomerPayment assembles the bill of one of the customer's bookings.
// The balance never goes below zero here.
func (s *Service) CustomerPayment(ctx context.Context, customerID, bookingID string) (PaymentView, error) {
	return s.bill(ctx, backend.Customer, customerID, bookingID)
}

// BookingBill is the staff view of the same bill.
func (s *Service) BookingBill(ctx context.Context, bookingID string) (PaymentView, error) {
	return s.bill(ctx, backend.Admin, "", bookingID)
}

func (s *Service) bill(ctx context.Context, ep backend.Endpoint, customerID, bookingID string) (PaymentView, error) {
	if bookingID == "" {
		return PaymentView{}, shared.Invalid("booking_id", "booking_id is required")
	}
	payload := map[string]any{"booking_id": bookingID}
	if customerID != "" {
		payload["customer_id"] = customerID
	}
	resp, err := s.backend.Call(ctx, ep, "getBookingBilling", payload)
	if err != nil {
		return PaymentView{}, fmt.Errorf("booking bill: %w", err)
	}
	var record billingRecord
	if err := resp.DecodeObject(&record); err != nil {
		return PaymentView{}, fmt.Errorf("booking bill: %w", err)
	}
	return buildPaymentView(bookingID, record), nil
}

func buildPaymentView(bookingID string, record billingRecord) PaymentView {
	view := PaymentView{
		BookingID: bookingID,
		Reference: record.Booking.Reference,
		Status:    record.Booking.Status,
		Rooms:     ComputeFromBooking(record.Booking.totals()),
		Charges:   make([]Charge, 0, len(record.Charges)),
		Payments:  make([]Payment, 0, len(record.Payments)),
	}
	view.Rooms.Nights = Nights(record.Booking.CheckIn.Time, record.Booking.CheckOut.Time)
	for _, r := range record.Charges {
		c := r.charge()
		view.Charges = append(view.Charges, c)
		view.ChargesTotal += c.Total
	}
	paid := view.Rooms.Downpayment
	for _, r := range record.Payments {
		p := r.payment()
		view.Payments = append(view.Payments, p)
		paid += p.Amount
	}
	view.AmountDue = Round2(view.Rooms.GrandTotal + view.ChargesTotal)
	view.AmountPaid = Round2(paid)
	view.Balance = Round2(math.Max(0, view.AmountDue-view.AmountPaid))
	view.Display.AmountDue = format.Currency(view.AmountDue)
	view.Display.AmountPaid = format.Currency(view.AmountPaid)
	view.Display.Balance = format.Currency(view.Balance)
	return view
}

// RecordPayment posts a payment to transactions.php.
func (s *Service) RecordPayment(ctx context.Context, actor string, input PaymentInput) error {
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	if err := shared.Validate(input); err != nil {
		return err
	}
	resp, err := s.backend.Call(ctx, backend.Transactions, "recordPayment", map[string]any{
		"booking_id":     input.BookingID,
		"amount":         Round2(input.Amount),
		"payment_method": input.Method,
		"reference_no":   input.Reference,
		"recorded_by":    actor,
	})
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	if err := resp.Check(); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	s.record(ctx, actor, "payment.record", "booking", input.BookingID, map[string]any{"amount": input.Amount, "method": input.Method})
	return nil
}

// CreateInvoice asks the backend to issue an invoice for a booking.
func (s *Service) CreateInvoice(ctx context.Context, actor, bookingID string) (Invoice, error) {
	if bookingID == "" {
		return Invoice{}, shared.Invalid("booking_id", "booking_id is required")
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "createInvoice", map[string]any{
		"booking_id":  bookingID,
		"employee_id": actor,
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	if err := resp.Check(); err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	var created struct {
		InvoiceID backend.ID `json:"invoice_id"`
	}
	if err := resp.DecodeObject(&created); err != nil || created.InvoiceID == "" {
		// Scripts that answer a bare 1 leave us to look the invoice up by booking.
		created.InvoiceID, err = s.invoiceIDForBooking(ctx, bookingID)
		if err != nil {
			return Invoice{}, fmt.Errorf("create invoice: %w", err)
		}
	}
	s.record(ctx, actor, "invoice.create", "booking", bookingID, map[string]any{"invoice_id": created.InvoiceID.String()})
	return s.GetInvoice(ctx, created.InvoiceID.String())
}

func (s *Service) invoiceIDForBooking(ctx context.Context, bookingID string) (backend.ID, error) {
	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		return "", err
	}
	for i := len(invoices) - 1; i >= 0; i-- {
		if invoices[i].BookingID == bookingID {
			return backend.ID(invoices[i].ID), nil
		}
	}
	return "", fmt.Errorf("invoice for booking %s: %w", bookingID, shared.ErrNotFound)
}

// GetInvoice returns the backend breakdown of one invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	if id == "" {
		return Invoice{}, shared.Invalid("id", "invoice id is required")
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "getInvoiceDetails", map[string]any{"invoice_id": id})
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	var record invoiceRecord
	if err := resp.DecodeObject(&record); err != nil {
		return Invoice{}, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return record.invoice(), nil
}

// ListInvoices returns every invoice, oldest first as the backend sends them.
func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	resp, err := s.backend.Call(ctx, backend.Admin, "getInvoices", nil)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var records []invoiceRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	invoices := make([]Invoice, 0, len(records))
	for _, r := range records {
		invoices = append(invoices, r.invoice())
	}
	return invoices, nil
}

// InvoicePDF renders one invoice as a PDF document.
func (s *Service) InvoicePDF(ctx context.Context, id string) ([]byte, Invoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, Invoice{}, err
	}
	pdf, err := RenderInvoicePDF(inv)
	if err != nil {
		return nil, Invoice{}, fmt.Errorf("render invoice %s: %w", id, err)
	}
	return pdf, inv, nil
}

func (s *Service) record(ctx context.Context, actor, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor, Action: action, Entity: entity, EntityID: entityID, Meta: meta}); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}
