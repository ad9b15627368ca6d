package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/backend/backendtest"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/shared"
	_ "github.com/hotelia/frontdesk/testing"
)

type auditSpy struct {
	logs []shared.AuditLog
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestCustomerPaymentClampsBalance(t *testing.T) {
	fake := backendtest.New().On("getBookingBilling", `{
		"booking": {"booking_id": 12, "reference_no": "REF-12", "booking_status": "Checked-In",
			"booking_checkin_dateandtime": "2025-07-01 14:00:00", "booking_checkout_dateandtime": "2025-07-03 12:00:00",
			"booking_total_amount": "11200", "booking_vat": "1200", "booking_downpayment": "5600", "booking_balance": "5600"},
		"charges": [{"charge_id": 1, "charges_master_name": "Minibar", "charges_category_name": "Food", "charges_price": "250", "charges_quantity": null}],
		"payments": [{"payment_id": 3, "amount": "6000", "payment_method": "cash"}]
	}`)
	svc := billing.NewService(fake, nil, nil)

	view, err := svc.CustomerPayment(context.Background(), "44", "12")
	require.NoError(t, err)
	assert.Equal(t, billing.SourceBooking, view.Rooms.Source)
	assert.Equal(t, 2, view.Rooms.Nights)
	assert.InDelta(t, 10000, view.Rooms.Subtotal, 1e-6)
	require.Len(t, view.Charges, 1)
	assert.Equal(t, 1, view.Charges[0].Quantity)
	assert.InDelta(t, 250, view.ChargesTotal, 1e-6)
	assert.InDelta(t, 11450, view.AmountDue, 1e-6)
	assert.InDelta(t, 11600, view.AmountPaid, 1e-6)
	assert.Zero(t, view.Balance)
	assert.Equal(t, "₱0.00", view.Display.Balance)

	var payload map[string]string
	require.NoError(t, fake.Calls("getBookingBilling")[0].Decode(&payload))
	assert.Equal(t, "44", payload["customer_id"])
	assert.Equal(t, backend.Customer, fake.Calls("getBookingBilling")[0].Endpoint)
}

func TestAddChargeDefaultsQuantity(t *testing.T) {
	fake := backendtest.New().
		On("addBookingCharge", `1`).
		On("getBookingCharges", `[{"charge_id":"9","booking_id":"12","charges_master_name":"Extra bed","charges_price":"800","charges_quantity":"1"}]`)
	audit := &auditSpy{}
	svc := billing.NewService(fake, audit, nil)

	charges, err := svc.AddCharge(context.Background(), "3", billing.AddChargeInput{BookingID: "12", Category: "Room", Name: "Extra bed", UnitPrice: 800})
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.InDelta(t, 800, charges[0].Total, 1e-6)

	var sent struct {
		Quantity int     `json:"quantity"`
		Total    float64 `json:"total"`
	}
	require.NoError(t, fake.Calls("addBookingCharge")[0].Decode(&sent))
	assert.Equal(t, 1, sent.Quantity)
	assert.InDelta(t, 800, sent.Total, 1e-6)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "charge.add", audit.logs[0].Action)
}

func TestAddChargeValidation(t *testing.T) {
	fake := backendtest.New()
	svc := billing.NewService(fake, nil, nil)

	_, err := svc.AddCharge(context.Background(), "3", billing.AddChargeInput{BookingID: "12", Category: "Room", Name: " ", UnitPrice: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "unit_price")
	assert.Empty(t, fake.Calls(""))
}

func TestAddChargeRejected(t *testing.T) {
	fake := backendtest.New().On("addBookingCharge", `{"success":false,"message":"Booking already checked out"}`)
	svc := billing.NewService(fake, nil, nil)

	_, err := svc.AddCharge(context.Background(), "3", billing.AddChargeInput{BookingID: "12", Category: "Room", Name: "Towel", UnitPrice: 100, Quantity: 2})
	require.ErrorIs(t, err, shared.ErrRejected)
	assert.Equal(t, "Booking already checked out", shared.UserSafeMessage(err))
}

func TestRecordPayment(t *testing.T) {
	fake := backendtest.New().On("recordPayment", `{"status":"success"}`)
	svc := billing.NewService(fake, nil, nil)

	require.ErrorIs(t, svc.RecordPayment(context.Background(), "3", billing.PaymentInput{BookingID: "12", Amount: 0, Method: "cash"}), shared.ErrValidation)
	require.ErrorIs(t, svc.RecordPayment(context.Background(), "3", billing.PaymentInput{BookingID: "12", Amount: 10, Method: "barter"}), shared.ErrValidation)

	require.NoError(t, svc.RecordPayment(context.Background(), "3", billing.PaymentInput{BookingID: "12", Amount: 1500.257, Method: "GCash"}))
	call := fake.Calls("recordPayment")[0]
	assert.Equal(t, backend.Transactions, call.Endpoint)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(call.Payload, &sent))
	assert.Equal(t, "gcash", sent["payment_method"])
	assert.InDelta(t, 1500.26, sent["amount"], 1e-9)
}

func TestChargeCatalogGroupsByCategory(t *testing.T) {
	fake := backendtest.New().On("getChargesMaster", `{"status":"success","data":[
		{"charges_master_id":1,"charges_category_name":"Room","charges_master_name":"Extra bed","charges_master_price":"800"},
		{"charges_master_id":2,"charges_category_name":"Food","charges_master_name":"Breakfast","charges_master_price":"350"},
		{"charges_master_id":3,"charges_category_name":"Room","charges_master_name":"Extra pillow","charges_master_price":"100"}]}`)
	svc := billing.NewService(fake, nil, nil)

	categories, err := svc.ChargeCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Food", categories[0].Name)
	assert.Equal(t, "Room", categories[1].Name)
	assert.Len(t, categories[1].Items, 2)
}

func TestCreateInvoiceAndPDF(t *testing.T) {
	invoice := `{"invoice_id":"5","invoice_number":"INV-0005","booking_id":"12","guest_name":"Juan Dela Cruz",
		"check_in":"2025-07-01","check_out":"2025-07-03",
		"lines":[{"description":"Deluxe room x 2 nights","quantity":1,"unit_price":"4000","total":"4000"},{"description":"Minibar","quantity":"2","unit_price":"125"}],
		"room_subtotal":"4000","charges_subtotal":"250","vat":"510","invoice_total_amount":"4760","amount_paid":"2380","balance":"2380",
		"invoice_date":"2025-07-03 12:05:00"}`
	fake := backendtest.New().
		On("createInvoice", `1`).
		On("getInvoices", `[{"invoice_id":"4","booking_id":"11"},{"invoice_id":"5","booking_id":"12"}]`).
		On("getInvoiceDetails", invoice)
	svc := billing.NewService(fake, nil, nil)

	inv, err := svc.CreateInvoice(context.Background(), "3", "12")
	require.NoError(t, err)
	assert.Equal(t, "INV-0005", inv.Number)
	assert.Equal(t, 2, inv.Nights())
	require.Len(t, inv.Lines, 2)
	assert.InDelta(t, 250, inv.Lines[1].Total, 1e-6)

	var lookup map[string]string
	require.NoError(t, fake.Calls("getInvoiceDetails")[0].Decode(&lookup))
	assert.Equal(t, "5", lookup["invoice_id"])

	pdf, _, err := svc.InvoicePDF(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestGetInvoiceNotFound(t *testing.T) {
	fake := backendtest.New().On("getInvoiceDetails", `[]`)
	svc := billing.NewService(fake, nil, nil)

	_, err := svc.GetInvoice(context.Background(), "99")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
