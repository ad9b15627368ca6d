// Package billing derives booking totals and serves charges, payments and
// invoices.
package billing

import (
	"math"
	"time"

	"github.com/hotelia/frontdesk/internal/format"
)

const (
	// VATRate is applied to the room subtotal.
	VATRate = 0.12
	// DownpaymentRate is the share of the grand total due upfront.
	DownpaymentRate = 0.5
)

// Source tells which basis produced a Summary.
type Source string

const (
	SourceSelection Source = "selection"
	SourceBooking   Source = "booking"
)

// RoomLine is one priced room in a selection. Quantity 0 counts as 1.
type RoomLine struct {
	RoomID    string  `json:"room_id"`
	Label     string  `json:"label"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity,omitempty"`
}

// Line is a RoomLine priced for a stay.
type Line struct {
	RoomLine
	Nights int     `json:"nights"`
	Total  float64 `json:"total"`
}

// BookingTotals are the amounts persisted by the backend on a booking.
// Balance is nil when the backend did not send it.
type BookingTotals struct {
	TotalAmount float64
	VAT         float64
	Downpayment float64
	Balance     *float64
}

// Summary is the derived money tuple for a stay.
type Summary struct {
	Source      Source  `json:"source"`
	Nights      int     `json:"nights"`
	Lines       []Line  `json:"lines,omitempty"`
	Subtotal    float64 `json:"subtotal"`
	VAT         float64 `json:"vat"`
	GrandTotal  float64 `json:"grand_total"`
	Downpayment float64 `json:"downpayment"`
	Balance     float64 `json:"balance"`
}

// Nights counts the nights between two dates. Both ends are reduced to their
// Manila calendar date first; a reversed range yields 0.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	in := format.CalendarDate(checkIn)
	out := format.CalendarDate(checkOut)
	n := int(math.Round(out.Sub(in).Hours() / 24))
	if n < 0 {
		return 0
	}
	return n
}

// ComputeSelection prices rooms for the given number of nights.
func ComputeSelection(rooms []RoomLine, nights int) Summary {
	if nights < 0 {
		nights = 0
	}
	s := Summary{Source: SourceSelection, Nights: nights, Lines: make([]Line, 0, len(rooms))}
	for _, room := range rooms {
		qty := room.Quantity
		if qty <= 0 {
			qty = 1
		}
		room.Quantity = qty
		total := float64(nights) * room.UnitPrice * float64(qty)
		s.Lines = append(s.Lines, Line{RoomLine: room, Nights: nights, Total: total})
		s.Subtotal += total
	}
	s.VAT = s.Subtotal * VATRate
	s.GrandTotal = s.Subtotal + s.VAT
	s.Downpayment = s.GrandTotal * DownpaymentRate
	s.Balance = s.GrandTotal - s.Downpayment
	return s
}

// ComputeFromBooking mirrors the backend totals. The subtotal is implied as
// total minus VAT; a missing balance is total minus downpayment.
func ComputeFromBooking(t BookingTotals) Summary {
	s := Summary{
		Source:      SourceBooking,
		Subtotal:    t.TotalAmount - t.VAT,
		VAT:         t.VAT,
		GrandTotal:  t.TotalAmount,
		Downpayment: t.Downpayment,
	}
	if t.Balance != nil {
		s.Balance = *t.Balance
	} else {
		s.Balance = t.TotalAmount - t.Downpayment
	}
	return s
}

// Compute prices the selection when it has rooms, otherwise falls back to
// the booking's persisted totals.
func Compute(rooms []RoomLine, nights int, fallback BookingTotals) Summary {
	if len(rooms) > 0 {
		return ComputeSelection(rooms, nights)
	}
	s := ComputeFromBooking(fallback)
	if nights > 0 {
		s.Nights = nights
	}
	return s
}

// ClampedBalance never goes below zero.
func (s Summary) ClampedBalance() float64 {
	return math.Max(0, s.Balance)
}

// Rounded returns a copy with every amount rounded to centavos, for
// submission payloads.
func (s Summary) Rounded() Summary {
	out := s
	out.Lines = make([]Line, len(s.Lines))
	for i, l := range s.Lines {
		l.UnitPrice = Round2(l.UnitPrice)
		l.Total = Round2(l.Total)
		out.Lines[i] = l
	}
	if s.Lines == nil {
		out.Lines = nil
	}
	out.Subtotal = Round2(s.Subtotal)
	out.VAT = Round2(s.VAT)
	out.GrandTotal = Round2(s.GrandTotal)
	out.Downpayment = Round2(s.Downpayment)
	out.Balance = Round2(s.Balance)
	if s.Source == SourceSelection {
		// Keep downpayment + balance equal to the rounded grand total.
		out.Balance = Round2(out.GrandTotal - out.Downpayment)
	}
	return out
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Display is a Summary rendered for the UI.
type Display struct {
	Subtotal    string `json:"subtotal"`
	VAT         string `json:"vat"`
	VATRate     string `json:"vat_rate"`
	GrandTotal  string `json:"grand_total"`
	Downpayment string `json:"downpayment"`
	Balance     string `json:"balance"`
}

// Display formats the summary amounts as pesos.
func (s Summary) Display() Display {
	return Display{
		Subtotal:    format.Currency(s.Subtotal),
		VAT:         format.Currency(s.VAT),
		VATRate:     format.Percent(VATRate),
		GrandTotal:  format.Currency(s.GrandTotal),
		Downpayment: format.Currency(s.Downpayment),
		Balance:     format.Currency(s.Balance),
	}
}
