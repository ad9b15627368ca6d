package billing

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"github.com/hotelia/frontdesk/internal/format"
)

// The core PDF fonts have no peso glyph, so amounts are prefixed "PHP".
func pesos(v float64) string {
	if v < 0 {
		return "-PHP " + format.Amount(-v)
	}
	return "PHP " + format.Amount(v)
}

// RenderInvoicePDF lays out an invoice on a single A4 page.
func RenderInvoicePDF(inv Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range [][2]string{
		{"Invoice No", inv.Number},
		{"Issued", format.DateTime(inv.IssuedAt)},
		{"Guest", inv.GuestName},
		{"Check-in", format.DateOnly(inv.CheckIn)},
		{"Check-out", format.DateOnly(inv.CheckOut)},
		{"Nights", strconv.Itoa(inv.Nights())},
	} {
		pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, ": "+row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{90, 20, 40, 40}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, head := range []string{"Description", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, head, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(widths[0], 7, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, pesos(line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, pesos(line.Total), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := [][2]string{
		{"Room subtotal", pesos(inv.RoomSubtotal)},
		{"Charges", pesos(inv.ChargesSubtotal)},
		{fmt.Sprintf("VAT (%s)", format.Percent(VATRate)), pesos(inv.VAT)},
		{"Grand total", pesos(inv.GrandTotal)},
		{"Amount paid", pesos(inv.AmountPaid)},
		{"Balance due", pesos(inv.Balance)},
	}
	for i, row := range totals {
		style := ""
		if i == 3 || i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(150, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Amounts include 12% VAT. This invoice was generated by the front desk and is valid without signature.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
