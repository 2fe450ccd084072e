package receipts

import (
	"bytes"
	"fmt"

	"tenantpay/internal/models"
	"tenantpay/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// Generator renders completed payments as PDF receipts
type Generator struct {
	TenantName    string
	PropertyLabel string
}

// Render produces a receipt PDF for one history entry
func (g *Generator) Render(entry models.PaymentHistoryEntry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Rent Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatIST(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Payment Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment Details", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	if g.TenantName != "" {
		pdf.CellFormat(95, 7, fmt.Sprintf("Tenant: %s", g.TenantName), "LB", 0, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "", "LB", 0, "L", false, 0, "")
	}
	if g.PropertyLabel != "" {
		pdf.CellFormat(95, 7, fmt.Sprintf("Property: %s", g.PropertyLabel), "RB", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "", "RB", 1, "L", false, 0, "")
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Month: %s", entry.Month), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Date: %s", timeutil.FormatIST(entry.PaymentDate, timeutil.DisplayLayout)), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Order ID: %s", entry.MerchantOrderID), "LB", 0, "L", false, 0, "")
	if entry.TransactionID != "" {
		pdf.CellFormat(95, 7, fmt.Sprintf("Transaction: %s", entry.TransactionID), "RB", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(95, 7, "", "RB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Amount table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(130, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Amount (Rs)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(130, 6, fmt.Sprintf("%s payment", entry.PaymentType), "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", entry.Amount), "1", 1, "R", false, 0, "")
	pdf.CellFormat(130, 6, "Gateway processing fee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", entry.FeeAmount), "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 7, "Total Paid", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, fmt.Sprintf("%.2f", entry.TotalAmount), "1", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 5, "This is a system generated receipt and does not require a signature.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
