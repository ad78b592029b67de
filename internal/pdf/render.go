// Package pdf renders estimates as printable PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/fieldquote/estimate-gateway/internal/store"
)

// Total sums the line totals of the given items.
func Total(items []store.Item) float64 {
	var total float64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// Render produces a single-page PDF for the estimate. The profile is
// optional; when present it becomes the letterhead.
func Render(est *store.Estimate, profile *store.BusinessProfile) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Estimate", false)
	doc.AddPage()

	if profile != nil && profile.Name != "" {
		doc.SetFont("Helvetica", "B", 16)
		doc.CellFormat(0, 10, profile.Name, "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		for _, line := range []string{profile.Address, profile.Phone, profile.Email} {
			if line != "" {
				doc.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
			}
		}
		doc.Ln(4)
	}

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, "Estimate", "", 1, "L", false, 0, "")

	if est.ClientName != "" || est.ClientAddress != "" {
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(0, 5, "Prepared for:", "", 1, "L", false, 0, "")
		for _, line := range []string{est.ClientName, est.ClientAddress, est.ClientPhone, est.ClientEmail} {
			if line != "" {
				doc.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
			}
		}
		doc.Ln(2)
	}

	if est.Description != "" {
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, est.Description, "", "L", false)
		doc.Ln(2)
	}

	if len(est.Items) > 0 {
		doc.SetFont("Helvetica", "B", 10)
		doc.SetFillColor(230, 230, 230)
		doc.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
		doc.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
		doc.CellFormat(35, 8, "Price", "1", 0, "R", true, 0, "")
		doc.CellFormat(35, 8, "Total", "1", 1, "R", true, 0, "")

		doc.SetFont("Helvetica", "", 10)
		for _, item := range est.Items {
			doc.CellFormat(90, 7, item.Name, "1", 0, "L", false, 0, "")
			doc.CellFormat(25, 7, fmt.Sprintf("%g", item.Quantity), "1", 0, "R", false, 0, "")
			doc.CellFormat(35, 7, fmt.Sprintf("$%.2f", item.Price), "1", 0, "R", false, 0, "")
			doc.CellFormat(35, 7, fmt.Sprintf("$%.2f", item.LineTotal()), "1", 1, "R", false, 0, "")
		}

		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(150, 8, "Grand total", "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 8, fmt.Sprintf("$%.2f", Total(est.Items)), "1", 1, "R", false, 0, "")
		doc.Ln(2)
	}

	if est.Notes != "" {
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 5, "Notes: "+est.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering estimate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
