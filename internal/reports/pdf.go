// Package reports renders spending reports for download.
package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"dompet/internal/money"
	"dompet/internal/services"
)

const (
	dateLayout    = "02 Jan 2006"
	uncategorized = "Tanpa Kategori"
)

// Header carries the report metadata that is not part of the aggregates.
type Header struct {
	Title       string
	Requester   string
	GeneratedAt time.Time
}

// RenderPDF lays a ReportView out as a single A4 document.
func RenderPDF(h Header, view *services.ReportView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if h.Title == "" {
		h.Title = "Laporan Pengeluaran"
	}
	pdf.SetTitle(h.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(h.Title))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	if h.Requester != "" {
		pdf.Cell(0, 6, tr("Untuk: "+h.Requester))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Periode: "+period(view.PeriodStart, view.PeriodEnd))
	pdf.Ln(6)
	if !h.GeneratedAt.IsZero() {
		pdf.Cell(0, 6, "Dibuat: "+h.GeneratedAt.Format(dateLayout+" 15:04"))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s (%d transaksi)", formatAmount(view.TotalSpent), view.TransactionCount))
	pdf.Ln(12)

	section(pdf, "Per Kategori")
	tableHeader(pdf, "Kategori", "Jumlah", "%")
	for _, c := range view.Categories {
		name := c.Name
		if c.CategoryID == nil {
			name = uncategorized
		}
		row(pdf, tr(name), formatAmount(c.Total), share(c.Total, view.TotalSpent))
	}
	pdf.Ln(6)

	if len(view.Members) > 0 {
		section(pdf, "Per Anggota")
		tableHeader(pdf, "Anggota", "Jumlah", "Transaksi")
		for _, m := range view.Members {
			row(pdf, tr(m.Name), formatAmount(m.Total), fmt.Sprintf("%d", m.TransactionCount))
		}
		pdf.Ln(6)
	}

	section(pdf, "Biaya, Pajak & Diskon")
	tableHeader(pdf, "Jenis", "Jumlah", "")
	row(pdf, "Biaya", formatAmount(view.Adjustments.Fees), "")
	row(pdf, "Pajak", formatAmount(view.Adjustments.Taxes), "")
	row(pdf, "Diskon", formatAmount(view.Adjustments.Discounts), "")
	pdf.Ln(6)

	if len(view.Daily) > 0 {
		section(pdf, "Harian")
		tableHeader(pdf, "Tanggal", "Jumlah", "")
		for _, d := range view.Daily {
			row(pdf, d.Date, formatAmount(d.Total), "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func tableHeader(pdf *gofpdf.Fpdf, a, b, c string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 7, a, "1", 0, "L", true, 0, "")
	pdf.CellFormat(55, 7, b, "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, c, "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *gofpdf.Fpdf, a, b, c string) {
	pdf.CellFormat(90, 7, a, "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 7, b, "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, c, "1", 1, "R", false, 0, "")
}

func period(start, end *time.Time) string {
	switch {
	case start != nil && end != nil:
		return start.Format(dateLayout) + " - " + end.Format(dateLayout)
	case start != nil:
		return "sejak " + start.Format(dateLayout)
	case end != nil:
		return "sampai " + end.Format(dateLayout)
	}
	return "semua waktu"
}

// formatAmount renders an amount Indonesian style: Rp 1.234.567,89, with the
// fraction dropped when it is zero.
func formatAmount(a money.Amount) string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	major := int64(a) / 100
	minor := int64(a) % 100

	digits := fmt.Sprintf("%d", major)
	var grouped []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, digits[i])
	}

	if minor == 0 {
		return fmt.Sprintf("%sRp %s", sign, grouped)
	}
	return fmt.Sprintf("%sRp %s,%02d", sign, grouped, minor)
}

func share(part, total money.Amount) string {
	if total <= 0 {
		return "-"
	}
	pct := part.Decimal().Div(total.Decimal()).Shift(2)
	return pct.StringFixed(1) + "%"
}
