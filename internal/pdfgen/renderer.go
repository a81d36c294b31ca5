package pdfgen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"invoicegen/pkg/domain"
)

// Renderer produces the single-page A4 invoice PDF.
type Renderer struct{}

// New constructs a Renderer.
func New() *Renderer {
	return &Renderer{}
}

const (
	pageMargin = 15.0
	tableDescW = 90.0
	tableNumW  = 30.0
	lineHeight = 6.0
)

// Render lays out the invoice and returns the PDF bytes. The layout
// mirrors the preview: title and logo, invoice details, From/To company
// blocks, items table, totals, then notes and payment instructions.
func (r *Renderer) Render(inv domain.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header: title left, optional logo right.
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(100, 12, "INVOICE", "", 0, "L", false, 0, "")
	if inv.Logo != "" {
		if err := placeLogo(pdf, inv.Logo); err != nil {
			return nil, fmt.Errorf("place logo: %w", err)
		}
	}
	pdf.Ln(16)

	// Invoice details and parties in three columns.
	colW := (210.0 - 2*pageMargin) / 3
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colW, lineHeight, tr("Invoice #"+inv.InvoiceNumber), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(colW, lineHeight, tr("Date: "+inv.Date), "", 2, "L", false, 0, "")
	pdf.CellFormat(colW, lineHeight, tr("Due Date: "+inv.DueDate), "", 2, "L", false, 0, "")
	if inv.InvoiceName != "" {
		pdf.CellFormat(colW, lineHeight, tr(inv.InvoiceName), "", 2, "L", false, 0, "")
	}

	writeParty(pdf, tr, pageMargin+colW, top, colW, "From:", inv.Sender)
	writeParty(pdf, tr, pageMargin+2*colW, top, colW, "To:", inv.Recipient)

	pdf.SetXY(pageMargin, top+8*lineHeight)

	// Items table.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(tableDescW, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(tableNumW, 7, "Quantity", "1", 0, "R", true, 0, "")
	pdf.CellFormat(tableNumW, 7, "Rate", "1", 0, "R", true, 0, "")
	pdf.CellFormat(tableNumW, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range inv.Items {
		pdf.CellFormat(tableDescW, 7, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(tableNumW, 7, trimFloat(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(tableNumW, 7, tr(domain.FormatAmount(item.Rate, inv.Currency)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(tableNumW, 7, tr(domain.FormatAmount(item.Amount, inv.Currency)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block, right aligned.
	writeTotal(pdf, tr, "Subtotal:", domain.FormatAmount(inv.Subtotal, inv.Currency), false)
	writeTotal(pdf, tr, fmt.Sprintf("Tax (%s%%):", trimFloat(inv.TaxRate)), domain.FormatAmount(inv.TaxAmount, inv.Currency), false)
	if inv.Shipping != 0 {
		writeTotal(pdf, tr, "Shipping:", domain.FormatAmount(inv.Shipping, inv.Currency), false)
	}
	writeTotal(pdf, tr, "Total:", domain.FormatAmount(inv.Total, inv.Currency), true)

	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, lineHeight, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}
	if inv.PaymentInstructions != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, lineHeight, "Payment Instructions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(inv.PaymentInstructions), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeParty(pdf *gofpdf.Fpdf, tr func(string) string, x, y, w float64, label string, c domain.Company) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(w, lineHeight, label, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	lines := []string{
		c.Name,
		c.Address,
		c.Address2,
		strings.TrimSpace(fmt.Sprintf("%s, %s %s", c.City, c.State, c.PostalCode)),
		c.Country,
		c.Email,
		c.Phone,
	}
	for _, line := range lines {
		if strings.Trim(line, ", ") == "" {
			continue
		}
		pdf.CellFormat(w, lineHeight-1, tr(line), "", 2, "L", false, 0, "")
	}
}

func writeTotal(pdf *gofpdf.Fpdf, tr func(string) string, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	pdf.SetX(210 - pageMargin - 2*tableNumW)
	pdf.CellFormat(tableNumW, lineHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.CellFormat(tableNumW, lineHeight, tr(value), "", 1, "R", false, 0, "")
}

func trimFloat(n domain.Number) string {
	return fmt.Sprintf("%g", n.Float64())
}

// placeLogo decodes a data-URI logo and draws it in the top right corner.
func placeLogo(pdf *gofpdf.Fpdf, dataURI string) error {
	imageType, data, err := DecodeDataURI(dataURI)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	pdf.ImageOptions("logo", 210-pageMargin-35, pageMargin, 35, 0, false, opts, 0, "")
	return pdf.Error()
}

// DecodeDataURI splits a base64 image data URI into a gofpdf image type
// ("JPG" or "PNG") and raw bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("logo is not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	var imageType string
	switch mediaType {
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	case "image/png":
		imageType = "PNG"
	default:
		return "", nil, fmt.Errorf("unsupported logo type %q", mediaType)
	}
	if !strings.Contains(meta, "base64") {
		return "", nil, fmt.Errorf("logo data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode logo: %w", err)
	}
	return imageType, data, nil
}
