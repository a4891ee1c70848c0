// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/money"
)

// Invoice is the data printed on an order receipt
type Invoice struct {
	Number        string
	IssuedAt      time.Time
	CustomerName  string
	CustomerEmail string
	ShipTo        []string
	PaymentMethod string
	Paid          bool
	Currency      string
	Lines         []Line
	Subtotal      int64
	DiscountPct   int
	Total         int64
}

// Line is one invoice row; amounts are minor units
type Line struct {
	Title     string
	Quantity  int
	UnitPrice int64
}

// Service renders invoices to PDF through wkhtmltopdf
type Service struct {
	company config.CompanyConfig
	tmpl    *template.Template
}

// NewService creates a new PDF service
func NewService(company config.CompanyConfig) *Service {
	funcs := template.FuncMap{
		"money": money.Format,
		"lineTotal": func(l Line) string {
			return money.Format(l.UnitPrice * int64(l.Quantity))
		},
		"upper": strings.ToUpper,
	}
	return &Service{
		company: company,
		tmpl:    template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceTemplate)),
	}
}

// RenderHTML produces the invoice markup handed to wkhtmltopdf
func (s *Service) RenderHTML(inv Invoice) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Invoice
		Company config.CompanyConfig
	}{inv, s.company}

	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// RenderInvoice converts the invoice to PDF bytes
func (s *Service) RenderInvoice(inv Invoice) ([]byte, error) {
	htmlContent, err := s.RenderHTML(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.Number}}</title>
    <style>
        body { font-family: Arial, sans-serif; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 16px; margin-bottom: 24px; }
        .title { font-size: 26px; font-weight: bold; color: #2563eb; }
        .items { width: 100%; border-collapse: collapse; margin: 24px 0; }
        .items th, .items td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .items th { background: #f8f9fa; }
        .num { text-align: right; }
        .totals { float: right; width: 280px; }
        .totals td { padding: 6px; }
        .badge { padding: 3px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; }
        .paid { background: #dcfce7; color: #166534; }
        .due { background: #fef3c7; color: #92400e; }
        .footer { clear: both; margin-top: 48px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">{{.Company.Name}} INVOICE</div>
        <p>{{.Company.Address}}</p>
        <p>Invoice #{{.Number}} &middot; {{.IssuedAt.Format "January 2, 2006"}}</p>
        <p>
            Payment: {{.PaymentMethod}}
            <span class="badge {{if .Paid}}paid{{else}}due{{end}}">{{if .Paid}}paid{{else}}due on delivery{{end}}</span>
        </p>
    </div>

    <div>
        <strong>Ship to:</strong> {{.CustomerName}} ({{.CustomerEmail}})
        {{range .ShipTo}}<br>{{.}}{{end}}
    </div>

    <table class="items">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td>{{.Title}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .UnitPrice}}</td>
                <td class="num">{{lineTotal .}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal</td><td class="num">{{money .Subtotal}} {{upper .Currency}}</td></tr>
        {{if gt .DiscountPct 0}}<tr><td>Coupon discount</td><td class="num">{{.DiscountPct}}%</td></tr>{{end}}
        <tr><td><strong>Total</strong></td><td class="num"><strong>{{money .Total}} {{upper .Currency}}</strong></td></tr>
    </table>

    <div class="footer">
        <p>Thank you for shopping with {{.Company.Name}}.</p>
        <p>Questions? Contact {{.Company.Email}}{{if .Company.Phone}} or {{.Company.Phone}}{{end}}</p>
        {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
    </div>
</body>
</html>
`
