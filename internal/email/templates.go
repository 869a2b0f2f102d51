package email

import (
	"html/template"
	"strconv"
	"time"
)

// EmailTemplate is the data for one kind of message.
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderConfirmationEmail is sent once an order has been paid.
type OrderConfirmationEmail struct {
	To            string
	OrderID       string
	InvoiceNumber string // empty when numbering failed; the mail still goes out
	PaidAt        time.Time
	Items         []OrderItem
	Total         int64
}

// OrderItem is a line as shown in the confirmation.
type OrderItem struct {
	ProductName  string
	VariantLabel string
	Quantity     int
	UnitPrice    int64
	LineTotal    int64
}

// Reference is the number the customer quotes back to support.
func (e OrderConfirmationEmail) Reference() string {
	if e.InvoiceNumber != "" {
		return e.InvoiceNumber
	}
	if len(e.OrderID) > 8 {
		return e.OrderID[:8]
	}
	return e.OrderID
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order Confirmation - " + e.Reference()
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation.html"
}

// FormatAmount renders a whole-unit amount. The store currency has no
// subunits, so 1500 is shown as "1500".
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

const orderConfirmationHTML = `{{define "order_confirmation.html"}}<div class="email-content">
<h2>Thank you for your order</h2>
<p>Order reference: <strong>{{.Reference}}</strong></p>
{{if not .PaidAt.IsZero}}<p>Paid on {{.PaidAt.Format "2 January 2006"}}</p>{{end}}
<table>
{{range .Items}}<tr><td>{{.ProductName}}{{if .VariantLabel}} ({{.VariantLabel}}){{end}}</td><td>{{.Quantity}} x {{amount .UnitPrice}}</td><td>{{amount .LineTotal}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{amount .Total}}</strong></p>
<p>We will let you know when your order ships.</p>
</div>{{end}}`

func parseTemplates() *template.Template {
	return template.Must(template.New("email").
		Funcs(template.FuncMap{"amount": FormatAmount}).
		Parse(orderConfirmationHTML))
}
