package receipt

import (
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const invoiceLayout = `{{center .RestaurantName}}
{{center "TAX INVOICE"}}
{{rule}}
{{row (printf "Table %s" .TableID) (.IssuedAt.Format "02 Jan 2006 15:04")}}
{{- if .CustomerName}}
Customer: {{.CustomerName}}
{{- end}}
{{rule}}
{{- range .Lines}}
{{.Name}}
{{row (printf "  %d x %s" .Quantity (money .UnitPrice)) (money .Amount)}}
{{- end}}
{{rule}}
{{row "Subtotal" (money .Totals.Subtotal)}}
{{row (printf "Tax (%s%%)" (pct .Params.TaxPercent)) (money .Totals.TaxAmount)}}
{{row (printf "Discount (%s%%)" (pct .Params.DiscountPercent)) (money (neg .Totals.DiscountAmount))}}
{{row "Round off" (money (neg .Totals.RoundOff))}}
{{rule}}
{{row "TOTAL" (money .Totals.Total)}}
{{- if .PaymentType}}
{{row "Payment" .PaymentType}}
{{- end}}
{{rule}}
{{center "Thank you, visit again!"}}
`

const kotLayout = `{{center "KITCHEN ORDER TICKET"}}
{{row (printf "Table %s" .TableID) (.IssuedAt.Format "15:04")}}
{{rule}}
{{- range .Lines}}
{{row .Name (printf "x%d" .Quantity)}}
{{- end}}
{{rule}}
`

// layoutFuncs are available to every mounted layout. Widths are in
// character columns.
func layoutFuncs(columns int) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"pct":   func(d decimal.Decimal) string { return d.String() },
		"neg":   func(d decimal.Decimal) decimal.Decimal { return d.Neg() },
		"rule":  func() string { return strings.Repeat("-", columns) },
		"center": func(s string) string {
			s = clip(s, columns)
			pad := (columns - utf8.RuneCountInString(s)) / 2
			return strings.Repeat(" ", pad) + s
		},
		"row": func(left, right string) string {
			right = clip(right, columns)
			room := columns - utf8.RuneCountInString(right) - 1
			if room < 0 {
				room = 0
			}
			left = clip(left, room)
			gap := columns - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
			return left + strings.Repeat(" ", gap) + right
		},
	}
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
