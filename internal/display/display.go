// Package display renders amounts, rates and schedules for people: currency at
// two decimals in the issuing locale and dates as YYYY-MM-DD.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
)

const (
	DefaultLocale   = "es-PE"
	DefaultCurrency = "PEN"
)

var symbols = map[string]string{
	"PEN": "S/",
	"USD": "US$",
	"EUR": "€",
}

// Formatter formats values for one locale and currency.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	unit    currency.Unit
	symbol  string
}

// New builds a Formatter. An unparseable locale falls back to es-PE and an
// unknown ISO 4217 code to PEN.
func New(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		unit = currency.MustParseISO(DefaultCurrency)
	}
	sym, ok := symbols[unit.String()]
	if !ok {
		sym = unit.String()
	}
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		unit:    unit,
		symbol:  sym,
	}
}

// Locale reports the language tag in use.
func (f *Formatter) Locale() string { return f.tag.String() }

// Currency reports the ISO 4217 code in use.
func (f *Formatter) Currency() string { return f.unit.String() }

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// FormatNumber formats v with exactly decimals fraction digits and the locale's
// grouping.
func (f *Formatter) FormatNumber(v float64, decimals int) string {
	r := Round(v, int32(decimals))
	if r == 0 {
		r = 0 // drop negative zero
	}
	return f.printer.Sprint(number.Decimal(r, number.Scale(decimals)))
}

// FormatCurrency formats v as money, e.g. "S/ 1,234.50".
func (f *Formatter) FormatCurrency(v float64) string {
	return f.symbol + " " + f.FormatNumber(v, 2)
}

// FormatPercentage formats a rate already expressed in percent, e.g. 8.5 as
// "8.50%".
func (f *Formatter) FormatPercentage(v float64) string {
	return f.FormatNumber(v, 2) + "%"
}

// FormatDate formats t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(amortization.DateLayout)
}

// Row is one schedule row ready to print.
type Row struct {
	Period         int    `json:"periodo"`
	PaymentDate    string `json:"fecha"`
	OpeningBalance string `json:"saldo_inicial"`
	Coupon         string `json:"cupon"`
	Amortization   string `json:"amortizacion"`
	TotalFlow      string `json:"flujo_total"`
	ClosingBalance string `json:"saldo_final"`
}

// Table formats a schedule for display.
func (f *Formatter) Table(rows []amortization.Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row{
			Period:         r.Period,
			PaymentDate:    FormatDate(r.PaymentDate),
			OpeningBalance: f.FormatCurrency(r.OpeningBalance),
			Coupon:         f.FormatCurrency(r.Coupon),
			Amortization:   f.FormatCurrency(r.Amortization),
			TotalFlow:      f.FormatCurrency(r.TotalFlow),
			ClosingBalance: f.FormatCurrency(r.ClosingBalance),
		})
	}
	return out
}

// Summary formats a yield summary.
func (f *Formatter) Summary(s amortization.YieldSummary) map[string]string {
	return map[string]string{
		"total_interest":   f.FormatCurrency(s.TotalInterest),
		"total_to_receive": f.FormatCurrency(s.TotalToReceive),
		"annual_yield":     f.FormatPercentage(s.AnnualYield),
	}
}

// String renders the table as aligned text columns.
func (f *Formatter) String(rows []amortization.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-7s %-10s %16s %14s %14s %16s %16s\n",
		"Periodo", "Fecha", "Saldo inicial", "Cupón", "Amortización", "Flujo total", "Saldo final")
	for _, r := range f.Table(rows) {
		fmt.Fprintf(&b, "%-7d %-10s %16s %14s %14s %16s %16s\n",
			r.Period, r.PaymentDate, r.OpeningBalance, r.Coupon, r.Amortization, r.TotalFlow, r.ClosingBalance)
	}
	return b.String()
}
