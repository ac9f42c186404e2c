// Package amortization computes bond payment schedules.
//
// Two schedule methods are supported: the bullet ("American method") schedule,
// which pays a flat coupon every period and the full principal at maturity, and
// the declining-balance schedule, which amortizes principal with a level annuity
// payment after an optional grace period.
//
// Every function in this package is pure: it allocates and returns fresh values
// and keeps no package-level mutable state, so calls are safe from any goroutine.
package amortization

import (
	"math"
	"time"
)

// Frequency is the coupon payment frequency as stored on the bond record.
type Frequency string

const (
	FrequencyAnnual     Frequency = "anual"
	FrequencySemiannual Frequency = "semestral"
	FrequencyQuarterly  Frequency = "trimestral"
	FrequencyMonthly    Frequency = "mensual"
)

// DefaultPeriodsPerYear applies to any frequency not listed above. Unknown values
// fall back to semiannual payments rather than failing.
const DefaultPeriodsPerYear = 2

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyAnnual, FrequencySemiannual, FrequencyQuarterly, FrequencyMonthly:
		return true
	}
	return false
}

// PeriodsPerYear returns the number of payment periods in a year.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiannual:
		return 2
	case FrequencyAnnual:
		return 1
	default:
		return DefaultPeriodsPerYear
	}
}

// Grace is the treatment applied to the first Terms.GracePeriods periods of a
// declining-balance schedule.
type Grace string

const (
	GraceNone    Grace = "sin_gracia"
	GracePartial Grace = "gracia_parcial" // interest paid, principal deferred
	GraceTotal   Grace = "gracia_total"   // interest waived, principal deferred
)

// Valid reports whether g is one of the known grace treatments.
func (g Grace) Valid() bool {
	return g == GraceNone || g == GracePartial || g == GraceTotal
}

// Method selects which schedule a bond is paid under.
type Method string

const (
	MethodBullet           Method = "bullet"
	MethodDecliningBalance Method = "declining_balance"
)

// Valid reports whether m is a known schedule method.
func (m Method) Valid() bool {
	return m == MethodBullet || m == MethodDecliningBalance
}

// Terms are the bond parameters a schedule is computed from.
type Terms struct {
	Principal    float64
	AnnualRate   float64 // percent, e.g. 10 for 10%
	TermYears    int
	Frequency    Frequency
	Grace        Grace
	GracePeriods int
	EmissionDate time.Time
}

// PeriodsPerYear is a shorthand for t.Frequency.PeriodsPerYear().
func (t Terms) PeriodsPerYear() int {
	return t.Frequency.PeriodsPerYear()
}

// TotalPeriods is the number of rows the schedule will contain.
func (t Terms) TotalPeriods() int {
	if t.TermYears <= 0 {
		return 0
	}
	return t.TermYears * t.PeriodsPerYear()
}

// PeriodRate is the nominal annual rate converted to a per-period fraction.
func (t Terms) PeriodRate() float64 {
	return t.AnnualRate / 100 / float64(t.PeriodsPerYear())
}

// graceCount is the number of leading periods kept out of the regular
// installments. It applies whatever the grace treatment is: under sin_gracia
// those periods pay nothing, same as total grace.
func (t Terms) graceCount() int {
	return max(t.GracePeriods, 0)
}

// Row is one payment period of a schedule.
type Row struct {
	Period         int       `json:"periodo"`
	PaymentDate    time.Time `json:"fecha"`
	OpeningBalance float64   `json:"saldo_inicial"`
	Coupon         float64   `json:"cupon"`
	Amortization   float64   `json:"amortizacion"`
	TotalFlow      float64   `json:"flujo_total"`
	ClosingBalance float64   `json:"saldo_final"`
}

// Compute dispatches to the schedule for method. Unknown methods use the
// bullet schedule, which is what bond detail pages advertise.
func Compute(method Method, t Terms) []Row {
	if method == MethodDecliningBalance {
		return DecliningBalance(t)
	}
	return Bullet(t)
}

// Bullet computes the interest-only schedule: the coupon is charged on the full
// principal every period and the principal is repaid in the final period.
// Grace settings are ignored.
func Bullet(t Terms) []Row {
	total := t.TotalPeriods()
	ppy := t.PeriodsPerYear()
	coupon := t.Principal * t.PeriodRate()

	rows := make([]Row, 0, total)
	for period := 1; period <= total; period++ {
		row := Row{
			Period:         period,
			PaymentDate:    PaymentDate(t.EmissionDate, period, ppy),
			OpeningBalance: t.Principal,
			Coupon:         coupon,
			ClosingBalance: t.Principal,
		}
		if period == total {
			row.Amortization = t.Principal
			row.ClosingBalance = 0
		}
		row.TotalFlow = row.Coupon + row.Amortization
		rows = append(rows, row)
	}
	return rows
}

// DecliningBalance computes an annuity-style schedule. The first GracePeriods
// periods either pay interest only (partial grace) or nothing at all (total
// grace or no treatment; interest is waived and not capitalized). Remaining periods pay a level
// installment that retires the outstanding balance by maturity.
func DecliningBalance(t Terms) []Row {
	total := t.TotalPeriods()
	ppy := t.PeriodsPerYear()
	rate := t.PeriodRate()
	grace := t.graceCount()

	rows := make([]Row, 0, total)
	balance := t.Principal
	for period := 1; period <= total; period++ {
		var coupon, amort, flow float64

		if period <= grace {
			if t.Grace == GracePartial {
				coupon = balance * rate
				flow = coupon
			}
		} else {
			remaining := total - max(period-1, grace)
			coupon = balance * rate
			switch {
			case remaining <= 0:
				amort = balance
				flow = amort + coupon
			case remaining == 1:
				// final installment settles the balance exactly
				amort = balance
				flow = amort + coupon
			default:
				flow, amort, coupon = levelInstallment(balance, rate, remaining)
			}
		}

		opening := balance
		balance = math.Max(0, balance-amort)
		rows = append(rows, Row{
			Period:         period,
			PaymentDate:    PaymentDate(t.EmissionDate, period, ppy),
			OpeningBalance: opening,
			Coupon:         coupon,
			Amortization:   amort,
			TotalFlow:      flow,
			ClosingBalance: balance,
		})
	}
	return rows
}

// levelInstallment returns the annuity payment retiring balance over n periods
// at rate, split into its principal and interest parts. A zero rate, or any
// rate for which the annuity factor degenerates, falls back to straight-line
// principal with no interest.
func levelInstallment(balance, rate float64, n int) (flow, amort, coupon float64) {
	growth := math.Pow(1+rate, float64(n))
	den := growth - 1
	if rate == 0 || den == 0 || math.IsInf(growth, 0) || math.IsNaN(growth) {
		amort = balance / float64(n)
		return amort, amort, 0
	}
	coupon = balance * rate
	flow = balance * rate * growth / den
	return flow, flow - coupon, coupon
}
