package domain

import "time"

// ============================================================
// Investments
// ============================================================

// InvestmentStatus is the lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
	InvestmentMatured   InvestmentStatus = "matured"
)

// Investment is a row of the investments table.
type Investment struct {
	ID             string           `json:"id"`
	InvestorID     string           `json:"investor_id"`
	BondID         string           `json:"bond_id"`
	Amount         float64          `json:"amount"`
	InvestmentDate string           `json:"investment_date"`
	Status         InvestmentStatus `json:"status"`
	ExpectedReturn float64          `json:"expected_return"`
	MaturityDate   string           `json:"maturity_date"`
	CreatedAt      time.Time        `json:"created_at,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at,omitempty"`
}

// InvestmentWithBond embeds the bond an investment was placed in.
type InvestmentWithBond struct {
	Investment
	Bond *Bond `json:"bond,omitempty"`
}

// InvestmentWithDetails is an investment with its bond, its payment plan and
// the values derived from the plan.
type InvestmentWithDetails struct {
	Investment
	Bond        *BondWithIssuer `json:"bond,omitempty"`
	Payments    []Payment       `json:"payments"`
	TotalPaid   float64         `json:"total_paid"`
	NextPayment *Payment        `json:"next_payment,omitempty"`
}

// Derive fills TotalPaid and NextPayment from Payments. NextPayment is the
// earliest pending payment.
func (d *InvestmentWithDetails) Derive() {
	d.TotalPaid = 0
	d.NextPayment = nil
	for i := range d.Payments {
		p := &d.Payments[i]
		switch p.Status {
		case PaymentPaid:
			d.TotalPaid += p.Amount
		case PaymentPending:
			if d.NextPayment == nil || p.ScheduledDate < d.NextPayment.ScheduledDate {
				d.NextPayment = p
			}
		}
	}
}

// CreateInvestmentRequest is the body of POST /v1/investments.
type CreateInvestmentRequest struct {
	BondID string  `json:"bond_id" validate:"required,uuid"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// InvestmentFilters narrows GET /v1/investments.
type InvestmentFilters struct {
	InvestorID string
	Search     string
	Status     []string
	BondID     string
	DateFrom   string
	DateTo     string
	AmountMin  *float64
	AmountMax  *float64
	SortBy     string
	SortOrder  string
}
