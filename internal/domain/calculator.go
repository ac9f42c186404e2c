package domain

import "github.com/boddenberg/bonos-bfa-go/internal/amortization"

// ScheduleRequest is the body of POST /v1/calculator/schedule and
// /v1/calculator/yield. Without an emission date the schedule is anchored on
// the current day.
type ScheduleRequest struct {
	Principal    float64                `json:"principal" validate:"gt=0"`
	AnnualRate   float64                `json:"annual_rate" validate:"gte=0,lte=100"`
	TermYears    int                    `json:"term_years" validate:"gte=1,lte=50"`
	Frequency    amortization.Frequency `json:"payment_frequency" validate:"required,oneof=anual semestral trimestral mensual"`
	Grace        amortization.Grace     `json:"grace_period,omitempty" validate:"omitempty,oneof=sin_gracia gracia_parcial gracia_total"`
	GracePeriods int                    `json:"grace_periods,omitempty" validate:"gte=0"`
	EmissionDate string                 `json:"emission_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method       amortization.Method    `json:"method,omitempty" validate:"omitempty,oneof=bullet declining_balance"`
}

// ExpectedReturnRequest is the body of POST /v1/calculator/expected-return.
type ExpectedReturnRequest struct {
	Amount     float64 `json:"amount" validate:"gt=0"`
	AnnualRate float64 `json:"annual_rate" validate:"gte=0,lte=100"`
	TermYears  int     `json:"term_years" validate:"gte=1,lte=50"`
}

// ExpectedReturnResponse carries the simple-interest projection.
type ExpectedReturnResponse struct {
	Amount          float64 `json:"amount"`
	ExpectedReturn  float64 `json:"expected_return"`
	TotalAtMaturity float64 `json:"total_at_maturity"`
}

// ScheduleResponse is a computed schedule with its yield summary. Table is
// filled when the caller asks for the display view.
type ScheduleResponse struct {
	BondID string `json:"bond_id,omitempty"`
	amortization.Calculation
	Summary amortization.YieldSummary `json:"summary"`
	Table   any                       `json:"table,omitempty"`
}
