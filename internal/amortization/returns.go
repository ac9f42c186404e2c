package amortization

// ExpectedReturn is the simple, non-compounded interest an investment of amount
// earns over the full term. It ignores frequency and grace and is meant to be
// snapshotted once when the investment is recorded.
func ExpectedReturn(amount, annualRate float64, termYears int) float64 {
	return amount * (annualRate / 100) * float64(termYears)
}

// Calculation pairs a schedule with the investment it was computed for.
type Calculation struct {
	InvestmentAmount float64   `json:"investment_amount"`
	InterestRate     float64   `json:"interest_rate"`
	TermYears        int       `json:"term_years"`
	Frequency        Frequency `json:"payment_frequency"`
	Grace            Grace     `json:"grace_period,omitempty"`
	Method           Method    `json:"schedule_method"`
	Schedule         []Row     `json:"schedule"`
}

// YieldSummary aggregates the interest earned over a schedule.
type YieldSummary struct {
	TotalInterest  float64 `json:"total_interest"`
	TotalToReceive float64 `json:"total_to_receive"`
	AnnualYield    float64 `json:"annual_yield"`
}

// Summarize totals the coupons of c.Schedule. AnnualYield is the average yearly
// interest as a percentage of the invested amount; it is zero when the amount or
// the term is zero instead of dividing by zero.
func Summarize(c Calculation) YieldSummary {
	var interest float64
	for _, row := range c.Schedule {
		interest += row.Coupon
	}
	s := YieldSummary{
		TotalInterest:  interest,
		TotalToReceive: c.InvestmentAmount + interest,
	}
	if c.InvestmentAmount != 0 && c.TermYears != 0 {
		s.AnnualYield = interest / c.InvestmentAmount / float64(c.TermYears) * 100
	}
	return s
}

// Calculate computes the schedule for t under method and returns it together
// with its yield summary, treating t.Principal as the invested amount.
func Calculate(method Method, t Terms) (Calculation, YieldSummary) {
	if !method.Valid() {
		method = MethodBullet
	}
	c := Calculation{
		InvestmentAmount: t.Principal,
		InterestRate:     t.AnnualRate,
		TermYears:        t.TermYears,
		Frequency:        t.Frequency,
		Grace:            t.Grace,
		Method:           method,
		Schedule:         Compute(method, t),
	}
	return c, Summarize(c)
}
