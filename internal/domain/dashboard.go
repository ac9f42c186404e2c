package domain

// DashboardStats is returned by GET /v1/dashboard/stats. Issuers see their
// bonds and the money raised; investors see their portfolio.
type DashboardStats struct {
	Role              Role    `json:"role"`
	TotalBonds        int     `json:"total_bonds"`
	ActiveBonds       int     `json:"active_bonds"`
	TotalInvestments  int     `json:"total_investments"`
	ActiveInvestments int     `json:"active_investments"`
	TotalInvested     float64 `json:"total_invested"`
	TotalReturns      float64 `json:"total_returns"`
	AverageRate       float64 `json:"average_rate"`
	PortfolioValue    float64 `json:"portfolio_value"`
}

// IssuerBond is a bond with the investments placed in it.
type IssuerBond struct {
	Bond
	Investments []Investment `json:"investments"`
}

// InvestorHolding is an investment with its bond and payments.
type InvestorHolding struct {
	Investment
	Bond     *Bond     `json:"bond"`
	Payments []Payment `json:"payments"`
}
