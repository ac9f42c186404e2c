package supabase

import (
	"context"
	"errors"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

var errEmptyRepresentation = errors.New("insert returned no rows")

// ============================================================
// Investments (implements port.InvestmentStore)
// ============================================================

const investmentWithDetails = `*, bond:bonds(*, emisor:profiles!bonds_emisor_id_fkey(*)), payments(*)`

var investmentSortColumns = map[string]bool{
	"investment_date": true,
	"amount":          true,
	"created_at":      true,
	"maturity_date":   true,
	"expected_return": true,
}

func (c *Client) ListInvestments(ctx context.Context, f domain.InvestmentFilters, p domain.Pagination) ([]domain.InvestmentWithDetails, int, error) {
	p = p.Normalize()
	sel := investmentWithDetails
	q := From("investments")
	if f.Search != "" {
		// filter on the embedded bond; !inner drops investments whose bond does not match
		sel = `*, bond:bonds!inner(*, emisor:profiles!bonds_emisor_id_fkey(*)), payments(*)`
		q.params.Add("bond.name", "ilike."+ilikeTerm(f.Search))
	}
	q.Select(sel)
	if f.InvestorID != "" {
		q.Eq("investor_id", f.InvestorID)
	}
	q.In("status", f.Status)
	if f.BondID != "" {
		q.Eq("bond_id", f.BondID)
	}
	if f.DateFrom != "" {
		q.Gte("investment_date", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Lte("investment_date", f.DateTo)
	}
	if f.AmountMin != nil {
		q.Gte("amount", formatFloat(*f.AmountMin))
	}
	if f.AmountMax != nil {
		q.Lte("amount", formatFloat(*f.AmountMax))
	}
	if investmentSortColumns[f.SortBy] {
		q.Order(f.SortBy, f.SortOrder == "asc")
	} else {
		q.Order("investment_date", false)
	}
	q.Limit(p.PageSize).Offset(p.Offset())

	var rows []domain.InvestmentWithDetails
	total := 0
	err := c.call(ctx, "ListInvestments", "investments", func(ctx context.Context) error {
		rows = nil
		n, err := c.selectRows(ctx, q, true, &rows)
		total = n
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range rows {
		rows[i].Derive()
	}
	if total < 0 {
		total = len(rows)
	}
	return rows, total, nil
}

func (c *Client) GetInvestment(ctx context.Context, investmentID string) (*domain.InvestmentWithDetails, error) {
	var rows []domain.InvestmentWithDetails
	err := c.call(ctx, "GetInvestment", "investments", func(ctx context.Context) error {
		rows = nil
		q := From("investments").Select(investmentWithDetails).Eq("id", investmentID).Limit(1)
		if _, err := c.selectRows(ctx, q, false, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "investment", ID: investmentID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rows[0].Derive()
	return &rows[0], nil
}

func (c *Client) CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	row := map[string]any{
		"investor_id":     inv.InvestorID,
		"bond_id":         inv.BondID,
		"amount":          inv.Amount,
		"investment_date": inv.InvestmentDate,
		"status":          inv.Status,
		"expected_return": inv.ExpectedReturn,
		"maturity_date":   inv.MaturityDate,
	}

	var created []domain.Investment
	err := c.call(ctx, "CreateInvestment", "investments", func(ctx context.Context) error {
		created = nil
		return c.insert(ctx, "investments", row, &created)
	})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/investments", Err: errEmptyRepresentation}
	}

	c.logger.Info("supabase: investment created",
		zap.String("investment_id", created[0].ID),
		zap.String("bond_id", created[0].BondID),
		zap.Float64("amount", created[0].Amount),
	)
	return &created[0], nil
}

// DeleteInvestment removes an investment; used to roll back a creation whose
// payment plan could not be stored.
func (c *Client) DeleteInvestment(ctx context.Context, investmentID string) error {
	return c.call(ctx, "DeleteInvestment", "investments", func(ctx context.Context) error {
		_, err := c.remove(ctx, From("investments").Eq("id", investmentID))
		return err
	})
}
