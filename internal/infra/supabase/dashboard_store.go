package supabase

import (
	"context"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
)

// ============================================================
// Dashboard (implements port.DashboardStore)
// ============================================================

func (c *Client) ListIssuerBonds(ctx context.Context, emisorID string) ([]domain.IssuerBond, error) {
	var rows []domain.IssuerBond
	err := c.call(ctx, "ListIssuerBonds", "bonds", func(ctx context.Context) error {
		rows = nil
		q := From("bonds").Select("*, investments(*)").Eq("emisor_id", emisorID)
		_, err := c.selectRows(ctx, q, false, &rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ListInvestorHoldings(ctx context.Context, investorID string) ([]domain.InvestorHolding, error) {
	var rows []domain.InvestorHolding
	err := c.call(ctx, "ListInvestorHoldings", "investments", func(ctx context.Context) error {
		rows = nil
		q := From("investments").Select("*, bond:bonds(*), payments(*)").Eq("investor_id", investorID)
		_, err := c.selectRows(ctx, q, false, &rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
