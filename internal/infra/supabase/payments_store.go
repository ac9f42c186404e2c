package supabase

import (
	"context"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Payments (implements port.PaymentStore)
// ============================================================

var paymentSortColumns = map[string]bool{
	"scheduled_date": true,
	"amount":         true,
	"coupon_number":  true,
	"created_at":     true,
}

func (c *Client) ListPayments(ctx context.Context, f domain.PaymentFilters, p domain.Pagination) ([]domain.Payment, int, error) {
	p = p.Normalize()
	q := From("payments")
	if f.InvestorID != "" {
		q.Select(`*, investment:investments!inner(investor_id)`)
		q.Eq("investment.investor_id", f.InvestorID)
	} else {
		q.Select("*")
	}
	if f.InvestmentID != "" {
		q.Eq("investment_id", f.InvestmentID)
	}
	q.In("status", f.Status)
	q.In("type", f.Type)
	if f.DateFrom != "" {
		q.Gte("scheduled_date", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Lte("scheduled_date", f.DateTo)
	}
	if paymentSortColumns[f.SortBy] {
		q.Order(f.SortBy, f.SortOrder == "asc")
	} else {
		q.Order("scheduled_date", true)
	}
	q.Limit(p.PageSize).Offset(p.Offset())

	var rows []domain.Payment
	total := 0
	err := c.call(ctx, "ListPayments", "payments", func(ctx context.Context) error {
		rows = nil
		n, err := c.selectRows(ctx, q, true, &rows)
		total = n
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if total < 0 {
		total = len(rows)
	}
	return rows, total, nil
}

// CreatePayments bulk-inserts a payment plan in one request.
func (c *Client) CreatePayments(ctx context.Context, payments []domain.Payment) ([]domain.Payment, error) {
	if len(payments) == 0 {
		return []domain.Payment{}, nil
	}
	rows := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, map[string]any{
			"investment_id":     p.InvestmentID,
			"amount":            p.Amount,
			"scheduled_date":    p.ScheduledDate,
			"type":              p.Type,
			"status":            p.Status,
			"coupon_number":     p.CouponNumber,
			"interest":          p.Interest,
			"principal":         p.Principal,
			"remaining_balance": p.RemainingBalance,
		})
	}

	var created []domain.Payment
	err := c.call(ctx, "CreatePayments", "payments", func(ctx context.Context) error {
		created = nil
		return c.insert(ctx, "payments", rows, &created)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("supabase: payment plan stored",
		zap.String("investment_id", payments[0].InvestmentID),
		zap.Int("payments", len(created)),
	)
	return created, nil
}
