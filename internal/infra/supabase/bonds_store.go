package supabase

import (
	"context"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ============================================================
// Bonds: CRUD via PostgREST (implements port.BondStore)
// ============================================================

const bondWithIssuer = `*, emisor:profiles!bonds_emisor_id_fkey(*)`

var bondSortColumns = map[string]bool{
	"created_at":    true,
	"name":          true,
	"interest_rate": true,
	"term_years":    true,
	"nominal_value": true,
	"emission_date": true,
}

func (c *Client) ListBonds(ctx context.Context, f domain.BondFilters, p domain.Pagination) ([]domain.BondWithIssuer, int, error) {
	p = p.Normalize()
	q := From("bonds").Select(bondWithIssuer)
	if f.Search != "" {
		term := ilikeTerm(f.Search)
		q.Or("name.ilike." + term + ",description.ilike." + term)
	}
	q.In("status", f.Status)
	if f.InterestRateMin != nil {
		q.Gte("interest_rate", formatFloat(*f.InterestRateMin))
	}
	if f.InterestRateMax != nil {
		q.Lte("interest_rate", formatFloat(*f.InterestRateMax))
	}
	if f.TermYearsMin != nil {
		q.Gte("term_years", formatInt(*f.TermYearsMin))
	}
	if f.TermYearsMax != nil {
		q.Lte("term_years", formatInt(*f.TermYearsMax))
	}
	if f.AmountMin != nil {
		q.Gte("nominal_value", formatFloat(*f.AmountMin))
	}
	if f.AmountMax != nil {
		q.Lte("nominal_value", formatFloat(*f.AmountMax))
	}
	if f.EmisorID != "" {
		q.Eq("emisor_id", f.EmisorID)
	}
	if bondSortColumns[f.SortBy] {
		q.Order(f.SortBy, f.SortOrder == "asc")
	} else {
		q.Order("created_at", false)
	}
	q.Limit(p.PageSize).Offset(p.Offset())

	var rows []domain.BondWithIssuer
	total := 0
	err := c.call(ctx, "ListBonds", "bonds", func(ctx context.Context) error {
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

func (c *Client) GetBond(ctx context.Context, bondID string) (*domain.BondWithIssuer, error) {
	var rows []domain.BondWithIssuer
	err := c.call(ctx, "GetBond", "bonds", func(ctx context.Context) error {
		rows = nil
		q := From("bonds").Select(bondWithIssuer).Eq("id", bondID).Limit(1)
		if _, err := c.selectRows(ctx, q, false, &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "bond", ID: bondID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (c *Client) CreateBond(ctx context.Context, b *domain.Bond) (*domain.Bond, error) {
	row := map[string]any{
		"emisor_id":            b.EmisorID,
		"name":                 b.Name,
		"description":          b.Description,
		"nominal_value":        b.NominalValue,
		"interest_rate":        b.InterestRate,
		"discount_rate":        b.DiscountRate,
		"rate_type":            b.RateType,
		"grace_period":         b.GracePeriod,
		"grace_periods":        b.GracePeriods,
		"schedule_method":      b.ScheduleMethod,
		"emission_expenses":    b.EmissionExpenses,
		"placement_expenses":   b.PlacementExpenses,
		"structuring_expenses": b.StructuringExpenses,
		"cavali_expenses":      b.CavaliExpenses,
		"emission_date":        b.EmissionDate,
		"term_years":           b.TermYears,
		"payment_frequency":    b.PaymentFrequency,
		"status":               b.Status,
	}

	var created []domain.Bond
	err := c.call(ctx, "CreateBond", "bonds", func(ctx context.Context) error {
		created = nil
		return c.insert(ctx, "bonds", row, &created)
	})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &domain.ErrExternalService{Service: "supabase/bonds", Err: errEmptyRepresentation}
	}

	c.logger.Info("supabase: bond created",
		zap.String("bond_id", created[0].ID),
		zap.String("emisor_id", created[0].EmisorID),
	)
	return &created[0], nil
}

func (c *Client) UpdateBond(ctx context.Context, bondID string, changes map[string]any) (*domain.Bond, error) {
	body := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		body[k] = v
	}
	body["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var updated []domain.Bond
	err := c.call(ctx, "UpdateBond", "bonds", func(ctx context.Context) error {
		updated = nil
		if err := c.update(ctx, From("bonds").Eq("id", bondID), body, &updated); err != nil {
			return err
		}
		if len(updated) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "bond", ID: bondID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated[0], nil
}

func (c *Client) DeleteBond(ctx context.Context, bondID string) error {
	return c.call(ctx, "DeleteBond", "bonds", func(ctx context.Context) error {
		n, err := c.remove(ctx, From("bonds").Eq("id", bondID))
		if err != nil {
			return err
		}
		if n == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "bond", ID: bondID})
		}
		return nil
	})
}
