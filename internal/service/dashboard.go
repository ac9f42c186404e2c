package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService aggregates the figures of the home dashboard.
type DashboardService struct {
	store  port.DashboardStore
	logger *zap.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(store port.DashboardStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, logger: logger}
}

// Stats returns the caller's dashboard. Issuers get their bonds and the
// money raised, investors their portfolio, admins both sides of their own
// account.
func (s *DashboardService) Stats(ctx context.Context, caller *domain.Caller) (*domain.DashboardStats, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Stats")
	defer span.End()
	span.SetAttributes(attribute.String("user.role", string(caller.Role)))

	var (
		bonds    []domain.IssuerBond
		holdings []domain.InvestorHolding
	)
	g, gCtx := errgroup.WithContext(ctx)
	if caller.Role == domain.RoleIssuer || caller.Role == domain.RoleAdmin {
		g.Go(func() error {
			b, err := s.store.ListIssuerBonds(gCtx, caller.UserID)
			if err != nil {
				return fmt.Errorf("issuer bonds: %w", err)
			}
			bonds = b
			return nil
		})
	}
	if caller.Role == domain.RoleInvestor || caller.Role == domain.RoleAdmin {
		g.Go(func() error {
			h, err := s.store.ListInvestorHoldings(gCtx, caller.UserID)
			if err != nil {
				return fmt.Errorf("investor holdings: %w", err)
			}
			holdings = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RoleIssuer:
		return IssuerStats(bonds), nil
	case domain.RoleInvestor:
		return InvestorStats(holdings), nil
	}
	issuer, investor := IssuerStats(bonds), InvestorStats(holdings)
	return &domain.DashboardStats{
		Role:              caller.Role,
		TotalBonds:        issuer.TotalBonds,
		ActiveBonds:       issuer.ActiveBonds,
		TotalInvestments:  issuer.TotalInvestments + investor.TotalInvestments,
		ActiveInvestments: issuer.ActiveInvestments + investor.ActiveInvestments,
		TotalInvested:     issuer.TotalInvested + investor.TotalInvested,
		TotalReturns:      investor.TotalReturns,
		AverageRate:       issuer.AverageRate,
		PortfolioValue:    investor.PortfolioValue,
	}, nil
}

// IssuerStats aggregates an issuer's bonds. Returns are not tracked on the
// issuer side, so the portfolio value is the money raised.
func IssuerStats(bonds []domain.IssuerBond) *domain.DashboardStats {
	st := &domain.DashboardStats{Role: domain.RoleIssuer, TotalBonds: len(bonds)}
	var rateSum float64
	for _, b := range bonds {
		if b.Status == domain.BondActive {
			st.ActiveBonds++
		}
		rateSum += b.InterestRate
		for _, inv := range b.Investments {
			st.TotalInvestments++
			if inv.Status == domain.InvestmentActive {
				st.ActiveInvestments++
			}
			st.TotalInvested += inv.Amount
		}
	}
	if len(bonds) > 0 {
		st.AverageRate = rateSum / float64(len(bonds))
	}
	st.PortfolioValue = st.TotalInvested
	return st
}

// InvestorStats aggregates an investor's holdings. Returns count paid
// payments only.
func InvestorStats(holdings []domain.InvestorHolding) *domain.DashboardStats {
	st := &domain.DashboardStats{Role: domain.RoleInvestor, TotalInvestments: len(holdings)}
	var (
		rateSum float64
		rated   int
	)
	for _, h := range holdings {
		if h.Status == domain.InvestmentActive {
			st.ActiveInvestments++
		}
		st.TotalInvested += h.Amount
		for _, p := range h.Payments {
			if p.Status == domain.PaymentPaid {
				st.TotalReturns += p.Amount
			}
		}
		if h.Bond != nil {
			rateSum += h.Bond.InterestRate
			rated++
		}
	}
	if rated > 0 {
		st.AverageRate = rateSum / float64(rated)
	}
	st.PortfolioValue = st.TotalInvested + st.TotalReturns
	return st
}
