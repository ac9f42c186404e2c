package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestIssuerStats(t *testing.T) {
	bonds := []domain.IssuerBond{
		{
			Bond: domain.Bond{InterestRate: 8, Status: domain.BondActive},
			Investments: []domain.Investment{
				{Amount: 1000, Status: domain.InvestmentActive},
				{Amount: 500, Status: domain.InvestmentCompleted},
			},
		},
		{Bond: domain.Bond{InterestRate: 12, Status: domain.BondInactive}},
	}
	st := service.IssuerStats(bonds)

	if st.TotalBonds != 2 || st.ActiveBonds != 1 {
		t.Errorf("unexpected bond counts %d/%d", st.TotalBonds, st.ActiveBonds)
	}
	if st.TotalInvestments != 2 || st.ActiveInvestments != 1 {
		t.Errorf("unexpected investment counts %d/%d", st.TotalInvestments, st.ActiveInvestments)
	}
	if st.TotalInvested != 1500 || st.PortfolioValue != 1500 {
		t.Errorf("unexpected totals %f/%f", st.TotalInvested, st.PortfolioValue)
	}
	if st.AverageRate != 10 {
		t.Errorf("expected average rate 10, got %f", st.AverageRate)
	}
}

func TestInvestorStats(t *testing.T) {
	holdings := []domain.InvestorHolding{
		{
			Investment: domain.Investment{Amount: 2000, Status: domain.InvestmentActive},
			Bond:       &domain.Bond{InterestRate: 9},
			Payments: []domain.Payment{
				{Amount: 90, Status: domain.PaymentPaid},
				{Amount: 90, Status: domain.PaymentPending},
			},
		},
		{Investment: domain.Investment{Amount: 1000, Status: domain.InvestmentMatured}},
	}
	st := service.InvestorStats(holdings)

	if st.TotalInvestments != 2 || st.ActiveInvestments != 1 {
		t.Errorf("unexpected counts %d/%d", st.TotalInvestments, st.ActiveInvestments)
	}
	if st.TotalReturns != 90 {
		t.Errorf("expected returns from paid payments only, got %f", st.TotalReturns)
	}
	if st.PortfolioValue != 3090 {
		t.Errorf("expected portfolio 3090, got %f", st.PortfolioValue)
	}
	if st.AverageRate != 9 {
		t.Errorf("expected average over rated holdings, got %f", st.AverageRate)
	}
}

func TestInvestorStats_Empty(t *testing.T) {
	st := service.InvestorStats(nil)
	if st.AverageRate != 0 || st.PortfolioValue != 0 {
		t.Errorf("expected zero stats, got %+v", st)
	}
}

func TestDashboardStats_ByRole(t *testing.T) {
	store := &mockDashboardStore{
		bonds: []domain.IssuerBond{{
			Bond:        domain.Bond{InterestRate: 6, Status: domain.BondActive},
			Investments: []domain.Investment{{Amount: 400, Status: domain.InvestmentActive}},
		}},
		holdings: []domain.InvestorHolding{{
			Investment: domain.Investment{Amount: 100, Status: domain.InvestmentActive},
			Payments:   []domain.Payment{{Amount: 5, Status: domain.PaymentPaid}},
		}},
	}
	svc := service.NewDashboardService(store, zap.NewNop())
	ctx := context.Background()

	st, err := svc.Stats(ctx, issuer)
	if err != nil {
		t.Fatal(err)
	}
	if st.Role != domain.RoleIssuer || st.TotalInvested != 400 || st.TotalReturns != 0 {
		t.Errorf("unexpected issuer stats %+v", st)
	}

	st, err = svc.Stats(ctx, investor)
	if err != nil {
		t.Fatal(err)
	}
	if st.Role != domain.RoleInvestor || st.TotalInvested != 100 || st.TotalReturns != 5 {
		t.Errorf("unexpected investor stats %+v", st)
	}

	st, err = svc.Stats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if st.Role != domain.RoleAdmin || st.TotalBonds != 1 || st.TotalInvested != 500 || st.TotalInvestments != 2 {
		t.Errorf("unexpected admin stats %+v", st)
	}
}

func TestDashboardStats_StoreError(t *testing.T) {
	svc := service.NewDashboardService(&mockDashboardStore{err: errors.New("boom")}, zap.NewNop())
	if _, err := svc.Stats(context.Background(), investor); err == nil {
		t.Fatal("expected error")
	}
}
