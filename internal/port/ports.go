// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// BondStore persists bonds. Implemented by the Supabase adapter.
type BondStore interface {
	ListBonds(ctx context.Context, f domain.BondFilters, p domain.Pagination) ([]domain.BondWithIssuer, int, error)
	GetBond(ctx context.Context, bondID string) (*domain.BondWithIssuer, error)
	CreateBond(ctx context.Context, b *domain.Bond) (*domain.Bond, error)
	UpdateBond(ctx context.Context, bondID string, changes map[string]any) (*domain.Bond, error)
	DeleteBond(ctx context.Context, bondID string) error
}

// InvestmentStore persists investments.
type InvestmentStore interface {
	ListInvestments(ctx context.Context, f domain.InvestmentFilters, p domain.Pagination) ([]domain.InvestmentWithDetails, int, error)
	GetInvestment(ctx context.Context, investmentID string) (*domain.InvestmentWithDetails, error)
	CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error)
	DeleteInvestment(ctx context.Context, investmentID string) error
}

// PaymentStore persists payment plans.
type PaymentStore interface {
	ListPayments(ctx context.Context, f domain.PaymentFilters, p domain.Pagination) ([]domain.Payment, int, error)
	CreatePayments(ctx context.Context, payments []domain.Payment) ([]domain.Payment, error)
}

// ProfileStore reads and updates user profiles.
type ProfileStore interface {
	GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, changes map[string]any) (*domain.Profile, error)
}

// DashboardStore loads the nested rows the dashboard aggregates.
type DashboardStore interface {
	ListIssuerBonds(ctx context.Context, emisorID string) ([]domain.IssuerBond, error)
	ListInvestorHoldings(ctx context.Context, investorID string) ([]domain.InvestorHolding, error)
}

// HealthChecker reports whether a dependency answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
