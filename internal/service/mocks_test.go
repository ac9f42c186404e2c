package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
)

// --- Mocks ---

type mockBondStore struct {
	mu      sync.Mutex
	bonds   map[string]*domain.BondWithIssuer
	gets    int
	created *domain.Bond
	changes map[string]any
	deleted string
	err     error
}

func newMockBondStore(bonds ...domain.BondWithIssuer) *mockBondStore {
	m := &mockBondStore{bonds: map[string]*domain.BondWithIssuer{}}
	for i := range bonds {
		m.bonds[bonds[i].ID] = &bonds[i]
	}
	return m
}

func (m *mockBondStore) ListBonds(_ context.Context, f domain.BondFilters, _ domain.Pagination) ([]domain.BondWithIssuer, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []domain.BondWithIssuer
	for _, b := range m.bonds {
		if f.EmisorID != "" && b.EmisorID != f.EmisorID {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *mockBondStore) GetBond(_ context.Context, id string) (*domain.BondWithIssuer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.bonds[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bond", ID: id}
	}
	return b, nil
}

func (m *mockBondStore) CreateBond(_ context.Context, b *domain.Bond) (*domain.Bond, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := *b
	out.ID = "bond-new"
	m.created = &out
	return &out, nil
}

func (m *mockBondStore) UpdateBond(_ context.Context, id string, changes map[string]any) (*domain.Bond, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.changes = changes
	b := m.bonds[id].Bond
	return &b, nil
}

func (m *mockBondStore) DeleteBond(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockInvestmentStore struct {
	created   *domain.Investment
	details   *domain.InvestmentWithDetails
	filters   domain.InvestmentFilters
	deleted   string
	createErr error
}

func (m *mockInvestmentStore) ListInvestments(_ context.Context, f domain.InvestmentFilters, _ domain.Pagination) ([]domain.InvestmentWithDetails, int, error) {
	m.filters = f
	if m.details == nil {
		return nil, 0, nil
	}
	return []domain.InvestmentWithDetails{*m.details}, 1, nil
}

func (m *mockInvestmentStore) GetInvestment(_ context.Context, id string) (*domain.InvestmentWithDetails, error) {
	if m.details == nil || m.details.ID != id {
		return nil, &domain.ErrNotFound{Resource: "investment", ID: id}
	}
	return m.details, nil
}

func (m *mockInvestmentStore) CreateInvestment(_ context.Context, inv *domain.Investment) (*domain.Investment, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	out := *inv
	out.ID = "inv-1"
	m.created = &out
	return &out, nil
}

func (m *mockInvestmentStore) DeleteInvestment(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockPaymentStore struct {
	stored  []domain.Payment
	filters domain.PaymentFilters
	err     error
}

func (m *mockPaymentStore) ListPayments(_ context.Context, f domain.PaymentFilters, _ domain.Pagination) ([]domain.Payment, int, error) {
	m.filters = f
	return m.stored, len(m.stored), m.err
}

func (m *mockPaymentStore) CreatePayments(_ context.Context, payments []domain.Payment) ([]domain.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.stored = payments
	return payments, nil
}

type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	gets     int
	changes  map[string]any
	err      error
}

func newMockProfileStore(profiles ...domain.Profile) *mockProfileStore {
	m := &mockProfileStore{profiles: map[string]*domain.Profile{}}
	for i := range profiles {
		m.profiles[profiles[i].UserID] = &profiles[i]
	}
	return m
}

func (m *mockProfileStore) GetProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return p, nil
}

func (m *mockProfileStore) UpdateProfile(_ context.Context, userID string, changes map[string]any) (*domain.Profile, error) {
	m.changes = changes
	return m.profiles[userID], m.err
}

type mockDashboardStore struct {
	bonds    []domain.IssuerBond
	holdings []domain.InvestorHolding
	err      error
}

func (m *mockDashboardStore) ListIssuerBonds(_ context.Context, _ string) ([]domain.IssuerBond, error) {
	return m.bonds, m.err
}

func (m *mockDashboardStore) ListInvestorHoldings(_ context.Context, _ string) ([]domain.InvestorHolding, error) {
	return m.holdings, m.err
}
