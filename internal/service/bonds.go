// Package service provides the business logic layer (use cases) of the bond
// marketplace: bonds, schedules, investments, payments, profiles and the
// dashboard.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/display"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var bondTracer = otel.Tracer("service/bonds")

// BondService manages bond listings and computes their schedules.
type BondService struct {
	store         port.BondStore
	cache         port.Cache[*domain.BondWithIssuer]
	formatter     *display.Formatter
	defaultMethod amortization.Method
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewBondService creates a bond service. defaultMethod applies to bonds that
// do not record a schedule method.
func NewBondService(
	store port.BondStore,
	cache port.Cache[*domain.BondWithIssuer],
	formatter *display.Formatter,
	defaultMethod amortization.Method,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BondService {
	if !defaultMethod.Valid() {
		defaultMethod = amortization.MethodBullet
	}
	return &BondService{
		store:         store,
		cache:         cache,
		formatter:     formatter,
		defaultMethod: defaultMethod,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for days-to-maturity.
func (s *BondService) WithClock(now func() time.Time) *BondService {
	s.now = now
	return s
}

// ============================================================
// Listing & CRUD
// ============================================================

func (s *BondService) List(ctx context.Context, f domain.BondFilters, p domain.Pagination) (*domain.ListResponse[domain.BondWithIssuer], error) {
	ctx, span := bondTracer.Start(ctx, "BondService.List")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("bonds.list", time.Since(start)) }()

	rows, total, err := s.store.ListBonds(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list bonds: %w", err)
	}
	resp := domain.NewListResponse(rows, total, p)
	return &resp, nil
}

// Get returns the bond with its issuer and the maturity figures of the
// detail page.
func (s *BondService) Get(ctx context.Context, bondID string) (*domain.BondDetail, error) {
	ctx, span := bondTracer.Start(ctx, "BondService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("bond.id", bondID))

	b, err := s.bond(ctx, bondID)
	if err != nil {
		return nil, err
	}
	return &domain.BondDetail{
		BondWithIssuer: *b,
		MaturityDate:   display.FormatDate(b.MaturityDate()),
		DaysToMaturity: b.DaysToMaturity(s.now()),
		TotalExpenses:  b.TotalExpenses(),
	}, nil
}

// Create lists a new bond for the calling issuer. New bonds start inactive
// until the issuer publishes them.
func (s *BondService) Create(ctx context.Context, caller *domain.Caller, req *domain.CreateBondRequest) (*domain.Bond, error) {
	ctx, span := bondTracer.Start(ctx, "BondService.Create")
	defer span.End()

	if caller.Role != domain.RoleIssuer && caller.Role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "solo los emisores pueden crear bonos"}
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	b := &domain.Bond{
		EmisorID:            caller.UserID,
		Name:                req.Name,
		Description:         req.Description,
		NominalValue:        req.NominalValue,
		InterestRate:        req.InterestRate,
		DiscountRate:        req.DiscountRate,
		RateType:            req.RateType,
		GracePeriod:         req.GracePeriod,
		GracePeriods:        req.GracePeriods,
		ScheduleMethod:      req.ScheduleMethod,
		EmissionExpenses:    req.EmissionExpenses,
		PlacementExpenses:   req.PlacementExpenses,
		StructuringExpenses: req.StructuringExpenses,
		CavaliExpenses:      req.CavaliExpenses,
		EmissionDate:        req.EmissionDate,
		TermYears:           req.TermYears,
		PaymentFrequency:    req.PaymentFrequency,
		Status:              domain.BondInactive,
	}
	if b.ScheduleMethod == "" {
		b.ScheduleMethod = s.defaultMethod
	}
	if err := validateGrace(b.Terms(b.NominalValue)); err != nil {
		return nil, err
	}

	created, err := s.store.CreateBond(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create bond: %w", err)
	}

	s.logger.Info("bond created",
		zap.String("bond_id", created.ID),
		zap.String("emisor_id", caller.UserID),
		zap.String("method", string(b.ScheduleMethod)),
	)
	return created, nil
}

// Update applies a partial change. Only the issuing owner (or an admin) may
// change a bond.
func (s *BondService) Update(ctx context.Context, caller *domain.Caller, bondID string, req *domain.UpdateBondRequest) (*domain.Bond, error) {
	ctx, span := bondTracer.Start(ctx, "BondService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("bond.id", bondID))

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, caller, bondID, "modificar")
	if err != nil {
		return nil, err
	}

	merged := req.Apply(current.Bond)
	if err := validateGrace(merged.Terms(merged.NominalValue)); err != nil {
		return nil, err
	}
	changes := req.Changes()
	if len(changes) == 0 {
		return &current.Bond, nil
	}

	updated, err := s.store.UpdateBond(ctx, bondID, changes)
	if err != nil {
		return nil, fmt.Errorf("update bond: %w", err)
	}
	s.cache.Delete(bondCacheKey(bondID))
	return updated, nil
}

// Delete removes a bond owned by the caller.
func (s *BondService) Delete(ctx context.Context, caller *domain.Caller, bondID string) error {
	ctx, span := bondTracer.Start(ctx, "BondService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("bond.id", bondID))

	if _, err := s.owned(ctx, caller, bondID, "eliminar"); err != nil {
		return err
	}
	if err := s.store.DeleteBond(ctx, bondID); err != nil {
		return fmt.Errorf("delete bond: %w", err)
	}
	s.cache.Delete(bondCacheKey(bondID))

	s.logger.Info("bond deleted", zap.String("bond_id", bondID), zap.String("by", caller.UserID))
	return nil
}

// ============================================================
// Schedules
// ============================================================

// ScheduleOptions select how a bond schedule is computed and shown.
type ScheduleOptions struct {
	Method string  // empty: the bond's own method
	Amount float64 // zero: the bond's nominal value
	Table  bool    // add the formatted display rows
}

// Schedule computes the payment schedule of a bond, anchored on its emission
// date.
func (s *BondService) Schedule(ctx context.Context, bondID string, opts ScheduleOptions) (*domain.ScheduleResponse, error) {
	ctx, span := bondTracer.Start(ctx, "BondService.Schedule")
	defer span.End()
	span.SetAttributes(attribute.String("bond.id", bondID))

	method, err := validateMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	if opts.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "debe ser mayor que 0"}
	}

	b, err := s.bond(ctx, bondID)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = b.Method(s.defaultMethod)
	}
	principal := opts.Amount
	if principal == 0 {
		principal = b.NominalValue
	}

	calc, summary := amortization.Calculate(method, b.Terms(principal))
	s.metrics.RecordSchedule(string(calc.Method), len(calc.Schedule))

	resp := &domain.ScheduleResponse{BondID: bondID, Calculation: calc, Summary: summary}
	if opts.Table {
		resp.Table = s.formatter.Table(calc.Schedule)
	}
	return resp, nil
}

// Yield summarizes what an investment of amount in the bond would earn.
func (s *BondService) Yield(ctx context.Context, bondID string, amount float64) (*domain.ScheduleResponse, error) {
	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "debe ser mayor que 0"}
	}
	return s.Schedule(ctx, bondID, ScheduleOptions{Amount: amount})
}

// ============================================================
// Helpers
// ============================================================

func bondCacheKey(id string) string { return "bond:" + id }

// bond reads a bond through the cache.
func (s *BondService) bond(ctx context.Context, bondID string) (*domain.BondWithIssuer, error) {
	key := bondCacheKey(bondID)
	if b, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("bond")
		return b, nil
	}
	s.metrics.IncrCacheMiss("bond")

	b, err := s.store.GetBond(ctx, bondID)
	if err != nil {
		return nil, fmt.Errorf("get bond: %w", err)
	}
	s.cache.Set(key, b)
	return b, nil
}

// owned loads a bond straight from the store and checks the caller may
// change it.
func (s *BondService) owned(ctx context.Context, caller *domain.Caller, bondID, action string) (*domain.BondWithIssuer, error) {
	b, err := s.store.GetBond(ctx, bondID)
	if err != nil {
		return nil, fmt.Errorf("get bond: %w", err)
	}
	if caller.Role != domain.RoleAdmin && b.EmisorID != caller.UserID {
		return nil, &domain.ErrForbidden{Action: "solo el emisor del bono puede " + action + "lo"}
	}
	return b, nil
}
