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

var investmentTracer = otel.Tracer("service/investments")

// InvestmentService records investments and their payment plans.
type InvestmentService struct {
	bonds         port.BondStore
	investments   port.InvestmentStore
	payments      port.PaymentStore
	defaultMethod amortization.Method
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewInvestmentService creates an investment service.
func NewInvestmentService(
	bonds port.BondStore,
	investments port.InvestmentStore,
	payments port.PaymentStore,
	defaultMethod amortization.Method,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InvestmentService {
	if !defaultMethod.Valid() {
		defaultMethod = amortization.MethodBullet
	}
	return &InvestmentService{
		bonds:         bonds,
		investments:   investments,
		payments:      payments,
		defaultMethod: defaultMethod,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock that stamps investment dates.
func (s *InvestmentService) WithClock(now func() time.Time) *InvestmentService {
	s.now = now
	return s
}

// Create records an investment of the caller in an active bond, snapshots
// its expected return and stores the payment plan the bond's schedule yields
// for the invested amount.
func (s *InvestmentService) Create(ctx context.Context, caller *domain.Caller, req *domain.CreateInvestmentRequest) (*domain.InvestmentWithDetails, error) {
	ctx, span := investmentTracer.Start(ctx, "InvestmentService.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", caller.UserID),
		attribute.String("bond.id", req.BondID),
	)

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("investments.create", time.Since(start)) }()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// The caller's role was resolved at authentication, from the stored
	// profile or the sign-up metadata when no profile exists yet.
	if caller.Role != domain.RoleInvestor {
		return nil, &domain.ErrForbidden{Action: "solo los inversionistas pueden invertir"}
	}

	bond, err := s.bonds.GetBond(ctx, req.BondID)
	if err != nil {
		return nil, fmt.Errorf("get bond: %w", err)
	}
	if bond.Status != domain.BondActive {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("el bono %s no está disponible para inversión", bond.ID)}
	}

	now := s.now().UTC()
	inv := &domain.Investment{
		InvestorID:     caller.UserID,
		BondID:         bond.ID,
		Amount:         req.Amount,
		InvestmentDate: now.Format(time.RFC3339),
		Status:         domain.InvestmentActive,
		ExpectedReturn: display.Round(amortization.ExpectedReturn(req.Amount, bond.InterestRate, bond.TermYears), 2),
		MaturityDate:   bond.MaturityDate().Format(time.RFC3339),
	}
	created, err := s.investments.CreateInvestment(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}

	method := bond.Method(s.defaultMethod)
	schedule := amortization.Compute(method, bond.Terms(req.Amount))
	s.metrics.RecordSchedule(string(method), len(schedule))

	plan, err := s.payments.CreatePayments(ctx, PaymentPlan(created.ID, schedule))
	if err != nil {
		// an investment without its plan would never be paid: undo it
		if derr := s.investments.DeleteInvestment(context.WithoutCancel(ctx), created.ID); derr != nil {
			s.logger.Error("failed to roll back investment",
				zap.String("investment_id", created.ID),
				zap.Error(derr),
			)
		}
		return nil, fmt.Errorf("store payment plan: %w", err)
	}

	s.metrics.IncrInvestmentCreated()
	s.logger.Info("investment created",
		zap.String("investment_id", created.ID),
		zap.String("bond_id", bond.ID),
		zap.String("investor_id", caller.UserID),
		zap.Float64("amount", req.Amount),
		zap.String("method", string(method)),
		zap.Int("payments", len(plan)),
	)

	out := &domain.InvestmentWithDetails{Investment: *created, Bond: bond, Payments: plan}
	out.Derive()
	return out, nil
}

// PaymentPlan turns a schedule into pending payments rounded to cents.
// Periods that move no money (total grace) are left out.
func PaymentPlan(investmentID string, schedule []amortization.Row) []domain.Payment {
	plan := make([]domain.Payment, 0, len(schedule))
	for _, r := range schedule {
		interest := display.Round(r.Coupon, 2)
		principal := display.Round(r.Amortization, 2)
		if interest == 0 && principal == 0 {
			continue
		}
		plan = append(plan, domain.Payment{
			InvestmentID:     investmentID,
			Amount:           display.Round(interest+principal, 2),
			ScheduledDate:    display.FormatDate(r.PaymentDate),
			Type:             domain.PaymentTypeFor(interest, principal),
			Status:           domain.PaymentPending,
			CouponNumber:     r.Period,
			Interest:         interest,
			Principal:        principal,
			RemainingBalance: display.Round(r.ClosingBalance, 2),
		})
	}
	return plan
}

// List returns the caller's investments. Admins may list everyone's.
func (s *InvestmentService) List(ctx context.Context, caller *domain.Caller, f domain.InvestmentFilters, p domain.Pagination) (*domain.ListResponse[domain.InvestmentWithDetails], error) {
	ctx, span := investmentTracer.Start(ctx, "InvestmentService.List")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		f.InvestorID = caller.UserID
	}
	rows, total, err := s.investments.ListInvestments(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	resp := domain.NewListResponse(rows, total, p)
	return &resp, nil
}

// Get returns one investment visible to the caller: its investor, the
// issuer of its bond, or an admin.
func (s *InvestmentService) Get(ctx context.Context, caller *domain.Caller, investmentID string) (*domain.InvestmentWithDetails, error) {
	ctx, span := investmentTracer.Start(ctx, "InvestmentService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("investment.id", investmentID))

	inv, err := s.investments.GetInvestment(ctx, investmentID)
	if err != nil {
		return nil, fmt.Errorf("get investment: %w", err)
	}
	switch {
	case caller.Role == domain.RoleAdmin,
		inv.InvestorID == caller.UserID,
		inv.Bond != nil && inv.Bond.EmisorID == caller.UserID:
		return inv, nil
	}
	return nil, &domain.ErrForbidden{Action: "ver esta inversión"}
}
