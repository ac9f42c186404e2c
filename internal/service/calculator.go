package service

import (
	"context"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/display"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var calcTracer = otel.Tracer("service/calculator")

// CalculatorService computes schedules for ad-hoc terms that are not stored
// as a bond.
type CalculatorService struct {
	formatter     *display.Formatter
	defaultMethod amortization.Method
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewCalculatorService creates a calculator.
func NewCalculatorService(formatter *display.Formatter, defaultMethod amortization.Method, metrics *observability.Metrics, logger *zap.Logger) *CalculatorService {
	if !defaultMethod.Valid() {
		defaultMethod = amortization.MethodBullet
	}
	return &CalculatorService{
		formatter:     formatter,
		defaultMethod: defaultMethod,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock that anchors requests without emission date.
func (s *CalculatorService) WithClock(now func() time.Time) *CalculatorService {
	s.now = now
	return s
}

// Terms validates req and converts it to engine terms.
func (s *CalculatorService) Terms(req *domain.ScheduleRequest) (amortization.Terms, error) {
	if err := validateStruct(req); err != nil {
		return amortization.Terms{}, err
	}
	anchor := s.now().UTC().Truncate(24 * time.Hour)
	if req.EmissionDate != "" {
		d, err := amortization.ParseDate(req.EmissionDate)
		if err != nil {
			return amortization.Terms{}, &domain.ErrValidation{Field: "emission_date", Message: "debe tener el formato YYYY-MM-DD"}
		}
		anchor = d
	}
	grace := req.Grace
	if grace == "" {
		grace = amortization.GraceNone
	}
	t := amortization.Terms{
		Principal:    req.Principal,
		AnnualRate:   req.AnnualRate,
		TermYears:    req.TermYears,
		Frequency:    req.Frequency,
		Grace:        grace,
		GracePeriods: req.GracePeriods,
		EmissionDate: anchor,
	}
	if err := validateGrace(t); err != nil {
		return amortization.Terms{}, err
	}
	return t, nil
}

// Schedule computes the schedule and yield summary for req. table adds the
// formatted display rows.
func (s *CalculatorService) Schedule(ctx context.Context, req *domain.ScheduleRequest, table bool) (*domain.ScheduleResponse, error) {
	_, span := calcTracer.Start(ctx, "CalculatorService.Schedule")
	defer span.End()

	t, err := s.Terms(req)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = s.defaultMethod
	}
	span.SetAttributes(
		attribute.String("schedule.method", string(method)),
		attribute.Int("schedule.periods", t.TotalPeriods()),
	)

	calc, summary := amortization.Calculate(method, t)
	s.metrics.RecordSchedule(string(calc.Method), len(calc.Schedule))

	resp := &domain.ScheduleResponse{Calculation: calc, Summary: summary}
	if table {
		resp.Table = s.formatter.Table(calc.Schedule)
	}
	return resp, nil
}

// ExpectedReturn projects the simple interest of an investment.
func (s *CalculatorService) ExpectedReturn(ctx context.Context, req *domain.ExpectedReturnRequest) (*domain.ExpectedReturnResponse, error) {
	_, span := calcTracer.Start(ctx, "CalculatorService.ExpectedReturn")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	r := amortization.ExpectedReturn(req.Amount, req.AnnualRate, req.TermYears)
	return &domain.ExpectedReturnResponse{
		Amount:          req.Amount,
		ExpectedReturn:  display.Round(r, 2),
		TotalAtMaturity: display.Round(req.Amount+r, 2),
	}, nil
}
