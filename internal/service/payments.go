package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var paymentTracer = otel.Tracer("service/payments")

// PaymentService lists payment plans.
type PaymentService struct {
	store  port.PaymentStore
	logger *zap.Logger
}

// NewPaymentService creates a payment service.
func NewPaymentService(store port.PaymentStore, logger *zap.Logger) *PaymentService {
	return &PaymentService{store: store, logger: logger}
}

// List returns payments of the caller's investments. Admins see all.
func (s *PaymentService) List(ctx context.Context, caller *domain.Caller, f domain.PaymentFilters, p domain.Pagination) (*domain.ListResponse[domain.Payment], error) {
	ctx, span := paymentTracer.Start(ctx, "PaymentService.List")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		f.InvestorID = caller.UserID
	}
	rows, total, err := s.store.ListPayments(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	resp := domain.NewListResponse(rows, total, p)
	return &resp, nil
}
