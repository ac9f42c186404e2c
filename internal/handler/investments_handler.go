package handler

import (
	"net/http"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Investments & payments
// ============================================================

func listInvestmentsHandler(svc *service.InvestmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/investments")
		defer span.End()

		status, ok := queryEnum(w, r, "status",
			string(domain.InvestmentActive), string(domain.InvestmentCompleted),
			string(domain.InvestmentCancelled), string(domain.InvestmentMatured))
		if !ok {
			return
		}

		q := r.URL.Query()
		f := domain.InvestmentFilters{
			InvestorID: q.Get("investor_id"),
			Search:     q.Get("search"),
			Status:     status,
			BondID:     q.Get("bond_id"),
			DateFrom:   q.Get("date_from"),
			DateTo:     q.Get("date_to"),
			AmountMin:  queryFloat(r, "amount_min"),
			AmountMax:  queryFloat(r, "amount_max"),
			SortBy:     q.Get("sort_by"),
			SortOrder:  q.Get("sort_order"),
		}
		resp, err := svc.List(ctx, CallerFromContext(ctx), f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createInvestmentHandler(svc *service.InvestmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/investments")
		defer span.End()

		var req domain.CreateInvestmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		inv, err := svc.Create(ctx, CallerFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, inv)
	}
}

func getInvestmentHandler(svc *service.InvestmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/investments/{investmentId}")
		defer span.End()

		investmentID, ok := pathID(w, r, "investmentId")
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("investment.id", investmentID))

		inv, err := svc.Get(ctx, CallerFromContext(ctx), investmentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func listPaymentsHandler(svc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/payments")
		defer span.End()

		status, ok := queryEnum(w, r, "status",
			string(domain.PaymentPending), string(domain.PaymentPaid),
			string(domain.PaymentOverdue), string(domain.PaymentCancelled))
		if !ok {
			return
		}
		types, ok := queryEnum(w, r, "type",
			string(domain.PaymentCoupon), string(domain.PaymentPrincipal), string(domain.PaymentCouponPrincipal))
		if !ok {
			return
		}

		q := r.URL.Query()
		f := domain.PaymentFilters{
			InvestorID:   q.Get("investor_id"),
			InvestmentID: q.Get("investment_id"),
			Status:       status,
			Type:         types,
			DateFrom:     q.Get("date_from"),
			DateTo:       q.Get("date_to"),
			SortBy:       q.Get("sort_by"),
			SortOrder:    q.Get("sort_order"),
		}
		resp, err := svc.List(ctx, CallerFromContext(ctx), f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
