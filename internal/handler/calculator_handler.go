package handler

import (
	"net/http"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Calculator: schedules for terms that are not (yet) a bond
// ============================================================

func calculatorScheduleHandler(svc *service.CalculatorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calculator/schedule")
		defer span.End()

		var req domain.ScheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := svc.Schedule(ctx, &req, r.URL.Query().Get("view") == "table")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func calculatorYieldHandler(svc *service.CalculatorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calculator/yield")
		defer span.End()

		var req domain.ScheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := svc.Schedule(ctx, &req, false)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, yieldResponse{
			InvestmentAmount: resp.InvestmentAmount,
			Method:           resp.Method,
			YieldSummary:     resp.Summary,
		})
	}
}

func expectedReturnHandler(svc *service.CalculatorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calculator/expected-return")
		defer span.End()

		var req domain.ExpectedReturnRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := svc.ExpectedReturn(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
