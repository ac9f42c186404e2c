package handler

import (
	"net/http"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Bonds
// ============================================================

func listBondsHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bonds")
		defer span.End()

		status, ok := queryEnum(w, r, "status",
			string(domain.BondActive), string(domain.BondInactive), string(domain.BondMatured))
		if !ok {
			return
		}

		q := r.URL.Query()
		f := domain.BondFilters{
			Search:          q.Get("search"),
			Status:          status,
			InterestRateMin: queryFloat(r, "interest_rate_min"),
			InterestRateMax: queryFloat(r, "interest_rate_max"),
			TermYearsMin:    queryInt(r, "term_years_min"),
			TermYearsMax:    queryInt(r, "term_years_max"),
			AmountMin:       queryFloat(r, "amount_min"),
			AmountMax:       queryFloat(r, "amount_max"),
			EmisorID:        q.Get("emisor_id"),
			SortBy:          q.Get("sort_by"),
			SortOrder:       q.Get("sort_order"),
		}

		resp, err := svc.List(ctx, f, parsePagination(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getBondHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bonds/{bondId}")
		defer span.End()

		bondID, ok := pathID(w, r, "bondId")
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("bond.id", bondID))

		detail, err := svc.Get(ctx, bondID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func createBondHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bonds")
		defer span.End()

		var req domain.CreateBondRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		bond, err := svc.Create(ctx, CallerFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, bond)
	}
}

func updateBondHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/bonds/{bondId}")
		defer span.End()

		bondID, ok := pathID(w, r, "bondId")
		if !ok {
			return
		}
		var req domain.UpdateBondRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		bond, err := svc.Update(ctx, CallerFromContext(ctx), bondID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bond)
	}
}

func deleteBondHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/bonds/{bondId}")
		defer span.End()

		bondID, ok := pathID(w, r, "bondId")
		if !ok {
			return
		}
		if err := svc.Delete(ctx, CallerFromContext(ctx), bondID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Schedules: GET /v1/bonds/{bondId}/schedule?method=&amount=&view=table
// ============================================================

func bondScheduleHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bonds/{bondId}/schedule")
		defer span.End()

		bondID, ok := pathID(w, r, "bondId")
		if !ok {
			return
		}
		q := r.URL.Query()
		opts := service.ScheduleOptions{
			Method: q.Get("method"),
			Table:  q.Get("view") == "table",
		}
		if q.Get("amount") != "" {
			amount := queryFloat(r, "amount")
			if amount == nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "debe ser un número", Field: "amount"})
				return
			}
			opts.Amount = *amount
		}
		span.SetAttributes(attribute.String("schedule.method", opts.Method))

		resp, err := svc.Schedule(ctx, bondID, opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// yieldResponse is the yield summary of an investment amount.
type yieldResponse struct {
	BondID           string              `json:"bond_id,omitempty"`
	InvestmentAmount float64             `json:"investment_amount"`
	Method           amortization.Method `json:"schedule_method"`
	amortization.YieldSummary
}

func bondYieldHandler(svc *service.BondService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bonds/{bondId}/yield")
		defer span.End()

		bondID, ok := pathID(w, r, "bondId")
		if !ok {
			return
		}
		amount := queryFloat(r, "amount")
		if amount == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "es obligatorio", Field: "amount"})
			return
		}

		resp, err := svc.Yield(ctx, bondID, *amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, yieldResponse{
			BondID:           bondID,
			InvestmentAmount: resp.InvestmentAmount,
			Method:           resp.Method,
			YieldSummary:     resp.Summary,
		})
	}
}
