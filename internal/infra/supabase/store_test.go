package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	return NewClient(srv.Client(), srv.URL, "anon", "service", nil, cfg, m, zap.NewNop()), m
}

func TestQuery_String(t *testing.T) {
	q := From("bonds").
		Select("*,\n  emisor:profiles!bonds_emisor_id_fkey(*)").
		Eq("emisor_id", "u1").
		In("status", []string{"active", "matured"}).
		In("type", nil).
		Gte("interest_rate", "5").
		Order("created_at", false).
		Order("name", true).
		Limit(10).
		Offset(20)

	path := q.String()
	if !strings.HasPrefix(path, "bonds?") {
		t.Fatalf("unexpected path %s", path)
	}
	r := httptest.NewRequest(http.MethodGet, "/rest/v1/"+path, nil)
	v := r.URL.Query()
	checks := map[string]string{
		"select":        "*,emisor:profiles!bonds_emisor_id_fkey(*)",
		"emisor_id":     "eq.u1",
		"status":        "in.(active,matured)",
		"interest_rate": "gte.5",
		"order":         "created_at.desc,name.asc",
		"limit":         "10",
		"offset":        "20",
	}
	for k, want := range checks {
		if got := v.Get(k); got != want {
			t.Errorf("%s: expected %q, got %q", k, want, got)
		}
	}
	if v.Has("type") {
		t.Error("empty In must not add a filter")
	}
	if From("profiles").String() != "profiles" {
		t.Error("bare query should render the table only")
	}
}

func TestParseContentRange(t *testing.T) {
	cases := map[string]int{"0-9/42": 42, "*/0": 0, "0-9/*": -1, "garbage": -1}
	for in, want := range cases {
		if got := parseContentRange(in); got != want {
			t.Errorf("parseContentRange(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestQuery_InDropsListDelimiters(t *testing.T) {
	path := From("payments").In("status", []string{"pending)", `"paid"`, "(),"}).String()
	r := httptest.NewRequest(http.MethodGet, "/rest/v1/"+path, nil)
	if got := r.URL.Query().Get("status"); got != "in.(pending,paid)" {
		t.Errorf("unexpected filter %q", got)
	}

	path = From("payments").In("status", []string{"()"}).String()
	if path != "payments" {
		t.Errorf("values that clean to nothing must not add a filter, got %s", path)
	}
}

func TestIlikeTerm(t *testing.T) {
	if got := ilikeTerm(" verde,(x)* "); got != "*verdex*" {
		t.Errorf("unexpected term %q", got)
	}
}

func TestListBonds_FiltersAndCount(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("missing auth headers")
		}
		if r.Header.Get("Prefer") != "count=exact" {
			t.Errorf("expected count=exact, got %q", r.Header.Get("Prefer"))
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Range", "0-0/7")
		w.Write([]byte(`[{"id":"b1","name":"Bono Verde","interest_rate":8,"emisor":{"id":"p1","user_id":"u1","first_name":"Ana","role":"emisor"}}]`))
	})

	min := 5.0
	bonds, total, err := c.ListBonds(context.Background(), domain.BondFilters{
		Search:          "verde",
		Status:          []string{"active"},
		InterestRateMin: &min,
		SortBy:          "drop table",
	}, domain.Pagination{Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 || len(bonds) != 1 {
		t.Fatalf("expected 1 of 7 bonds, got %d of %d", len(bonds), total)
	}
	if bonds[0].Emisor == nil || bonds[0].Emisor.FirstName != "Ana" {
		t.Errorf("expected embedded issuer, got %+v", bonds[0].Emisor)
	}

	r := httptest.NewRequest(http.MethodGet, "/?"+gotQuery, nil)
	v := r.URL.Query()
	if v.Get("or") != "(name.ilike.*verde*,description.ilike.*verde*)" {
		t.Errorf("unexpected or filter %q", v.Get("or"))
	}
	if v.Get("order") != "created_at.desc" {
		t.Errorf("unknown sort column should fall back, got %q", v.Get("order"))
	}
	if v.Get("offset") != "1" || v.Get("interest_rate") != "gte.5" {
		t.Errorf("unexpected paging/filters: %s", gotQuery)
	}
}

func TestGetBond_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[]`))
	})

	_, err := c.GetBond(context.Background(), "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s := m.Snapshot(nil, nil, []string{"bonds"}); s.StoreErrors != 0 {
		t.Errorf("not found must not count as a store error")
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id":"p1","user_id":"u1","role":"inversionista"}]`))
	})

	p, err := c.GetProfileByUserID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if p.Role != domain.RoleInvestor || calls != 3 {
		t.Errorf("unexpected profile %+v after %d calls", p, calls)
	}
	if s := m.Snapshot(nil, nil, []string{"profiles"}); s.StoreErrors != 0 {
		t.Errorf("recovered call must not count as a store error")
	}
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad filter"}`))
	})

	_, _, err := c.ListPayments(context.Background(), domain.PaymentFilters{}, domain.Pagination{})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Errorf("expected wrapped 400, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s := m.Snapshot(nil, nil, []string{"payments"}); s.StoreErrors != 1 {
		t.Errorf("expected 1 store error, got %v", s.StoreErrors)
	}
}

func TestClient_ConflictMapsToDomain(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`duplicate key`))
	})
	_, err := c.CreateBond(context.Background(), &domain.Bond{Name: "x"})
	var ce *domain.ErrConflict
	if !errors.As(err, &ce) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreatePayments_BulkInsert(t *testing.T) {
	var received []map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/payments" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("expected return=representation")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("expected a JSON array: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	})

	plan := []domain.Payment{
		{InvestmentID: "i1", Amount: 50, ScheduledDate: "2024-07-15", Type: domain.PaymentCoupon, Status: domain.PaymentPending, CouponNumber: 1, Interest: 50, RemainingBalance: 1000},
		{InvestmentID: "i1", Amount: 1050, ScheduledDate: "2025-01-15", Type: domain.PaymentCouponPrincipal, Status: domain.PaymentPending, CouponNumber: 2, Interest: 50, Principal: 1000},
	}
	created, err := c.CreatePayments(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(received) != 2 || len(created) != 2 {
		t.Fatalf("expected 2 rows sent and returned, got %d/%d", len(received), len(created))
	}
	if created[1].Principal != 1000 || created[1].Type != domain.PaymentCouponPrincipal {
		t.Errorf("unexpected row %+v", created[1])
	}

	if got, err := c.CreatePayments(context.Background(), nil); err != nil || len(got) != 0 {
		t.Errorf("empty plan should be a no-op, got %v %v", got, err)
	}
}

func TestGetInvestment_DerivesTotals(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"i1","bond_id":"b1","amount":1000,"status":"active",
			"bond":{"id":"b1","name":"Bono","emisor":{"id":"p1","role":"emisor"}},
			"payments":[
				{"id":"p1","amount":50,"status":"paid","scheduled_date":"2024-07-15"},
				{"id":"p2","amount":1050,"status":"pending","scheduled_date":"2025-01-15"}
			]}]`))
	})

	inv, err := c.GetInvestment(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.TotalPaid != 50 || inv.NextPayment == nil || inv.NextPayment.ID != "p2" {
		t.Errorf("unexpected derived values: paid=%f next=%+v", inv.TotalPaid, inv.NextPayment)
	}
	if inv.Bond == nil || inv.Bond.Emisor == nil {
		t.Errorf("expected embedded bond and issuer")
	}
}

func TestUpdateAndDeleteBond(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "Nuevo" || body["updated_at"] == nil {
				t.Errorf("unexpected patch body %v", body)
			}
			w.Write([]byte(`[{"id":"b1","name":"Nuevo"}]`))
		case http.MethodDelete:
			if r.URL.Query().Get("id") == "eq.gone" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"id":"b1"}]`))
		}
	})

	b, err := c.UpdateBond(context.Background(), "b1", map[string]any{"name": "Nuevo"})
	if err != nil || b.Name != "Nuevo" {
		t.Fatalf("unexpected update result %+v %v", b, err)
	}
	if err := c.DeleteBond(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	var nf *domain.ErrNotFound
	if err := c.DeleteBond(context.Background(), "gone"); !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardQueries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/bonds":
			if r.URL.Query().Get("emisor_id") != "eq.u1" {
				t.Errorf("expected issuer filter")
			}
			w.Write([]byte(`[{"id":"b1","status":"active","interest_rate":8,"investments":[{"id":"i1","amount":500,"status":"active"}]}]`))
		case "/rest/v1/investments":
			w.Write([]byte(`[{"id":"i1","amount":500,"status":"active","bond":{"id":"b1","interest_rate":8},"payments":[]}]`))
		}
	})

	bonds, err := c.ListIssuerBonds(context.Background(), "u1")
	if err != nil || len(bonds) != 1 || len(bonds[0].Investments) != 1 {
		t.Fatalf("unexpected issuer bonds %+v %v", bonds, err)
	}
	holdings, err := c.ListInvestorHoldings(context.Background(), "u2")
	if err != nil || len(holdings) != 1 || holdings[0].Bond == nil {
		t.Fatalf("unexpected holdings %+v %v", holdings, err)
	}
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}
