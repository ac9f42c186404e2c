package amortization_test

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
)

const tol = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func date(s string) time.Time {
	t, err := time.Parse(amortization.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sumAmortization(rows []amortization.Row) float64 {
	var s float64
	for _, r := range rows {
		s += r.Amortization
	}
	return s
}

func assertContinuity(t *testing.T, rows []amortization.Row) {
	t.Helper()
	for i := 0; i+1 < len(rows); i++ {
		if rows[i].ClosingBalance != rows[i+1].OpeningBalance {
			t.Fatalf("row %d closing %.10f != row %d opening %.10f",
				rows[i].Period, rows[i].ClosingBalance, rows[i+1].Period, rows[i+1].OpeningBalance)
		}
	}
}

func assertFinite(t *testing.T, rows []amortization.Row) {
	t.Helper()
	for _, r := range rows {
		for _, v := range []float64{r.OpeningBalance, r.Coupon, r.Amortization, r.TotalFlow, r.ClosingBalance} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %d has non-finite value: %+v", r.Period, r)
			}
		}
	}
}

func TestBullet_SemiannualScenario(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   10,
		TermYears:    2,
		Frequency:    amortization.FrequencySemiannual,
		Grace:        amortization.GraceNone,
		EmissionDate: date("2024-01-15"),
	}

	rows := amortization.Bullet(terms)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	wantDates := []string{"2024-07-15", "2025-01-15", "2025-07-15", "2026-01-15"}
	for i, r := range rows {
		if r.Period != i+1 {
			t.Errorf("row %d: expected period %d, got %d", i, i+1, r.Period)
		}
		if got := r.PaymentDate.Format(amortization.DateLayout); got != wantDates[i] {
			t.Errorf("row %d: expected date %s, got %s", i, wantDates[i], got)
		}
		if !approx(r.Coupon, 50) {
			t.Errorf("row %d: expected coupon 50, got %f", i, r.Coupon)
		}
		if r.OpeningBalance != 1000 {
			t.Errorf("row %d: expected opening 1000, got %f", i, r.OpeningBalance)
		}
	}
	for _, r := range rows[:3] {
		if r.Amortization != 0 || !approx(r.TotalFlow, 50) || r.ClosingBalance != 1000 {
			t.Errorf("period %d: unexpected row %+v", r.Period, r)
		}
	}
	last := rows[3]
	if last.Amortization != 1000 || !approx(last.TotalFlow, 1050) || last.ClosingBalance != 0 {
		t.Errorf("unexpected final row %+v", last)
	}
}

func TestBullet_IgnoresGrace(t *testing.T) {
	terms := amortization.Terms{
		Principal:    2500,
		AnnualRate:   8,
		TermYears:    3,
		Frequency:    amortization.FrequencyQuarterly,
		Grace:        amortization.GraceTotal,
		GracePeriods: 4,
		EmissionDate: date("2024-03-01"),
	}
	rows := amortization.Bullet(terms)
	coupon := 2500 * 0.08 / 4
	for _, r := range rows {
		if !approx(r.Coupon, coupon) {
			t.Fatalf("period %d: expected coupon %f, got %f", r.Period, coupon, r.Coupon)
		}
		if r.Period < len(rows) && (r.Amortization != 0 || r.OpeningBalance != 2500) {
			t.Fatalf("period %d: bullet rows before maturity must not amortize: %+v", r.Period, r)
		}
	}
	assertContinuity(t, rows)
}

func TestSchedules_RowCount(t *testing.T) {
	cases := []struct {
		freq amortization.Frequency
		ppy  int
	}{
		{amortization.FrequencyAnnual, 1},
		{amortization.FrequencySemiannual, 2},
		{amortization.FrequencyQuarterly, 4},
		{amortization.FrequencyMonthly, 12},
		{"bimestral", amortization.DefaultPeriodsPerYear},
		{"", amortization.DefaultPeriodsPerYear},
	}
	for _, tc := range cases {
		t.Run(string(tc.freq), func(t *testing.T) {
			terms := amortization.Terms{
				Principal:    1000,
				AnnualRate:   7.5,
				TermYears:    5,
				Frequency:    tc.freq,
				EmissionDate: date("2024-01-01"),
			}
			want := 5 * tc.ppy
			if got := len(amortization.Bullet(terms)); got != want {
				t.Errorf("bullet: expected %d rows, got %d", want, got)
			}
			if got := len(amortization.DecliningBalance(terms)); got != want {
				t.Errorf("declining: expected %d rows, got %d", want, got)
			}
		})
	}
}

func TestSchedules_ZeroTermYieldsNoRows(t *testing.T) {
	terms := amortization.Terms{Principal: 1000, AnnualRate: 10, TermYears: 0, Frequency: amortization.FrequencyMonthly}
	if rows := amortization.DecliningBalance(terms); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if rows := amortization.Bullet(terms); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestDecliningBalance_MonthlyAnnuity(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   12,
		TermYears:    1,
		Frequency:    amortization.FrequencyMonthly,
		Grace:        amortization.GraceNone,
		EmissionDate: date("2024-01-31"),
	}
	rows := amortization.DecliningBalance(terms)
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}

	level := 1000 * 0.01 * math.Pow(1.01, 12) / (math.Pow(1.01, 12) - 1)
	for _, r := range rows {
		if !approx(r.TotalFlow, level) {
			t.Errorf("period %d: expected level flow %.6f, got %.6f", r.Period, level, r.TotalFlow)
		}
		if !approx(r.Coupon+r.Amortization, r.TotalFlow) {
			t.Errorf("period %d: coupon + amortization != total flow", r.Period)
		}
	}
	if !approx(rows[0].Coupon, 10) {
		t.Errorf("expected first coupon 10, got %f", rows[0].Coupon)
	}
	if rows[11].ClosingBalance != 0 {
		t.Errorf("expected final closing balance 0, got %g", rows[11].ClosingBalance)
	}
	if s := sumAmortization(rows); !approx(s, 1000) {
		t.Errorf("expected amortization to sum to 1000, got %.10f", s)
	}
	assertContinuity(t, rows)

	if got := rows[0].PaymentDate.Format(amortization.DateLayout); got != "2024-02-29" {
		t.Errorf("expected first payment clamped to 2024-02-29, got %s", got)
	}
	if got := rows[1].PaymentDate.Format(amortization.DateLayout); got != "2024-03-31" {
		t.Errorf("expected second payment 2024-03-31, got %s", got)
	}
}

func TestDecliningBalance_ConservesPrincipal(t *testing.T) {
	for _, freq := range []amortization.Frequency{
		amortization.FrequencyAnnual,
		amortization.FrequencySemiannual,
		amortization.FrequencyQuarterly,
		amortization.FrequencyMonthly,
	} {
		for _, rate := range []float64{0, 0.5, 6, 18, 100} {
			terms := amortization.Terms{
				Principal:    15000,
				AnnualRate:   rate,
				TermYears:    7,
				Frequency:    freq,
				EmissionDate: date("2023-06-30"),
			}
			rows := amortization.DecliningBalance(terms)
			assertFinite(t, rows)
			assertContinuity(t, rows)
			if s := sumAmortization(rows); !approx(s, 15000) {
				t.Errorf("%s @ %.1f%%: amortization sums to %.8f", freq, rate, s)
			}
			if last := rows[len(rows)-1]; last.ClosingBalance != 0 {
				t.Errorf("%s @ %.1f%%: final closing balance %g", freq, rate, last.ClosingBalance)
			}
		}
	}
}

func TestDecliningBalance_TotalGrace(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   10,
		TermYears:    2,
		Frequency:    amortization.FrequencySemiannual,
		Grace:        amortization.GraceTotal,
		GracePeriods: 2,
		EmissionDate: date("2024-01-15"),
	}
	rows := amortization.DecliningBalance(terms)
	for _, r := range rows[:2] {
		if r.Coupon != 0 || r.Amortization != 0 || r.TotalFlow != 0 {
			t.Errorf("grace period %d should be all zero: %+v", r.Period, r)
		}
		if r.OpeningBalance != 1000 || r.ClosingBalance != 1000 {
			t.Errorf("grace period %d should keep principal: %+v", r.Period, r)
		}
	}

	level := 1000 * 0.05 * 1.1025 / 0.1025
	if !approx(rows[2].TotalFlow, level) || !approx(rows[3].TotalFlow, level) {
		t.Errorf("expected level flow %.6f after grace, got %.6f and %.6f", level, rows[2].TotalFlow, rows[3].TotalFlow)
	}
	if s := sumAmortization(rows); !approx(s, 1000) {
		t.Errorf("expected amortization to sum to 1000, got %f", s)
	}
	if rows[3].ClosingBalance != 0 {
		t.Errorf("expected terminal zero, got %g", rows[3].ClosingBalance)
	}
	assertContinuity(t, rows)
}

func TestDecliningBalance_PartialGrace(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   10,
		TermYears:    3,
		Frequency:    amortization.FrequencyAnnual,
		Grace:        amortization.GracePartial,
		GracePeriods: 1,
		EmissionDate: date("2024-05-10"),
	}
	rows := amortization.DecliningBalance(terms)
	first := rows[0]
	if !approx(first.Coupon, 100) || first.Amortization != 0 || !approx(first.TotalFlow, 100) {
		t.Errorf("partial grace row should pay interest only: %+v", first)
	}
	if first.ClosingBalance != 1000 {
		t.Errorf("partial grace must not reduce balance, got %f", first.ClosingBalance)
	}
	level := 1000 * 0.1 * 1.21 / 0.21
	if !approx(rows[1].TotalFlow, level) {
		t.Errorf("expected level flow %.6f, got %.6f", level, rows[1].TotalFlow)
	}
	if rows[2].ClosingBalance != 0 {
		t.Errorf("expected terminal zero, got %g", rows[2].ClosingBalance)
	}
}

func TestDecliningBalance_GraceCountWithoutTreatmentPaysNothing(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   12,
		TermYears:    1,
		Frequency:    amortization.FrequencyQuarterly,
		Grace:        amortization.GraceNone,
		GracePeriods: 2,
		EmissionDate: date("2024-01-01"),
	}
	rows := amortization.DecliningBalance(terms)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for _, r := range rows[:2] {
		if r.Coupon != 0 || r.Amortization != 0 || r.TotalFlow != 0 || r.ClosingBalance != 1000 {
			t.Errorf("period %d: expected an empty row, got %+v", r.Period, r)
		}
	}
	// 1000 over the two remaining quarters at 3%
	level := 1000 * 0.03 * 1.0609 / 0.0609
	if !approx(rows[2].TotalFlow, level) {
		t.Errorf("expected level flow %.6f, got %.6f", level, rows[2].TotalFlow)
	}
	if !approx(rows[2].Coupon, 30) {
		t.Errorf("expected coupon 30, got %f", rows[2].Coupon)
	}
	if rows[3].ClosingBalance != 0 {
		t.Errorf("expected terminal zero, got %g", rows[3].ClosingBalance)
	}
	if !approx(rows[2].Amortization+rows[3].Amortization, 1000) {
		t.Errorf("principal must be repaid over the remaining periods")
	}
}

func TestDecliningBalance_GraceCoversWholeTerm(t *testing.T) {
	for _, grace := range []amortization.Grace{amortization.GraceTotal, amortization.GracePartial} {
		terms := amortization.Terms{
			Principal:    1000,
			AnnualRate:   10,
			TermYears:    1,
			Frequency:    amortization.FrequencyQuarterly,
			Grace:        grace,
			GracePeriods: 10,
			EmissionDate: date("2024-01-01"),
		}
		rows := amortization.DecliningBalance(terms)
		if len(rows) != 4 {
			t.Fatalf("%s: expected 4 rows, got %d", grace, len(rows))
		}
		for _, r := range rows {
			if r.Amortization != 0 || r.ClosingBalance != 1000 {
				t.Errorf("%s: principal must never be repaid: %+v", grace, r)
			}
		}
	}
}

func TestDecliningBalance_ZeroRate(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   0,
		TermYears:    1,
		Frequency:    amortization.FrequencyQuarterly,
		EmissionDate: date("2024-01-01"),
	}
	rows := amortization.DecliningBalance(terms)
	assertFinite(t, rows)
	for _, r := range rows {
		if r.Coupon != 0 {
			t.Errorf("period %d: expected zero coupon, got %f", r.Period, r.Coupon)
		}
		if !approx(r.Amortization, 250) || !approx(r.TotalFlow, 250) {
			t.Errorf("period %d: expected straight-line 250, got %+v", r.Period, r)
		}
	}
	if s := sumAmortization(rows); !approx(s, 1000) {
		t.Errorf("expected amortization to sum to 1000, got %f", s)
	}
}

func TestDecliningBalance_ZeroRateAfterGrace(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1200,
		AnnualRate:   0,
		TermYears:    1,
		Frequency:    amortization.FrequencyMonthly,
		Grace:        amortization.GracePartial,
		GracePeriods: 6,
		EmissionDate: date("2024-01-01"),
	}
	rows := amortization.DecliningBalance(terms)
	assertFinite(t, rows)
	for _, r := range rows[6:] {
		if !approx(r.Amortization, 200) {
			t.Errorf("period %d: expected 200, got %f", r.Period, r.Amortization)
		}
	}
}

func TestSchedules_FiniteForExtremeRates(t *testing.T) {
	for _, rate := range []float64{-50, -0.0001, 0, 1e-12, 100, 250} {
		terms := amortization.Terms{
			Principal:    1000,
			AnnualRate:   rate,
			TermYears:    50,
			Frequency:    amortization.FrequencyMonthly,
			Grace:        amortization.GracePartial,
			GracePeriods: 12,
			EmissionDate: date("2024-01-01"),
		}
		assertFinite(t, amortization.DecliningBalance(terms))
		assertFinite(t, amortization.Bullet(terms))
	}
}

func TestCompute_Dispatch(t *testing.T) {
	terms := amortization.Terms{
		Principal:    1000,
		AnnualRate:   12,
		TermYears:    1,
		Frequency:    amortization.FrequencyMonthly,
		EmissionDate: date("2024-01-01"),
	}
	bullet := amortization.Compute(amortization.MethodBullet, terms)
	if bullet[0].Amortization != 0 {
		t.Errorf("bullet should not amortize in period 1")
	}
	declining := amortization.Compute(amortization.MethodDecliningBalance, terms)
	if declining[0].Amortization <= 0 {
		t.Errorf("declining balance should amortize in period 1")
	}
	fallback := amortization.Compute("unknown", terms)
	if fallback[0].Amortization != 0 {
		t.Errorf("unknown method should fall back to bullet")
	}
}

func TestSchedules_Reproducible(t *testing.T) {
	terms := amortization.Terms{
		Principal:    50000,
		AnnualRate:   9.25,
		TermYears:    10,
		Frequency:    amortization.FrequencyMonthly,
		Grace:        amortization.GracePartial,
		GracePeriods: 6,
		EmissionDate: date("2024-08-31"),
	}
	want := amortization.DecliningBalance(terms)

	var wg sync.WaitGroup
	results := make([][]amortization.Row, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = amortization.DecliningBalance(terms)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if len(got) != len(want) {
			t.Fatalf("run %d: expected %d rows, got %d", i, len(want), len(got))
		}
		for j := range got {
			if got[j] != want[j] {
				t.Fatalf("run %d row %d differs", i, j)
			}
		}
	}
}

func TestRow_JSONUsesDateOnly(t *testing.T) {
	row := amortization.Row{Period: 1, PaymentDate: date("2025-07-15"), Coupon: 50, TotalFlow: 50}
	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"fecha":"2025-07-15"`) {
		t.Errorf("expected date-only fecha, got %s", b)
	}

	var back amortization.Row
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.PaymentDate.Equal(row.PaymentDate) || back.Coupon != 50 {
		t.Errorf("unexpected decoded row %+v", back)
	}
}
