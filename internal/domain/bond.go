package domain

import (
	"math"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
)

// ============================================================
// Bonds
// ============================================================

// BondStatus is the lifecycle state of a bond listing.
type BondStatus string

const (
	BondActive   BondStatus = "active"
	BondInactive BondStatus = "inactive"
	BondMatured  BondStatus = "matured"
)

// RateType tells how the issuer quoted InterestRate. The value is stored as
// given; no TEA/TNA conversion is applied.
type RateType string

const (
	RateEffective RateType = "efectiva"
	RateNominal   RateType = "nominal"
)

// Bond is a row of the bonds table.
type Bond struct {
	ID                  string                 `json:"id"`
	EmisorID            string                 `json:"emisor_id"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description,omitempty"`
	NominalValue        float64                `json:"nominal_value"`
	InterestRate        float64                `json:"interest_rate"`
	DiscountRate        float64                `json:"discount_rate"`
	RateType            RateType               `json:"rate_type"`
	GracePeriod         amortization.Grace     `json:"grace_period"`
	GracePeriods        int                    `json:"grace_periods"`
	ScheduleMethod      amortization.Method    `json:"schedule_method,omitempty"`
	EmissionExpenses    float64                `json:"emission_expenses"`
	PlacementExpenses   float64                `json:"placement_expenses"`
	StructuringExpenses float64                `json:"structuring_expenses"`
	CavaliExpenses      float64                `json:"cavali_expenses"`
	EmissionDate        string                 `json:"emission_date"`
	TermYears           int                    `json:"term_years"`
	PaymentFrequency    amortization.Frequency `json:"payment_frequency"`
	Status              BondStatus             `json:"status"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// BondWithIssuer is a bond with its issuer profile embedded.
type BondWithIssuer struct {
	Bond
	Emisor *Profile `json:"emisor,omitempty"`
}

// Method returns the schedule method the bond is paid under, or fallback when
// the record does not carry one.
func (b *Bond) Method(fallback amortization.Method) amortization.Method {
	if b.ScheduleMethod.Valid() {
		return b.ScheduleMethod
	}
	if fallback.Valid() {
		return fallback
	}
	return amortization.MethodBullet
}

// Emission parses EmissionDate. A malformed date yields the zero time.
func (b *Bond) Emission() time.Time {
	t, err := amortization.ParseDate(b.EmissionDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Terms builds the amortization terms of this bond for the given principal.
func (b *Bond) Terms(principal float64) amortization.Terms {
	return amortization.Terms{
		Principal:    principal,
		AnnualRate:   b.InterestRate,
		TermYears:    b.TermYears,
		Frequency:    b.PaymentFrequency,
		Grace:        b.GracePeriod,
		GracePeriods: b.GracePeriods,
		EmissionDate: b.Emission(),
	}
}

// MaturityDate is the emission date plus TermYears of 365 days.
func (b *Bond) MaturityDate() time.Time {
	return b.Emission().Add(time.Duration(b.TermYears) * 365 * 24 * time.Hour)
}

// DaysToMaturity counts whole days (rounded up) from now until maturity.
// It is negative once the bond has matured.
func (b *Bond) DaysToMaturity(now time.Time) int {
	return int(math.Ceil(b.MaturityDate().Sub(now).Hours() / 24))
}

// TotalExpenses sums the issuance costs declared on the bond.
func (b *Bond) TotalExpenses() float64 {
	return b.EmissionExpenses + b.PlacementExpenses + b.StructuringExpenses + b.CavaliExpenses
}

// CreateBondRequest is the body of POST /v1/bonds.
type CreateBondRequest struct {
	Name                string                 `json:"name" validate:"required,max=200"`
	Description         string                 `json:"description,omitempty" validate:"max=2000"`
	NominalValue        float64                `json:"nominal_value" validate:"gt=0"`
	InterestRate        float64                `json:"interest_rate" validate:"gte=0,lte=100"`
	DiscountRate        float64                `json:"discount_rate" validate:"gte=0,lte=100"`
	RateType            RateType               `json:"rate_type" validate:"required,oneof=efectiva nominal"`
	GracePeriod         amortization.Grace     `json:"grace_period" validate:"required,oneof=sin_gracia gracia_parcial gracia_total"`
	GracePeriods        int                    `json:"grace_periods" validate:"gte=0"`
	ScheduleMethod      amortization.Method    `json:"schedule_method,omitempty" validate:"omitempty,oneof=bullet declining_balance"`
	EmissionExpenses    float64                `json:"emission_expenses" validate:"gte=0"`
	PlacementExpenses   float64                `json:"placement_expenses" validate:"gte=0"`
	StructuringExpenses float64                `json:"structuring_expenses" validate:"gte=0"`
	CavaliExpenses      float64                `json:"cavali_expenses" validate:"gte=0"`
	EmissionDate        string                 `json:"emission_date" validate:"required,datetime=2006-01-02"`
	TermYears           int                    `json:"term_years" validate:"gte=1,lte=50"`
	PaymentFrequency    amortization.Frequency `json:"payment_frequency" validate:"required,oneof=anual semestral trimestral mensual"`
}

// UpdateBondRequest is the body of PATCH /v1/bonds/{bondId}. Nil fields are
// left untouched.
type UpdateBondRequest struct {
	Name                *string                 `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description         *string                 `json:"description,omitempty" validate:"omitempty,max=2000"`
	NominalValue        *float64                `json:"nominal_value,omitempty" validate:"omitempty,gt=0"`
	InterestRate        *float64                `json:"interest_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	DiscountRate        *float64                `json:"discount_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	RateType            *RateType               `json:"rate_type,omitempty" validate:"omitempty,oneof=efectiva nominal"`
	GracePeriod         *amortization.Grace     `json:"grace_period,omitempty" validate:"omitempty,oneof=sin_gracia gracia_parcial gracia_total"`
	GracePeriods        *int                    `json:"grace_periods,omitempty" validate:"omitempty,gte=0"`
	ScheduleMethod      *amortization.Method    `json:"schedule_method,omitempty" validate:"omitempty,oneof=bullet declining_balance"`
	EmissionExpenses    *float64                `json:"emission_expenses,omitempty" validate:"omitempty,gte=0"`
	PlacementExpenses   *float64                `json:"placement_expenses,omitempty" validate:"omitempty,gte=0"`
	StructuringExpenses *float64                `json:"structuring_expenses,omitempty" validate:"omitempty,gte=0"`
	CavaliExpenses      *float64                `json:"cavali_expenses,omitempty" validate:"omitempty,gte=0"`
	EmissionDate        *string                 `json:"emission_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TermYears           *int                    `json:"term_years,omitempty" validate:"omitempty,gte=1,lte=50"`
	PaymentFrequency    *amortization.Frequency `json:"payment_frequency,omitempty" validate:"omitempty,oneof=anual semestral trimestral mensual"`
	Status              *BondStatus             `json:"status,omitempty" validate:"omitempty,oneof=active inactive matured"`
}

// Apply returns a copy of b with the non-nil fields of req applied.
func (req *UpdateBondRequest) Apply(b Bond) Bond {
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.NominalValue != nil {
		b.NominalValue = *req.NominalValue
	}
	if req.InterestRate != nil {
		b.InterestRate = *req.InterestRate
	}
	if req.DiscountRate != nil {
		b.DiscountRate = *req.DiscountRate
	}
	if req.RateType != nil {
		b.RateType = *req.RateType
	}
	if req.GracePeriod != nil {
		b.GracePeriod = *req.GracePeriod
	}
	if req.GracePeriods != nil {
		b.GracePeriods = *req.GracePeriods
	}
	if req.ScheduleMethod != nil {
		b.ScheduleMethod = *req.ScheduleMethod
	}
	if req.EmissionExpenses != nil {
		b.EmissionExpenses = *req.EmissionExpenses
	}
	if req.PlacementExpenses != nil {
		b.PlacementExpenses = *req.PlacementExpenses
	}
	if req.StructuringExpenses != nil {
		b.StructuringExpenses = *req.StructuringExpenses
	}
	if req.CavaliExpenses != nil {
		b.CavaliExpenses = *req.CavaliExpenses
	}
	if req.EmissionDate != nil {
		b.EmissionDate = *req.EmissionDate
	}
	if req.TermYears != nil {
		b.TermYears = *req.TermYears
	}
	if req.PaymentFrequency != nil {
		b.PaymentFrequency = *req.PaymentFrequency
	}
	if req.Status != nil {
		b.Status = *req.Status
	}
	return b
}

// Changes returns the PostgREST PATCH payload for req.
func (req *UpdateBondRequest) Changes() map[string]any {
	m := map[string]any{}
	set := func(k string, ok bool, v any) {
		if ok {
			m[k] = v
		}
	}
	set("name", req.Name != nil, deref(req.Name))
	set("description", req.Description != nil, deref(req.Description))
	set("nominal_value", req.NominalValue != nil, deref(req.NominalValue))
	set("interest_rate", req.InterestRate != nil, deref(req.InterestRate))
	set("discount_rate", req.DiscountRate != nil, deref(req.DiscountRate))
	set("rate_type", req.RateType != nil, deref(req.RateType))
	set("grace_period", req.GracePeriod != nil, deref(req.GracePeriod))
	set("grace_periods", req.GracePeriods != nil, deref(req.GracePeriods))
	set("schedule_method", req.ScheduleMethod != nil, deref(req.ScheduleMethod))
	set("emission_expenses", req.EmissionExpenses != nil, deref(req.EmissionExpenses))
	set("placement_expenses", req.PlacementExpenses != nil, deref(req.PlacementExpenses))
	set("structuring_expenses", req.StructuringExpenses != nil, deref(req.StructuringExpenses))
	set("cavali_expenses", req.CavaliExpenses != nil, deref(req.CavaliExpenses))
	set("emission_date", req.EmissionDate != nil, deref(req.EmissionDate))
	set("term_years", req.TermYears != nil, deref(req.TermYears))
	set("payment_frequency", req.PaymentFrequency != nil, deref(req.PaymentFrequency))
	set("status", req.Status != nil, deref(req.Status))
	return m
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// BondFilters narrows GET /v1/bonds.
type BondFilters struct {
	Search          string
	Status          []string
	InterestRateMin *float64
	InterestRateMax *float64
	TermYearsMin    *int
	TermYearsMax    *int
	AmountMin       *float64
	AmountMax       *float64
	EmisorID        string
	SortBy          string
	SortOrder       string // asc | desc
}

// BondDetail is the bond-detail response: the bond, its issuer and the values
// the detail page derives from them.
type BondDetail struct {
	BondWithIssuer
	MaturityDate   string  `json:"maturity_date"`
	DaysToMaturity int     `json:"days_to_maturity"`
	TotalExpenses  float64 `json:"total_expenses"`
}
