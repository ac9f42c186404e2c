package domain

import "time"

// PaymentStatus is the state of a scheduled payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentType tells which components a payment carries.
type PaymentType string

const (
	PaymentCoupon          PaymentType = "coupon"
	PaymentPrincipal       PaymentType = "principal"
	PaymentCouponPrincipal PaymentType = "coupon_principal"
)

// Payment is a row of the payments table. A pending payment is one line of an
// investment's plan; it becomes paid once the issuer settles it.
type Payment struct {
	ID               string        `json:"id,omitempty"`
	InvestmentID     string        `json:"investment_id"`
	Amount           float64       `json:"amount"`
	ScheduledDate    string        `json:"scheduled_date"`
	PaymentDate      string        `json:"payment_date,omitempty"`
	Type             PaymentType   `json:"type"`
	Status           PaymentStatus `json:"status"`
	CouponNumber     int           `json:"coupon_number,omitempty"`
	Interest         float64       `json:"interest"`
	Principal        float64       `json:"principal"`
	RemainingBalance float64       `json:"remaining_balance"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at,omitempty"`
}

// PaymentTypeFor classifies a flow by its components.
func PaymentTypeFor(interest, principal float64) PaymentType {
	switch {
	case principal > 0 && interest > 0:
		return PaymentCouponPrincipal
	case principal > 0:
		return PaymentPrincipal
	default:
		return PaymentCoupon
	}
}

// PaymentFilters narrows GET /v1/payments.
type PaymentFilters struct {
	InvestorID   string
	InvestmentID string
	Status       []string
	Type         []string
	DateFrom     string
	DateTo       string
	SortBy       string
	SortOrder    string
}
