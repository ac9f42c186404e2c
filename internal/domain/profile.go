package domain

import "time"

// Role is the marketplace side a user acts on.
type Role string

const (
	RoleInvestor Role = "inversionista"
	RoleIssuer   Role = "emisor"
	RoleAdmin    Role = "admin"
)

// Profile is a row of the profiles table, keyed by the Supabase Auth user id.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	BirthDate   string    `json:"birth_date,omitempty"`
	RUC         string    `json:"ruc,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Position    string    `json:"position,omitempty"`
	Website     string    `json:"website,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// UpdateProfileRequest is the body of PUT /v1/profile. Role and ids cannot be
// changed through it.
type UpdateProfileRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,pephone"`
	Address     string `json:"address,omitempty" validate:"max=300"`
	City        string `json:"city,omitempty" validate:"max=100"`
	Country     string `json:"country,omitempty" validate:"max=100"`
	BirthDate   string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RUC         string `json:"ruc,omitempty" validate:"omitempty,ruc"`
	CompanyName string `json:"company_name,omitempty" validate:"max=200"`
	Position    string `json:"position,omitempty" validate:"max=100"`
	Website     string `json:"website,omitempty" validate:"omitempty,url"`
	Bio         string `json:"bio,omitempty" validate:"max=1000"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// Caller is the authenticated user a request acts for.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}
