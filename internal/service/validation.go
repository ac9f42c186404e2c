package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
)

var (
	rucPattern   = regexp.MustCompile(`^(10|15|17|20)\d{9}$`)
	phonePattern = regexp.MustCompile(`^(\+51)?9\d{8}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ruc", func(fl validator.FieldLevel) bool {
		return ValidRUC(fl.Field().String())
	})
	_ = v.RegisterValidation("pephone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidRUC reports whether s is a Peruvian taxpayer id: 11 digits starting
// with 10, 15, 17 or 20.
func ValidRUC(s string) bool {
	return rucPattern.MatchString(s)
}

// ValidPhone reports whether s is a Peruvian mobile number, optionally with
// the +51 prefix. Spaces are ignored.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(s, " ", ""))
}

// validateStruct runs the struct tags of s and reports the first failure as
// a domain.ErrValidation named after the JSON field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &domain.ErrValidation{Field: fe.Field(), Message: describe(fe)}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "gte", "min":
		return "debe ser al menos " + fe.Param()
	case "lte", "max":
		return "debe ser como máximo " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "datetime":
		return "debe tener el formato YYYY-MM-DD"
	case "ruc":
		return "RUC inválido: 11 dígitos que empiezan con 10, 15, 17 o 20"
	case "pephone":
		return "teléfono inválido"
	case "uuid":
		return "identificador inválido"
	case "url":
		return "URL inválida"
	}
	return fmt.Sprintf("no cumple la regla %q", fe.Tag())
}

// validateGrace checks that a grace window fits inside the schedule.
func validateGrace(t amortization.Terms) error {
	if t.GracePeriods < 0 {
		return &domain.ErrValidation{Field: "grace_periods", Message: "debe ser al menos 0"}
	}
	if t.GracePeriods > t.TotalPeriods() {
		return &domain.ErrValidation{
			Field:   "grace_periods",
			Message: fmt.Sprintf("no puede superar los %d periodos del bono", t.TotalPeriods()),
		}
	}
	return nil
}

// validateMethod parses an optional method name.
func validateMethod(s string) (amortization.Method, error) {
	if s == "" {
		return "", nil
	}
	m := amortization.Method(s)
	if !m.Valid() {
		return "", &domain.ErrValidation{Field: "method", Message: "debe ser uno de: bullet declining_balance"}
	}
	return m, nil
}
