// Command schedule prints the payment schedule and yield summary of a bond
// from a YAML terms file or flags.
//
//	schedule -terms bond.yaml -method declining_balance
//	schedule -principal 10000 -rate 8 -years 3 -frequency trimestral -emission 2024-01-31
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/display"
)

// termsFile is the YAML layout of -terms.
type termsFile struct {
	Principal    float64 `yaml:"principal"`
	AnnualRate   float64 `yaml:"annual_rate"`
	TermYears    int     `yaml:"term_years"`
	Frequency    string  `yaml:"payment_frequency"`
	Grace        string  `yaml:"grace_period"`
	GracePeriods int     `yaml:"grace_periods"`
	EmissionDate string  `yaml:"emission_date"`
	Method       string  `yaml:"method"`
}

func main() {
	termsPath := flag.String("terms", "", "YAML terms file")
	method := flag.String("method", "", "bullet | declining_balance (overrides the file)")
	principal := flag.Float64("principal", 0, "amount invested")
	rate := flag.Float64("rate", 0, "annual rate in percent")
	years := flag.Int("years", 0, "term in years")
	frequency := flag.String("frequency", "", "anual | semestral | trimestral | mensual")
	grace := flag.String("grace", "", "sin_gracia | gracia_parcial | gracia_total")
	gracePeriods := flag.Int("grace-periods", 0, "number of grace periods")
	emission := flag.String("emission", "", "emission date YYYY-MM-DD (default today)")
	locale := flag.String("locale", display.DefaultLocale, "display locale")
	currency := flag.String("currency", display.DefaultCurrency, "ISO 4217 currency")
	flag.Parse()

	var tf termsFile
	if *termsPath != "" {
		b, err := os.ReadFile(*termsPath)
		if err != nil {
			fail("read terms: %v", err)
		}
		if tf, err = parseTerms(b); err != nil {
			fail("parse terms: %v", err)
		}
	}

	// flags set on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "principal":
			tf.Principal = *principal
		case "rate":
			tf.AnnualRate = *rate
		case "years":
			tf.TermYears = *years
		case "frequency":
			tf.Frequency = *frequency
		case "grace":
			tf.Grace = *grace
		case "grace-periods":
			tf.GracePeriods = *gracePeriods
		case "emission":
			tf.EmissionDate = *emission
		case "method":
			tf.Method = *method
		}
	})

	terms, m, err := tf.resolve(time.Now())
	if err != nil {
		fail("%v", err)
	}

	f := display.New(*locale, *currency)
	calc, summary := amortization.Calculate(m, terms)

	fmt.Printf("Método: %s  Frecuencia: %s  Periodos: %d\n\n", calc.Method, terms.Frequency, terms.TotalPeriods())
	fmt.Print(f.String(calc.Schedule))
	fmt.Println()
	fmt.Printf("Interés total:     %s\n", f.FormatCurrency(summary.TotalInterest))
	fmt.Printf("Total a recibir:   %s\n", f.FormatCurrency(summary.TotalToReceive))
	fmt.Printf("Rendimiento anual: %s\n", f.FormatPercentage(summary.AnnualYield))
}

func parseTerms(b []byte) (termsFile, error) {
	var tf termsFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return termsFile{}, err
	}
	return tf, nil
}

// resolve checks the terms and fills defaults: semiannual coupons, no grace,
// bullet schedule and today as emission date.
func (tf termsFile) resolve(now time.Time) (amortization.Terms, amortization.Method, error) {
	if tf.Principal <= 0 {
		return amortization.Terms{}, "", fmt.Errorf("principal must be greater than 0")
	}
	if tf.TermYears <= 0 {
		return amortization.Terms{}, "", fmt.Errorf("term_years must be at least 1")
	}

	freq := amortization.Frequency(strings.ToLower(tf.Frequency))
	if freq == "" {
		freq = amortization.FrequencySemiannual
	}
	if !freq.Valid() {
		return amortization.Terms{}, "", fmt.Errorf("unknown payment_frequency %q", tf.Frequency)
	}

	grace := amortization.Grace(tf.Grace)
	if grace == "" {
		grace = amortization.GraceNone
	}
	if !grace.Valid() {
		return amortization.Terms{}, "", fmt.Errorf("unknown grace_period %q", tf.Grace)
	}

	m := amortization.Method(tf.Method)
	if m == "" {
		m = amortization.MethodBullet
	}
	if !m.Valid() {
		return amortization.Terms{}, "", fmt.Errorf("unknown method %q", tf.Method)
	}

	emission := now.UTC().Truncate(24 * time.Hour)
	if tf.EmissionDate != "" {
		d, err := amortization.ParseDate(tf.EmissionDate)
		if err != nil {
			return amortization.Terms{}, "", fmt.Errorf("emission_date: %w", err)
		}
		emission = d
	}

	return amortization.Terms{
		Principal:    tf.Principal,
		AnnualRate:   tf.AnnualRate,
		TermYears:    tf.TermYears,
		Frequency:    freq,
		Grace:        grace,
		GracePeriods: tf.GracePeriods,
		EmissionDate: emission,
	}, m, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "schedule: "+format+"\n", args...)
	os.Exit(1)
}
