package amortization

import (
	"encoding/json"
	"fmt"
)

type rowAlias Row

type rowJSON struct {
	rowAlias
	PaymentDate string `json:"fecha"`
}

// MarshalJSON writes the payment date as YYYY-MM-DD.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{rowAlias: rowAlias(r), PaymentDate: r.PaymentDate.Format(DateLayout)})
}

// UnmarshalJSON accepts the format written by MarshalJSON.
func (r *Row) UnmarshalJSON(b []byte) error {
	var in rowJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Row(in.rowAlias)
	if in.PaymentDate == "" {
		return nil
	}
	d, err := ParseDate(in.PaymentDate)
	if err != nil {
		return fmt.Errorf("decode fecha: %w", err)
	}
	r.PaymentDate = d
	return nil
}
