package scorecard

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a percentage that may be "no data" (zero denominator).
// No data is rendered as "-" and encoded as JSON null, never as 0.
type Percent struct {
	value float64
	valid bool
}

func NoData() Percent { return Percent{} }

func PercentValue(v float64) Percent { return Percent{value: v, valid: true} }

// Ratio is num/den*100 without rounding.
func Ratio(num, den int) Percent {
	if den == 0 {
		return NoData()
	}
	return PercentValue(float64(num) / float64(den) * 100)
}

// RoundedRatio is num/den*100 rounded half away from zero to one decimal,
// computed exactly.
func RoundedRatio(num, den int) Percent {
	if den == 0 {
		return NoData()
	}
	d := decimal.NewFromInt(int64(num)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(den))).
		Round(1)
	f, _ := d.Float64()
	return PercentValue(f)
}

func (p Percent) Valid() bool { return p.valid }

// Value returns the percentage and whether it carries data.
func (p Percent) Value() (float64, bool) { return p.value, p.valid }

func (p Percent) String() string {
	if !p.valid {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", p.value)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = NoData()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PercentValue(v)
	return nil
}
