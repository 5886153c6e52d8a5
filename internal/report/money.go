package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatMoney renders v with exactly two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Present converts a report into plain JSON values with every fractional
// number rounded to cents. Integral numbers stay int64. This is the only
// place report figures are rounded.
func Present(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return roundValues(out), nil
}

func roundValues(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = roundValues(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = roundValues(x)
		}
		return t
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if n, err := t.Int64(); err == nil {
				return n
			}
		}
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			f, _ := t.Float64()
			return f
		}
		f, _ := d.Round(2).Float64()
		return f
	}
	return v
}
