package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a scalar the webhook may send either as a JSON number or as a
// JSON string. The raw text is kept so pass-through fields render
// exactly as received, while numeric fields can be formatted with decimal
// precision.
type Value struct {
	raw   string
	num   decimal.Decimal
	isNum bool
	set   bool
}

// NumberValue builds a numeric Value.
func NumberValue(f float64) Value {
	d := decimal.NewFromFloat(f)
	return Value{raw: d.String(), num: d, isNum: true, set: true}
}

// StringValue builds a Value from text. Numeric text is parsed as a number.
func StringValue(s string) Value {
	v := Value{raw: s, set: true}
	v.num, v.isNum = parseNumeric(s)
	return v
}

// IsSet reports whether the field was present and non-null.
func (v Value) IsSet() bool { return v.set }

// String returns the value as it arrived on the wire.
func (v Value) String() string { return v.raw }

// Decimal returns the numeric value if the field holds one.
func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.num, v.isNum
}

// Fixed formats a numeric value with the given number of decimal places,
// rounding half away from zero. ok is false when the value is not numeric.
func (v Value) Fixed(places int32) (string, bool) {
	if !v.isNum {
		return "", false
	}
	return v.num.StringFixed(places), true
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Value{raw: fmt.Sprint(b), set: true}
		return nil
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("value %s is neither a number nor a string", data)
	}
	*v = Value{raw: string(data), num: d, isNum: true, set: true}
	return nil
}

// parseNumeric accepts plain numbers optionally decorated with a currency
// glyph, thousands separators or surrounding whitespace.
func parseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"₹", "$", "€", "£"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
