package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrFieldMissing reports that a key was absent (or null) in an otherwise
// valid payload.
var ErrFieldMissing = errors.New("field missing")

// Record is one flat JSON object as returned by the data source. Values are
// accessed best-effort through a Field, which lists every key spelling the
// known source schemas use for the same value.
type Record map[string]any

// DecodeRecord parses a JSON object, keeping numbers as json.Number.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := decode(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// DecodeRecords parses a JSON array of objects. A JSON null is an empty list.
func DecodeRecords(data []byte) ([]Record, error) {
	var rs []Record
	if err := decode(data, &rs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			r = Record{}
		}
		out = append(out, r)
	}
	return out, nil
}

func decode(data []byte, v any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	return dec.Decode(v)
}

func (r Record) lookup(f Field) (any, bool) {
	for _, k := range f.Keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether any spelling of f is present and non-null.
func (r Record) Has(f Field) bool {
	_, ok := r.lookup(f)
	return ok
}

// Decimal returns the numeric value of f. Absent keys wrap ErrFieldMissing;
// values that do not start with a number are reported as unparseable.
func (r Record) Decimal(f Field) (decimal.Decimal, error) {
	v, ok := r.lookup(f)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", f.Name, ErrFieldMissing)
	}
	d, ok := ToDecimal(v)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: not a number: %v", f.Name, v)
	}
	return d, nil
}

// Number is Decimal with a zero fallback.
func (r Record) Number(f Field) decimal.Decimal {
	d, err := r.Decimal(f)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NullNumber is Decimal with validity instead of a fallback, for cells that
// show a placeholder rather than zero.
func (r Record) NullNumber(f Field) decimal.NullDecimal {
	d, err := r.Decimal(f)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Float is Number as a float64.
func (r Record) Float(f Field) float64 {
	return r.Number(f).InexactFloat64()
}

// Int truncates the numeric value of f toward zero, 0 when unparseable.
func (r Record) Int(f Field) int64 {
	return r.Number(f).IntPart()
}

// String returns the first non-empty value of f as text.
func (r Record) String(f Field) string {
	for _, k := range f.Keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s := toString(v); s != "" {
			return s
		}
	}
	return ""
}

// Text is String with a fallback for absent or empty values.
func (r Record) Text(f Field, fallback string) string {
	if s := r.String(f); s != "" {
		return s
	}
	return fallback
}

// Count renders a counter the way the source reports it, "0" when absent.
// Zero and empty values collapse to the fallback too.
func (r Record) Count(f Field) string {
	s := r.String(f)
	if s == "" || s == "0" || s == "false" {
		return "0"
	}
	return s
}

// Records returns the embedded array stored under f, if any.
func (r Record) Records(f Field) ([]Record, bool) {
	v, ok := r.lookup(f)
	if !ok {
		return nil, false
	}
	return toRecords(v)
}

func toRecords(v any) ([]Record, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]Record, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, Record(m))
		}
		return out, true
	case []Record:
		return t, true
	case map[string]any:
		// {"trades": [...]} nested one level down
		for _, k := range Trades.Keys {
			if inner, ok := t[k]; ok {
				return toRecords(inner)
			}
		}
	}
	return nil, false
}

// ToDecimal coerces a decoded JSON value to a decimal. Strings are read up to
// the first character that cannot continue a number, so "12.5%" is 12.5 and
// "$5" is not a number.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		return parseLeading(t.String())
	case string:
		return parseLeading(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		return ToDecimal(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case decimal.Decimal:
		return t, true
	}
	return decimal.Zero, false
}

func parseLeading(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	n := numericPrefix(s)
	if n == "" {
		return decimal.Zero, false
	}
	// Values outside the float64 range are rejected. Long or very small
	// inputs are read at float64 precision.
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	if len(n) > maxDigits {
		return decimal.NewFromFloat(f), true
	}
	d, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Zero, false
	}
	if d.Exponent() < -maxScale {
		return decimal.NewFromFloat(f), true
	}
	return d, true
}

const (
	maxDigits = 64
	maxScale  = 32
)

// numericPrefix returns the longest prefix of s shaped like
// [+-]digits[.digits][e[+-]digits], or "" when there are no digits.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			end = j
		}
	}
	out := strings.Replace(s[:end], ".e", "e", 1)
	out = strings.Replace(out, ".E", "E", 1)
	out = strings.TrimSuffix(out, ".")
	switch {
	case strings.HasPrefix(out, "."):
		out = "0" + out
	case strings.HasPrefix(out, "-."), strings.HasPrefix(out, "+."):
		out = out[:1] + "0" + out[1:]
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	}
	return ""
}
