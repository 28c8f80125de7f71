package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradedash/model"
	"github.com/shopspring/decimal"
)

// Missing is shown for values a record does not carry.
const Missing = "—"

// Currency formats d as "$" followed by two decimals: -25 is "$-25.00".
func Currency(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// SignedCurrency prefixes non-negative amounts with "+".
func SignedCurrency(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + Currency(d)
	}
	return Currency(d)
}

// Percent formats d with one decimal and a percent sign.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// Fixed formats an optional number with places decimals.
func Fixed(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return Missing
	}
	return d.Decimal.StringFixed(places)
}

// Duration formats seconds as "{m}m {s}s". Minutes are floored and seconds
// keep the sign of the input, so -125 is "-3m -5s".
func Duration(seconds int64) string {
	m := seconds / 60
	if seconds%60 != 0 && seconds < 0 {
		m--
	}
	return fmt.Sprintf("%dm %ds", m, seconds%60)
}

// Layouts accepted for timestamps, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02",
	"2006.01.02",
	"01/02/2006",
}

// ParseTime reads the timestamp formats the bot emits. Values without a zone
// are taken to be in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	loc = location(loc)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTime formats a trade timestamp as "01/02/2006, 15:04:05" in loc.
// Unparseable values are shown verbatim.
func DateTime(s string, loc *time.Location) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	t, ok := ParseTime(s, loc)
	if !ok {
		return s
	}
	return t.In(location(loc)).Format("01/02/2006, 15:04:05")
}

// Date formats a report day as "1/2/2006".
func Date(s string, loc *time.Location) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	t, ok := ParseTime(s, loc)
	if !ok {
		return s
	}
	return t.In(location(loc)).Format("1/2/2006")
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// Clock formats the last-update time.
func Clock(t time.Time) string {
	return t.Format("15:04:05")
}

// CSS classes.
const (
	ClassStat           = "stat-value"
	ClassPositive       = "positive"
	ClassNegative       = "negative"
	ClassProfitPositive = "profit-positive"
	ClassProfitNegative = "profit-negative"
)

// StatClass is the class of a stat card with the given tone.
func StatClass(t model.Tone) string {
	switch t {
	case model.Positive:
		return ClassStat + " " + ClassPositive
	case model.Negative:
		return ClassStat + " " + ClassNegative
	}
	return ClassStat
}

// ProfitClass is the class of a table cell holding an amount.
func ProfitClass(d decimal.Decimal) string {
	if model.SignTone(d) == model.Positive {
		return ClassProfitPositive
	}
	return ClassProfitNegative
}
