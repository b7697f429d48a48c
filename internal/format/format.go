// Package format provides pure presentation helpers for monetary values,
// numbers, dates, relative timestamps, and trading-signal labels.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats a monetary amount with the symbol of the given ISO 4217
// code, e.g. Currency(1234.5, "USD") -> "$1,234.50". Unrecognized codes
// fall back to "<amount> <CODE>" rather than failing.
func Currency(v float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return printer.Sprintf("%v %s",
			number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)),
			strings.ToUpper(code))
	}
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(v)))
}

// Number formats a value with digit grouping and one fraction digit.
func Number(v float64) string {
	return printer.Sprintf("%v",
		number.Decimal(v, number.MinFractionDigits(1), number.MaxFractionDigits(1)))
}

// Volume formats a share count with B/M/K suffixes for readability.
func Volume(n int64) string {
	v := float64(n)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Date renders an ISO date (YYYY-MM-DD, or RFC 3339) as "Jan 2, 2006".
// Unparseable input is returned unchanged.
func Date(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		t, err = time.Parse(time.RFC3339, iso)
		if err != nil {
			return iso
		}
	}
	return t.Format("Jan 2, 2006")
}

// Relative-time thresholds in seconds.
const (
	secondsPerYear   = 31536000
	secondsPerMonth  = 2592000
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// TimeAgo renders how long ago t was as a coarse human string: "5s ago",
// "1m ago", "3h ago", "2d ago", "1mo ago", "4y ago". The most coarse unit
// whose interval exceeds one is chosen, with integer-floor division.
func TimeAgo(t time.Time) string {
	return timeAgo(t, time.Now())
}

func timeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds > secondsPerYear:
		return fmt.Sprintf("%dy ago", seconds/secondsPerYear)
	case seconds > secondsPerMonth:
		return fmt.Sprintf("%dmo ago", seconds/secondsPerMonth)
	case seconds > secondsPerDay:
		return fmt.Sprintf("%dd ago", seconds/secondsPerDay)
	case seconds > secondsPerHour:
		return fmt.Sprintf("%dh ago", seconds/secondsPerHour)
	case seconds > secondsPerMinute:
		return fmt.Sprintf("%dm ago", seconds/secondsPerMinute)
	default:
		return fmt.Sprintf("%ds ago", seconds)
	}
}

// Signal is a presentation category for a model-produced signal label.
type Signal int

const (
	SignalBuy Signal = iota
	SignalSell
	SignalNeutral
	SignalNone
)

// ClassifySignal maps a free-form signal label to a presentation category
// by case-insensitive substring match. Labels mentioning neither buy, sell,
// hold, nor neutral fall back to SignalNone.
func ClassifySignal(label string) Signal {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "buy"):
		return SignalBuy
	case strings.Contains(l, "sell"):
		return SignalSell
	case strings.Contains(l, "hold"), strings.Contains(l, "neutral"):
		return SignalNeutral
	default:
		return SignalNone
	}
}

// Color returns the presentation color name for the signal category.
func (s Signal) Color() string {
	switch s {
	case SignalBuy:
		return "green"
	case SignalSell:
		return "red"
	case SignalNeutral:
		return "yellow"
	default:
		return "gray"
	}
}

// Icon returns the glyph shown next to a signal label.
func (s Signal) Icon() string {
	switch s {
	case SignalBuy:
		return "▲"
	case SignalSell:
		return "▼"
	default:
		return "●"
	}
}
