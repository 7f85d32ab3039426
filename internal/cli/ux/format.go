package ux

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency renders a Kenya shilling amount rounded to whole shillings
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "Ksh 0"
	}
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-Ksh " + humanize.Comma(-rounded)
	}
	return "Ksh " + humanize.Comma(rounded)
}

// Phone renders a 254-prefixed number as +254 7XX XXX XXX. Other values are
// returned unchanged.
func Phone(phone string) string {
	if !strings.HasPrefix(phone, "254") || len(phone) < 10 {
		return phone
	}
	return "+" + phone[0:3] + " " + phone[3:6] + " " + phone[6:9] + " " + phone[9:]
}

// Date renders an ISO date or timestamp as 02/01/2006, or "-" when empty.
// Unparseable values are returned as given.
func Date(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}

// Truncate shortens s to n runes, marking the cut with "..."
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Percent renders a percentage with no decimals
func Percent(v float64) string {
	return humanize.FtoaWithDigits(math.Round(v), 0) + "%"
}
