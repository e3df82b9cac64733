// Package normalize converts raw DOM attribute and text values into
// canonical strings and ISO-8601 instants.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoMillis matches Date.prototype.toISOString: UTC with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z"

// The HTML parser decodes &nbsp; to U+00A0, which Go's \s does not cover.
var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// CleanText collapses runs of whitespace to single spaces and trims.
// Returns "" when nothing remains.
func CleanText(value string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}

var viewPrefix = regexp.MustCompile(`(?i)^view[:\s]+(.+?)(?:['\x{2019}` + "`" + `\x{00b4}]s\b| graphic|$)`)

// CleanName cleans a display name, stripping accessibility-label artifacts
// like "View Jane Doe's profile" or "View Jane Doe graphic link".
func CleanName(value string) string {
	trimmed := CleanText(value)
	if trimmed == "" {
		return ""
	}
	if m := viewPrefix.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// absoluteLayouts are the absolute date/time formats accepted, tried in
// order. These cover the machine-readable attributes LinkedIn emits plus the
// common human-readable renderings.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 2 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Timestamp converts a raw timestamp value into an ISO-8601 instant.
// Accepts epoch digits (<=10 digits means seconds), absolute date/time
// strings, and relative phrases like "2h" or "3 days ago" interpreted
// against now. Returns "" when nothing parses.
func Timestamp(raw string, now time.Time) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if digitsOnly.MatchString(trimmed) {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return ""
		}
		millis := n
		if len(trimmed) <= 10 {
			millis = n * 1000
		}
		return time.UnixMilli(millis).UTC().Format(isoMillis)
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC().Format(isoMillis)
		}
	}

	return relativeToISO(trimmed, now)
}

var (
	trailingPunct = regexp.MustCompile(`[^\w\s]+$`)
	relativeExpr  = regexp.MustCompile(`^(\d+)\s*(seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|months?|mos?|mo|years?|yrs?|y)$`)
	agoSuffix     = regexp.MustCompile(`\s+ago$`)
)

// Average calendar durations: month is 30.4375 days, year is 365.25 days.
var unitMillis = map[string]int64{
	"s":      1000,
	"sec":    1000,
	"secs":   1000,
	"second": 1000,
	"m":      60_000,
	"min":    60_000,
	"mins":   60_000,
	"minute": 60_000,
	"h":      3_600_000,
	"hr":     3_600_000,
	"hrs":    3_600_000,
	"hour":   3_600_000,
	"d":      86_400_000,
	"day":    86_400_000,
	"w":      604_800_000,
	"week":   604_800_000,
	"mo":     2_629_800_000,
	"mos":    2_629_800_000,
	"month":  2_629_800_000,
	"y":      31_557_600_000,
	"yr":     31_557_600_000,
	"yrs":    31_557_600_000,
	"year":   31_557_600_000,
}

// relativeToISO parses a human-relative phrase. Text after a separator
// ("•" or "|") is discarded, as is trailing punctuation and an "ago" suffix.
func relativeToISO(text string, now time.Time) string {
	head := text
	if i := strings.IndexAny(head, "•|"); i >= 0 {
		head = head[:i]
	}
	head = trailingPunct.ReplaceAllString(head, "")
	head = strings.ToLower(strings.TrimSpace(head))
	head = agoSuffix.ReplaceAllString(head, "")
	if head == "" {
		return ""
	}

	switch head {
	case "just now", "now", "recently":
		return now.UTC().Format(isoMillis)
	}

	m := relativeExpr.FindStringSubmatch(head)
	if m == nil {
		return ""
	}

	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ""
	}

	unit := m[2]
	ms, ok := unitMillis[unit]
	if !ok {
		ms, ok = unitMillis[strings.TrimSuffix(unit, "s")]
	}
	if !ok {
		return ""
	}

	return now.Add(-time.Duration(amount*ms) * time.Millisecond).UTC().Format(isoMillis)
}
