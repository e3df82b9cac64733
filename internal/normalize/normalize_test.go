package normalize

import (
	"strings"
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"hello", "hello"},
		{"  hello   world  ", "hello world"},
		{"a\n\t b  c", "a b c"},
		{"one\ntwo\n\nthree", "one two three"},
		{"Jane\u00a0\u00a0Doe", "Jane Doe"},
		{"\u00a0padded\u00a0", "padded"},
	}

	for _, tc := range cases {
		got := CleanText(tc.in)
		if got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if got != strings.TrimSpace(got) {
			t.Errorf("CleanText(%q) has leading/trailing whitespace", tc.in)
		}
		if strings.Contains(got, "  ") {
			t.Errorf("CleanText(%q) contains a whitespace run", tc.in)
		}
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "Jane Doe"},
		{"View Jane Doe's profile", "Jane Doe"},
		{"View: Jane Doe's profile", "Jane Doe"},
		{"view Jane Doe’s profile", "Jane Doe"},
		{"View Jane Doe graphic link", "Jane Doe"},
		{"View Jane Doe", "Jane Doe"},
		{"  Viewer   Stats  ", "Viewer Stats"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimestampEpoch(t *testing.T) {
	now := time.Now()

	if got := Timestamp("1700000000", now); got != "2023-11-14T22:13:20.000Z" {
		t.Errorf("seconds epoch = %q", got)
	}
	if got := Timestamp("1700000000000", now); got != "2023-11-14T22:13:20.000Z" {
		t.Errorf("milliseconds epoch = %q", got)
	}
	// Too many digits to fit an int64: unparseable, not a panic.
	if got := Timestamp("99999999999999999999999999", now); got != "" {
		t.Errorf("overflow epoch = %q, want empty", got)
	}
}

func TestTimestampAbsolute(t *testing.T) {
	now := time.Now()

	cases := []struct {
		in   string
		want string
	}{
		{"2023-11-14T22:13:20Z", "2023-11-14T22:13:20.000Z"},
		{"2023-11-14T22:13:20.500Z", "2023-11-14T22:13:20.500Z"},
		{"2023-11-14", "2023-11-14T00:00:00.000Z"},
		{"Nov 14, 2023", "2023-11-14T00:00:00.000Z"},
	}

	for _, tc := range cases {
		if got := Timestamp(tc.in, now); got != tc.want {
			t.Errorf("Timestamp(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimestampRelative(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2h", now.Add(-2 * time.Hour)},
		{"2 hours", now.Add(-2 * time.Hour)},
		{"45m", now.Add(-45 * time.Minute)},
		{"10s", now.Add(-10 * time.Second)},
		{"3 days ago", now.Add(-3 * 24 * time.Hour)},
		{"1w", now.Add(-7 * 24 * time.Hour)},
		{"2mo", now.Add(-time.Duration(2*2_629_800_000) * time.Millisecond)},
		{"1yr", now.Add(-time.Duration(31_557_600_000) * time.Millisecond)},
		{"5d • Edited", now.Add(-5 * 24 * time.Hour)},
		{"3h | via mobile", now.Add(-3 * time.Hour)},
		{"2h.", now.Add(-2 * time.Hour)},
	}

	for _, tc := range cases {
		want := tc.want.UTC().Format("2006-01-02T15:04:05.000Z")
		if got := Timestamp(tc.in, now); got != want {
			t.Errorf("Timestamp(%q) = %q, want %q", tc.in, got, want)
		}
	}
}

func TestTimestampNowPhrases(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := "2024-06-01T12:00:00.000Z"

	for _, in := range []string{"just now", "now", "Recently", "just now •"} {
		if got := Timestamp(in, now); got != want {
			t.Errorf("Timestamp(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimestampGarbage(t *testing.T) {
	now := time.Now()

	for _, in := range []string{"", "   ", "garbage", "soon", "h2", "• Edited", "reply"} {
		if got := Timestamp(in, now); got != "" {
			t.Errorf("Timestamp(%q) = %q, want empty", in, got)
		}
	}
}
