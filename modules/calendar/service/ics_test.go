package service

import (
	"strings"
	"testing"
	"time"

	"go-schedule-api/modules/calendar/dto"
)

func TestFormatICS(t *testing.T) {
	now := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	out := FormatICS("Team Lunch", []dto.ICSEntry{{
		UID:         "abc-1@go-schedule-api",
		Summary:     "Team Lunch; floor 3, room A",
		Description: "bring\nreceipts",
		Start:       start,
		End:         start.Add(time.Hour),
	}}, now)

	want := []string{
		"BEGIN:VCALENDAR\r\n",
		"X-WR-CALNAME:Team Lunch\r\n",
		"UID:abc-1@go-schedule-api\r\n",
		"DTSTAMP:20250520T080000Z\r\n",
		"DTSTART:20250601T120000Z\r\n",
		"DTEND:20250601T130000Z\r\n",
		"SUMMARY:Team Lunch\\; floor 3\\, room A\r\n",
		"DESCRIPTION:bring\\nreceipts\r\n",
		"END:VEVENT\r\nEND:VCALENDAR\r\n",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("FormatICS() missing %q in:\n%s", w, out)
		}
	}
}

func TestEscapeText(t *testing.T) {
	tt := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: `a\b`, want: `a\\b`},
		{in: "a;b,c", want: `a\;b\,c`},
		{in: "line1\r\nline2", want: `line1\nline2`},
	}
	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			if got := escapeText(tc.in); got != tc.want {
				t.Errorf("escapeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
