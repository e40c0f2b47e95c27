package service

import (
	"fmt"
	"strings"
	"time"

	"go-schedule-api/core/constants"
	"go-schedule-api/modules/calendar/dto"
)

const icsDateTimeFormat = "20060102T150405Z"

// FormatICS renders a VCALENDAR with one VEVENT per entry. Times are written in UTC.
func FormatICS(calendarName string, entries []dto.ICSEntry, now time.Time) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:" + constants.CalendarProdID + "\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")
	fmt.Fprintf(&b, "X-WR-CALNAME:%s\r\n", escapeText(calendarName))

	for _, entry := range entries {
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s\r\n", escapeText(entry.UID))
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", formatDateTime(now))
		fmt.Fprintf(&b, "DTSTART:%s\r\n", formatDateTime(entry.Start))
		if !entry.End.IsZero() {
			fmt.Fprintf(&b, "DTEND:%s\r\n", formatDateTime(entry.End))
		}
		if entry.Summary != "" {
			fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeText(entry.Summary))
		}
		if entry.Description != "" {
			fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escapeText(entry.Description))
		}
		b.WriteString("END:VEVENT\r\n")
	}

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(icsDateTimeFormat)
}

func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, "\r\n", "\\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}
