// Package ics writes minimal iCalendar documents for calendar export.
package ics

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"
)

const dateTimeUTC = "20060102T150405Z"

// Event is one VEVENT. Times are written in UTC.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	Updated time.Time
}

// Calendar is a VCALENDAR document.
type Calendar struct {
	Name   string
	Events []Event
}

// Write emits the document with CRLF line endings and long lines folded.
func (c Calendar) Write(w io.Writer) error {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//TimeGrid//EN")
	if c.Name != "" {
		writeLine(&b, "X-WR-CALNAME:"+Escape(c.Name))
	}

	for _, ev := range c.Events {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+ev.UID)
		stamp := ev.Updated
		if stamp.IsZero() {
			stamp = time.Now()
		}
		writeLine(&b, "DTSTAMP:"+stamp.UTC().Format(dateTimeUTC))
		writeLine(&b, "DTSTART:"+ev.Start.UTC().Format(dateTimeUTC))
		writeLine(&b, "DTEND:"+ev.End.UTC().Format(dateTimeUTC))
		writeLine(&b, "SUMMARY:"+Escape(ev.Summary))
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	_, err := io.WriteString(w, b.String())
	return err
}

// ETag derives a stable entity tag from the rendered document.
func (c Calendar) ETag() string {
	var b strings.Builder
	_ = c.Write(&b)
	h := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", h)
}

// Escape applies RFC 5545 text escaping.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine folds content at 75 octets with a space continuation, per
// RFC 5545 section 3.1.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		cut := limit
		// Do not split inside a UTF-8 sequence.
		for cut > 1 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}
