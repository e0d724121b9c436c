// Package calendar decides which dates the venue can host events on and
// proposes concrete candidates when a client's date hint is vague.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
)

// Calendar answers date-validity questions for the booking workflow.
type Calendar interface {
	// IsOperatingDay reports whether the venue opens on that weekday
	IsOperatingDay(t time.Time) bool
	// IsBlocked reports whether the concrete date is blocked
	IsBlocked(t time.Time) bool
	// Bookable reports whether an event can be hosted on the date:
	// strictly in the future, an operating day, and not blocked
	Bookable(t, now time.Time) bool
	// CandidateDates proposes up to n bookable dates at roughly weekly
	// spacing, starting no earlier than from
	CandidateDates(from time.Time, n int) []time.Time
}

// VenueCalendar is the configured Calendar implementation.
type VenueCalendar struct {
	operating map[time.Weekday]bool
	blocked   map[string]bool
	loc       *time.Location
}

var _ Calendar = (*VenueCalendar)(nil)

// New builds a calendar from the resolved venue configuration. Unknown
// weekday names are ignored; an empty operating list means open daily.
// Blocked dates accept both DD.MM.YYYY and YYYY-MM-DD.
func New(cfg config.VenueCalendar, loc *time.Location) *VenueCalendar {
	if loc == nil {
		loc = time.UTC
	}
	operating := make(map[time.Weekday]bool, len(cfg.OperatingDays))
	for _, name := range cfg.OperatingDays {
		if wd, ok := weekdayByName(name); ok {
			operating[wd] = true
		}
	}
	blocked := make(map[string]bool, len(cfg.BlockedDates))
	for _, raw := range cfg.BlockedDates {
		if t, err := ParseDate(raw); err == nil {
			blocked[FormatISO(t)] = true
		}
	}
	return &VenueCalendar{operating: operating, blocked: blocked, loc: loc}
}

// Location returns the venue timezone.
func (c *VenueCalendar) Location() *time.Location { return c.loc }

// IsOperatingDay implements Calendar.
func (c *VenueCalendar) IsOperatingDay(t time.Time) bool {
	if len(c.operating) == 0 {
		return true
	}
	return c.operating[t.In(c.loc).Weekday()]
}

// IsBlocked implements Calendar.
func (c *VenueCalendar) IsBlocked(t time.Time) bool {
	return c.blocked[FormatISO(t)]
}

// Bookable implements Calendar.
func (c *VenueCalendar) Bookable(t, now time.Time) bool {
	if !t.After(endOfDay(now, c.loc)) {
		return false
	}
	return c.IsOperatingDay(t) && !c.IsBlocked(t)
}

// CandidateDates implements Calendar. Candidates are spaced about one
// week apart so a client choosing among them gets real alternatives.
func (c *VenueCalendar) CandidateDates(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	day := from.In(c.loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)

	var out []time.Time
	for scanned := 0; len(out) < n && scanned < 365; scanned++ {
		if c.IsOperatingDay(day) && !c.IsBlocked(day) {
			out = append(out, day)
			day = day.AddDate(0, 0, 7)
			continue
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// dateLayouts are the accepted literal formats, most specific first.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "2.1.2006", "02/01/2006", "2/1/2006"}

// ParseDate reads a date in ISO or day-first client notation.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatISO renders YYYY-MM-DD, the storage and hashing form.
func FormatISO(t time.Time) string { return t.Format("2006-01-02") }

// FormatDisplay renders DD.MM.YYYY, the client-facing form.
func FormatDisplay(t time.Time) string { return t.Format("02.01.2006") }

var weekdaysByName = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

func weekdayByName(name string) (time.Weekday, bool) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// seasonStarts maps season hints to their first month/day.
var seasonStarts = map[string][2]int{
	"spring":   {3, 20},
	"summer":   {6, 21},
	"autumn":   {9, 22},
	"fall":     {9, 22},
	"winter":   {12, 21},
	"frühling": {3, 20},
	"sommer":   {6, 21},
	"herbst":   {9, 22},
}

var monthsByName = map[string]time.Month{
	"january": time.January, "februar": time.February, "february": time.February,
	"march": time.March, "märz": time.March, "april": time.April,
	"may": time.May, "mai": time.May, "june": time.June, "juni": time.June,
	"july": time.July, "juli": time.July, "august": time.August,
	"september": time.September, "october": time.October, "oktober": time.October,
	"november": time.November, "december": time.December, "dezember": time.December,
	"januar": time.January,
}

// WindowStart resolves a vague date hint ("next spring", "sometime in
// May") to the earliest date the hint can mean, always in the future.
func WindowStart(hint string, now time.Time) (time.Time, bool) {
	words := strings.FieldsFunc(strings.ToLower(hint), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	for _, w := range words {
		if md, ok := seasonStarts[w]; ok {
			start := time.Date(now.Year(), time.Month(md[0]), md[1], 0, 0, 0, 0, now.Location())
			if !start.After(now) {
				start = start.AddDate(1, 0, 0)
			}
			return start, true
		}
		if month, ok := monthsByName[w]; ok {
			start := time.Date(now.Year(), month, 1, 0, 0, 0, 0, now.Location())
			if !start.After(now) {
				start = start.AddDate(1, 0, 0)
			}
			return start, true
		}
	}
	return time.Time{}, false
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
}
