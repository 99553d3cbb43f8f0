package booking

import (
	"strings"
	"time"

	"autoshop/models"
)

var (
	dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006/01/02"}
	timeLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"}
)

func statusColor(st models.BookingStatus) string {
	switch st {
	case models.StatusAccepted:
		return "#5cb85c"
	case models.StatusDenied:
		return "#d9534f"
	default:
		return "#f0ad4e"
	}
}

// SlotStart returns the local start time of a slot such as "9:00 - 10:00" on date.
func SlotStart(date, timeSlot string) (time.Time, bool) {
	start, _, ok := SlotRange(date, timeSlot)
	return start, ok
}

// SlotRange parses a date and a "start - end" time range. When the end is missing or not
// after the start, the slot is taken to last one hour.
func SlotRange(date, timeSlot string) (time.Time, time.Time, bool) {
	day, ok := parseDate(date)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	parts := splitRange(timeSlot)
	if len(parts) == 0 {
		return time.Time{}, time.Time{}, false
	}
	startClock, ok := parseClock(parts[0])
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := day.Add(startClock)
	end := start.Add(time.Hour)
	if len(parts) > 1 {
		if endClock, ok := parseClock(parts[1]); ok && endClock > startClock {
			end = day.Add(endClock)
		}
	}
	return start, end, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock returns the offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
		}
	}
	return 0, false
}

func splitRange(s string) []string {
	s = strings.NewReplacer("–", "-", "—", "-", " to ", "-").Replace(s)
	var parts []string
	for _, p := range strings.Split(s, "-") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
