package models

import "time"

// CalendarEvent is one booking rendered on the shop calendar.
type CalendarEvent struct {
	ID     RecordID      `json:"id"`
	Title  string        `json:"title"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Color  string        `json:"color"`
	Status BookingStatus `json:"status"`
}
