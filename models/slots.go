package models

import (
	"fmt"
	"strings"
)

const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
)

// Slot is an offered repair window read from the shop schedule.
type Slot struct {
	Date     string `json:"date"`     // as written in the schedule, e.g. "2025-06-10"
	Day      string `json:"day"`      // day of week, e.g. "Tuesday"
	TimeSlot string `json:"timeSlot"` // e.g. "9:00 - 10:00"
	Status   string `json:"status"`   // "available" or "booked"
}

// Label is the composed text a customer picks a slot by.
func (s Slot) Label() string {
	return fmt.Sprintf("%s (%s) %s", s.Date, s.Day, s.TimeSlot)
}

func (s Slot) IsAvailable() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), SlotAvailable)
}

// SlotOption is a slot as offered to a customer.
type SlotOption struct {
	Label string `json:"label"`
	Slot  Slot   `json:"slot"`
}
