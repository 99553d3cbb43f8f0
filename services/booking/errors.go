package booking

import "errors"

var (
	// ErrInvalidStatusTransition is returned when a decided booking is asked to change.
	ErrInvalidStatusTransition = errors.New("booking has already been decided")
	// ErrSlotConflict is returned when accepting would put two accepted bookings in one slot.
	ErrSlotConflict = errors.New("slot already has an accepted booking")
)
