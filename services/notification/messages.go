package notification

import (
	"fmt"

	"autoshop/models"
)

func bookingReceivedMessage(name string, record models.BookingRecord, quote float64) (string, string) {
	subject := "Your repair booking request"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your repair booking for %s, %s.\n"+
			"Estimated labor: %.1f hrs × $%.2f/hr = $%.2f.\n\n"+
			"The shop will review the request and confirm shortly.\n",
		name, record.Date, record.TimeSlot, record.EstimatedHours, record.HourlyRate, quote,
	)
	return subject, body
}

func decisionMessage(record models.BookingRecord) (string, string) {
	switch record.Status {
	case models.StatusAccepted:
		return "Your repair appointment is confirmed", fmt.Sprintf(
			"Hi %s,\n\nThe shop accepted your booking on %s, %s. See you then.\n",
			record.CustomerName, record.Date, record.TimeSlot)
	default:
		return "Your repair booking could not be accommodated", fmt.Sprintf(
			"Hi %s,\n\nUnfortunately the shop could not take your booking on %s, %s. "+
				"Please pick another slot.\n",
			record.CustomerName, record.Date, record.TimeSlot)
	}
}

func reminderMessage(p models.ReminderPayload) (string, string) {
	return "Reminder: repair appointment tomorrow", fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder of your repair appointment on %s, %s.\n",
		p.Name, p.Date, p.TimeSlot)
}
