package status

import (
	"fmt"

	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/notify"
)

func confirmedNotice(appt *model.Appointment, number int) notify.Notice {
	kind := ""
	if appt.IsUrgent {
		kind = "urgent "
	}
	return notify.Notice{
		UserID:        appt.CustomerID,
		AppointmentID: appt.ID,
		Title:         "Appointment Confirmed!",
		Message:       fmt.Sprintf("Your %sappointment on %s has been confirmed. Queue number: #%d.", kind, appt.Date, number),
		Category:      notify.CategoryAppointmentConfirmed,
		Payload: map[string]any{
			"queue_number": number,
			"is_urgent":    appt.IsUrgent,
		},
	}
}

func declinedNotice(appt *model.Appointment, reason string) notify.Notice {
	return notify.Notice{
		UserID:        appt.CustomerID,
		AppointmentID: appt.ID,
		Title:         "Appointment Declined",
		Message:       fmt.Sprintf("Your appointment request has been declined. Reason: %s", reason),
		Category:      notify.CategoryAppointmentDeclined,
		Payload:       map[string]any{"reason": reason},
	}
}

func customerCancelledNotice(provider *model.Provider, appt *model.Appointment) notify.Notice {
	return notify.Notice{
		UserID:        provider.UserID,
		AppointmentID: appt.ID,
		Title:         "Appointment Cancelled",
		Message:       fmt.Sprintf("A customer has cancelled their appointment on %s.", appt.Date),
		Category:      notify.CategoryAppointmentCancelled,
		Payload:       map[string]any{"customer_id": appt.CustomerID.String()},
	}
}

func upNextNotice(appt model.Appointment) notify.Notice {
	return notify.Notice{
		UserID:        appt.CustomerID,
		AppointmentID: appt.ID,
		Title:         "You're up next!",
		Message:       "Your appointment is coming up next. Please be ready.",
		Category:      notify.CategoryQueue,
		Payload:       map[string]any{"position": 1},
	}
}

// RequestNotice — уведомление провайдеру о новой заявке.
func RequestNotice(provider *model.Provider, appt *model.Appointment) notify.Notice {
	title, category := "New Booking Request", notify.CategoryBookingRequest
	if appt.IsUrgent {
		title, category = "URGENT Booking Request", notify.CategoryUrgentBooking
	}
	kind := "booking"
	if appt.IsRebooking {
		kind = "rebooking"
	}
	return notify.Notice{
		UserID:        provider.UserID,
		AppointmentID: appt.ID,
		Title:         title,
		Message:       fmt.Sprintf("You have a new %s request for %s.", kind, appt.Date),
		Category:      category,
		Payload: map[string]any{
			"is_urgent":    appt.IsUrgent,
			"is_rebooking": appt.IsRebooking,
			"total_price":  appt.TotalPrice,
		},
	}
}
