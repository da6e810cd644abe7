package bookings

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusRescheduled BookingStatus = "rescheduled"
)

// LiveStatuses are the states that occupy a slot. Cancelled bookings free
// their slot immediately.
var LiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusRescheduled}

// IsLive reports whether the booking still holds its slot
func (s BookingStatus) IsLive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRescheduled:
		return true
	}
	return false
}
