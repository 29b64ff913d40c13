package model

import "fmt"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPendingApproval  BookingStatus = "pending_approval"
	BookingPaymentCompleted BookingStatus = "payment_completed"
	BookingConfirmed        BookingStatus = "confirmed"
	BookingApproved         BookingStatus = "approved"
	BookingCheckedIn        BookingStatus = "checked_in"
	BookingRejected         BookingStatus = "rejected"
	BookingCancelled        BookingStatus = "cancelled"
	BookingCompleted        BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingApproval:  {BookingApproved, BookingRejected, BookingCancelled},
	BookingPaymentCompleted: {BookingApproved, BookingRejected, BookingCancelled, BookingCheckedIn},
	BookingConfirmed:        {BookingCheckedIn, BookingCancelled},
	BookingApproved:         {BookingCheckedIn, BookingCancelled},
	BookingCheckedIn:        {BookingCancelled, BookingCompleted},
	BookingRejected:         {},
	BookingCancelled:        {},
	BookingCompleted:        {},
}

// activeBookingStatuses count against room occupancy. A booking occupies
// capacity from the moment an owner approves it, not only after check-in.
var activeBookingStatuses = []BookingStatus{
	BookingConfirmed,
	BookingCheckedIn,
	BookingApproved,
	BookingPaymentCompleted,
}

// ActiveBookingStatuses returns a copy of the statuses counted against occupancy.
func ActiveBookingStatuses() []BookingStatus {
	out := make([]BookingStatus, len(activeBookingStatuses))
	copy(out, activeBookingStatuses)
	return out
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsActive() bool {
	for _, a := range activeBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	next, ok := bookingTransitions[s]
	return !ok || len(next) == 0
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
