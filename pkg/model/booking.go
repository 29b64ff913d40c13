package model

import (
	"time"
)

type CancelledBy string

const (
	CancelledByUser  CancelledBy = "user"
	CancelledByOwner CancelledBy = "owner"
)

type Payment struct {
	TotalAmount      float64 `json:"total_amount" bson:"total_amount" validate:"gte=0"`
	SecurityDeposit  float64 `json:"security_deposit" bson:"security_deposit" validate:"gte=0"`
	MonthlyRent      float64 `json:"monthly_rent" bson:"monthly_rent" validate:"gte=0"`
	GatewayOrderID   string  `json:"gateway_order_id,omitempty" bson:"gateway_order_id,omitempty"`
	GatewayPaymentID string  `json:"gateway_payment_id,omitempty" bson:"gateway_payment_id,omitempty"`
	Status           string  `json:"payment_status" bson:"payment_status" validate:"required,oneof=completed captured"`
}

// Snapshots are frozen copies of related documents taken when the booking is
// created. They are written once and never updated.
type UserSnapshot struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type OwnerSnapshot struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type PropertySnapshot struct {
	Name    string `json:"name" bson:"name" validate:"required,max=200"`
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
}

type RoomSnapshot struct {
	RoomNumber  string  `json:"room_number" bson:"room_number" validate:"required,max=50"`
	RoomType    string  `json:"room_type,omitempty" bson:"room_type,omitempty"`
	Occupancy   int     `json:"occupancy" bson:"occupancy" validate:"gte=0"`
	MonthlyRent float64 `json:"monthly_rent" bson:"monthly_rent" validate:"gte=0"`
}

type Booking struct {
	ID         string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID     string        `json:"user_id" bson:"user_id" validate:"required,max=64"`
	OwnerID    string        `json:"owner_id" bson:"owner_id" validate:"required,max=64"`
	PropertyID string        `json:"property_id" bson:"property_id" validate:"required,max=64"`
	RoomID     string        `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	Status     BookingStatus `json:"status" bson:"status" validate:"required,booking_status"`

	CheckInDate    time.Time `json:"check_in_date" bson:"check_in_date" validate:"required"`
	DurationMonths int       `json:"duration_months" bson:"duration_months" validate:"min=1,max=60"`

	Payment Payment `json:"payment" bson:"payment"`

	UserSnapshot     UserSnapshot     `json:"user_snapshot" bson:"user_snapshot"`
	OwnerSnapshot    OwnerSnapshot    `json:"owner_snapshot" bson:"owner_snapshot"`
	PropertySnapshot PropertySnapshot `json:"property_snapshot" bson:"property_snapshot"`
	RoomSnapshot     RoomSnapshot     `json:"room_snapshot" bson:"room_snapshot"`

	ApprovedAt         *time.Time  `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	ApprovedBy         string      `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	RejectedAt         *time.Time  `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy        CancelledBy `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	ActualCheckInDate  *time.Time  `json:"actual_check_in_date,omitempty" bson:"actual_check_in_date,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty" bson:"completed_at,omitempty"`

	IsDeleted bool       `json:"is_deleted" bson:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// CountsAgainstOccupancy reports whether the booking holds a slot in its room.
func (b *Booking) CountsAgainstOccupancy() bool {
	return !b.IsDeleted && b.Status.IsActive()
}

// LeaseEnd is the planned end of the stay measured from the given move-in time.
func (b *Booking) LeaseEnd(from time.Time) time.Time {
	return from.AddDate(0, b.DurationMonths, 0)
}

// BookingTransition describes one status change and the lifecycle stamps
// written with it.
type BookingTransition struct {
	To                 BookingStatus
	At                 time.Time
	ActorID            string
	CancelledBy        CancelledBy
	CancellationReason string
}

// Apply writes the transition onto b. Repositories persist exactly the
// fields touched here.
func (t *BookingTransition) Apply(b *Booking) {
	at := t.At
	b.Status = t.To
	b.UpdatedAt = at

	switch t.To {
	case BookingApproved:
		b.ApprovedAt = &at
		b.ApprovedBy = t.ActorID
	case BookingRejected:
		b.RejectedAt = &at
		b.CancelledBy = t.CancelledBy
		b.CancellationReason = t.CancellationReason
	case BookingCancelled:
		b.CancelledAt = &at
		b.CancelledBy = t.CancelledBy
		b.CancellationReason = t.CancellationReason
		b.IsDeleted = true
		b.DeletedAt = &at
	case BookingCheckedIn:
		b.ActualCheckInDate = &at
	case BookingCompleted:
		b.CompletedAt = &at
	}
}

type StatusUpdateRequest struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason,omitempty" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}
