package model

import "time"

type TenantStatus string

const (
	TenantActive     TenantStatus = "active"
	TenantCompleted  TenantStatus = "completed"
	TenantTerminated TenantStatus = "terminated"
	TenantExtended   TenantStatus = "extended"
)

// IsResident reports whether the tenant still lives in the room.
func (s TenantStatus) IsResident() bool {
	return s == TenantActive || s == TenantExtended
}

// Tenant is the system of record for who currently lives where. It is created
// exactly once per checked-in booking.
type Tenant struct {
	ID         string       `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID  string       `json:"booking_id" bson:"booking_id"`
	UserID     string       `json:"user_id" bson:"user_id"`
	OwnerID    string       `json:"owner_id" bson:"owner_id"`
	PropertyID string       `json:"property_id" bson:"property_id"`
	RoomID     string       `json:"room_id" bson:"room_id"`
	Status     TenantStatus `json:"status" bson:"status"`

	Name            string `json:"name" bson:"name"`
	Email           string `json:"email" bson:"email"`
	Phone           string `json:"phone,omitempty" bson:"phone,omitempty"`
	OwnerName       string `json:"owner_name" bson:"owner_name"`
	PropertyName    string `json:"property_name" bson:"property_name"`
	PropertyAddress string `json:"property_address" bson:"property_address"`
	RoomNumber      string `json:"room_number" bson:"room_number"`

	MonthlyRent     float64 `json:"monthly_rent" bson:"monthly_rent"`
	SecurityDeposit float64 `json:"security_deposit" bson:"security_deposit"`
	TotalAmount     float64 `json:"total_amount" bson:"total_amount"`

	CheckInDate        time.Time  `json:"check_in_date" bson:"check_in_date"`
	LeaseEndDate       time.Time  `json:"lease_end_date" bson:"lease_end_date"`
	ActualCheckOutDate *time.Time `json:"actual_check_out_date,omitempty" bson:"actual_check_out_date,omitempty"`
	TerminationReason  string     `json:"termination_reason,omitempty" bson:"termination_reason,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type TenantTransition struct {
	To           TenantStatus
	At           time.Time
	Reason       string
	LeaseEndDate *time.Time
}

func (t *TenantTransition) Apply(tenant *Tenant) {
	at := t.At
	tenant.Status = t.To
	tenant.UpdatedAt = at

	switch t.To {
	case TenantCompleted:
		tenant.ActualCheckOutDate = &at
	case TenantTerminated:
		tenant.ActualCheckOutDate = &at
		tenant.TerminationReason = t.Reason
	case TenantExtended:
		if t.LeaseEndDate != nil {
			tenant.LeaseEndDate = *t.LeaseEndDate
		}
	}
}

type TerminateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type ExtendRequest struct {
	LeaseEndDate time.Time `json:"lease_end_date" validate:"required"`
}

// User is the read-only view of a platform account used to fill in tenant
// contact details when a booking snapshot is incomplete.
type User struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}
