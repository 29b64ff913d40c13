package model

import "time"

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomFull        RoomStatus = "full"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room is a bookable unit. IsAvailable and RoomStatus are derived from the
// active booking count and only ever written by the occupancy reconciler.
//
// IsAvailable always means "active bookings < Occupancy", including for a
// room in RoomMaintenance: maintenance is kept as the status across recounts
// but does not clear IsAvailable. Listing a room as bookable needs both
// IsAvailable and a status other than RoomMaintenance.
type Room struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty"`
	PropertyID  string     `json:"property_id" bson:"property_id"`
	RoomNumber  string     `json:"room_number" bson:"room_number"`
	Occupancy   int        `json:"occupancy" bson:"occupancy"`
	IsAvailable bool       `json:"is_available" bson:"is_available"`
	RoomStatus  RoomStatus `json:"room_status" bson:"room_status"`
	Version     int64      `json:"version" bson:"version"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// RoomOccupancy is the result of one reconciliation pass over a room.
type RoomOccupancy struct {
	RoomID      string     `json:"room_id"`
	Occupancy   int        `json:"occupancy"`
	ActiveCount int64      `json:"active_count"`
	IsAvailable bool       `json:"is_available"`
	RoomStatus  RoomStatus `json:"room_status"`
	// Drift is true when the stored flags disagreed with the recount.
	Drift bool `json:"drift"`
}
