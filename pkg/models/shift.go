package models

import "time"

// ShiftProfile is an admin-defined profile that accumulates shift history
// and feedback stars over time. Protected by a 4-digit PIN set at creation.
type ShiftProfile struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	PIN         string        `json:"pin"`
	Shifts      []ShiftRecord `json:"shifts"`
	TotalStars  int           `json:"totalStars"`
	ActiveShift *ShiftRecord  `json:"activeShift,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type ShiftRecord struct {
	StartedAt        time.Time  `json:"startedAt"`
	ClosedAt         *time.Time `json:"closedAt"`
	ConnectedDrivers []int64    `json:"connectedDrivers"`
}
