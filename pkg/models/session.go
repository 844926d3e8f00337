package models

import (
	"fmt"
	"time"
)

// Session is a time-boxed grant for forwarding a driver's live location to
// the customer of one order. At most one non-ended, non-expired session may
// exist per driver.
type Session struct {
	ID           string     `json:"id"`
	DriverID     int64      `json:"driverId"`
	OrderID      int64      `json:"orderId"`
	StartedAt    time.Time  `json:"startedAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Ended        bool       `json:"ended"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	LastLocation *LatLon    `json:"lastLocation,omitempty"`
}

func NewSessionID(driverID, orderID int64, startedAt time.Time) string {
	return fmt.Sprintf("%d:%d:%d", driverID, orderID, startedAt.UnixMilli())
}

// ActiveAt reports whether the session is neither ended nor expired at t.
func (s *Session) ActiveAt(t time.Time) bool {
	return !s.Ended && s.ExpiresAt.After(t)
}
