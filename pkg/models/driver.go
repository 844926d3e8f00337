package models

type DriverStatus string

const (
	DriverPending  DriverStatus = "pending"
	DriverOffline  DriverStatus = "offline"
	DriverOnline   DriverStatus = "online"
	DriverAssigned DriverStatus = "assigned"
	DriverBusy     DriverStatus = "busy"
)

// Connected reports whether the driver is reachable for dispatch or tracking.
func (s DriverStatus) Connected() bool {
	return s == DriverOnline || s == DriverAssigned || s == DriverBusy
}

type Driver struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Username  string       `json:"username"`
	Status    DriverStatus `json:"status"`
	Lang      string       `json:"lang,omitempty"`
	LastKnown *LatLon      `json:"lastKnown,omitempty"`
}
