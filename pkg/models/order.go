package models

import "time"

type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "pickedup"
	StatusArrived   OrderStatus = "arrived"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusArchived  OrderStatus = "archived"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusArchived
}

// Active reports whether a driver is currently working the order.
func (s OrderStatus) Active() bool {
	return s == StatusAssigned || s == StatusPickedUp || s == StatusArrived
}

func (s OrderStatus) Emoji() string {
	switch s {
	case StatusNew:
		return "🆕"
	case StatusAssigned:
		return "🛍️"
	case StatusPickedUp:
		return "⚡"
	case StatusArrived:
		return "🏁"
	case StatusCompleted:
		return "✅"
	case StatusCancelled:
		return "❌"
	case StatusArchived:
		return "🗄"
	}
	return "🆕"
}

type Order struct {
	ID             int64       `json:"order_id"`
	Status         OrderStatus `json:"order_status"`
	CustomerName   string      `json:"customer_name"`
	CustomerID     *int64      `json:"customer_id"`
	MapLink        string      `json:"map_link"`
	TotalAmount    *float64    `json:"total_amount"`
	GivenCash      *float64    `json:"given_cash"`
	ChangeCash     *float64    `json:"change_cash"`
	PaidStatus     string      `json:"paid_status"`
	PaymentMethod  string      `json:"payment_method"`
	DriverName     string      `json:"driver_name"`
	DriverID       *int64      `json:"driver_id"`
	DriverAssigned bool        `json:"driver_assigned"`
	DriverStatus   string      `json:"driver_status"`
	Items          string      `json:"items"`
	Feedback       *int        `json:"feedback"`
	Media          *Media      `json:"media,omitempty"`
	CreatedAt      time.Time   `json:"date_time_stamp"`
}

// Destination returns the order's delivery coordinates when the recorded
// location is a structured "location:lat,lon" link.
func (o *Order) Destination() (LatLon, bool) {
	return ParseLocationLink(o.MapLink)
}

const (
	PaymentCash = "CASH"
	PaymentQR   = "QR"

	PaidStatusPaid = "PAID"
)
