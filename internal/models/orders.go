// ABOUTME: Order and wallet records returned by the platform API
// ABOUTME: The backend owns their lifecycle; the client only displays them

package models

import "time"

// OrderStatus is the backend-reported order lifecycle state
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order represents a ride request
type Order struct {
	ID          string      `json:"id"`
	RiderID     string      `json:"rider_id"`
	DriverID    string      `json:"driver_id,omitempty"`
	Pickup      string      `json:"pickup"`
	Destination string      `json:"destination"`
	Price       float64     `json:"price"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderRequest represents a new ride request
type OrderRequest struct {
	Pickup      string  `json:"pickup"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price,omitempty"`
}

// Wallet represents an account balance
type Wallet struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}
