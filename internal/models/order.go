package models

import (
	"github.com/google/uuid"
)

// Order statuses. A rider accepting a bid moves an order from pending to
// accepted; a delivered order is completed.
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusCompleted = "completed"
)

// Order is a delivery request placed by a user and bid on by riders.
type Order struct {
	BaseModel
	UserID             uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User               *User      `json:"user,omitempty"`
	RiderID            *uuid.UUID `gorm:"type:uuid;index" json:"rider_id"`
	Rider              *Rider     `json:"rider,omitempty"`
	PickupLocation     string     `json:"pickup_location"`
	PackageDescription string     `json:"package_description"`
	DropOffLocation    string     `gorm:"column:drop_off_location" json:"drop_off_location"`
	DropOffPhoneNumber string     `gorm:"column:drop_off_phone_number" json:"drop_off_phone_number"`
	DropOffContactName string     `gorm:"column:drop_off_contact_name" json:"drop_off_contact_name"`
	OfferAmount        float64    `json:"offer_amount"`
	PaymentMethod      string     `json:"payment_method"`
	Status             string     `gorm:"index;default:pending" json:"status"`
}
