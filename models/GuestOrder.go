package models

import (
	"gorm.io/gorm"
)

// Guest order lifecycle. Only the done transition touches inventory.
const (
	OrderPending  = "pending"
	OrderAccepted = "accepted"
	OrderDone     = "done"
	OrderRejected = "rejected"
)

// GuestOrder is one request from the guest-facing ordering queue. Token
// is an opaque identifier handed back to the guest so they can poll
// their order without a session.
type GuestOrder struct {
	gorm.Model
	DrinkID   uint   `gorm:"not null;index" json:"drink_id"`
	Drink     *Drink `gorm:"foreignKey:DrinkID" json:"drink,omitempty"`
	GuestName string `json:"guest_name"`
	Notes     string `gorm:"type:text" json:"notes"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	Status    string `gorm:"type:varchar(16);not null;default:pending" json:"status"`
}

// ValidOrderStatus reports whether value is a known order status.
func ValidOrderStatus(value string) bool {
	switch value {
	case OrderPending, OrderAccepted, OrderDone, OrderRejected:
		return true
	}
	return false
}
