package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/enums"
)

// Order is the persisted header of a customer order. The enumerated status
// column is the single source of truth for the lifecycle; the paid/delivered
// booleans of the legacy schema are derived accessors, never stored.
type Order struct {
	OrderID     string            `gorm:"column:order_id;primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	ISTID       string            `gorm:"column:ist_id;not null"`
	Email       string            `gorm:"column:email;not null"`
	Phone       *string           `gorm:"column:phone"`
	NIF         *string           `gorm:"column:nif"`
	Campus      enums.Campus      `gorm:"column:campus;type:text;not null"`
	Notes       *string           `gorm:"column:notes"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:decimal(10,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidBy      *string           `gorm:"column:paid_by"`
	PaidAt      *time.Time        `gorm:"column:paid_at"`
	ReadyBy     *string           `gorm:"column:ready_by"`
	ReadyAt     *time.Time        `gorm:"column:ready_at"`
	DeliveredBy *string           `gorm:"column:delivered_by"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at"`
	CancelledBy *string           `gorm:"column:cancelled_by"`
	CancelledAt *time.Time        `gorm:"column:cancelled_at"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Paid reports whether payment has been recorded (and not reversed).
func (o *Order) Paid() bool {
	switch o.Status {
	case enums.OrderStatusPaid, enums.OrderStatusReady, enums.OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// Delivered reports whether the order reached its terminal delivered state.
func (o *Order) Delivered() bool {
	return o.Status == enums.OrderStatusDelivered
}
