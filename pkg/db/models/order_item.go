package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/types"
)

// OrderItem captures the snapshot of each line within an order. The unit
// price is frozen at order time and never recomputed from the catalogue.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     string          `gorm:"column:order_id;not null;index"`
	ProductID   string          `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Options     types.OptionMap `gorm:"column:options;type:jsonb;serializer:json"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal returns quantity times the frozen unit price.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
