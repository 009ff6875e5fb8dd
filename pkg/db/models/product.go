package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/enums"
)

// Product represents one catalogue listing of the shop.
type Product struct {
	ID                string          `gorm:"column:id;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Description       *string         `gorm:"column:description"`
	Category          string          `gorm:"column:category;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	StockType         enums.StockType `gorm:"column:stock_type;type:text;not null;default:'limited'"`
	OrderDeadline     *time.Time      `gorm:"column:order_deadline"`
	MinOrderQuantity  *int            `gorm:"column:min_order_quantity"`
	EstimatedDelivery *string         `gorm:"column:estimated_delivery"`
	Visible           bool            `gorm:"column:visible;not null;default:true"`
	Featured          bool            `gorm:"column:featured;not null;default:false"`
	OptionSchema      []string        `gorm:"column:option_schema;type:jsonb;serializer:json"`
	Variants          []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// OnDemand reports whether the product is ordered in bulk against a deadline.
func (p *Product) OnDemand() bool {
	return p.StockType == enums.StockTypeOnDemand
}

// DeadlinePassed reports whether the ordering window has closed at now.
// Products without a deadline never close.
func (p *Product) DeadlinePassed(now time.Time) bool {
	return p.OrderDeadline != nil && now.After(*p.OrderDeadline)
}
