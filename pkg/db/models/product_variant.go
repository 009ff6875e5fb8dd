package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/types"
)

// ProductVariant is one concrete purchasable configuration of a product,
// defined by exactly one value per option dimension.
type ProductVariant struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     string          `gorm:"column:product_id;not null;index"`
	Options       types.OptionMap `gorm:"column:options;type:jsonb;serializer:json"`
	PriceModifier decimal.Decimal `gorm:"column:price_modifier;type:decimal(10,2);not null;default:0"`
	StockQuantity *int            `gorm:"column:stock_quantity"`
	Active        bool            `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Available reports whether the variant can currently be ordered.
// A nil stock quantity means unlimited stock.
func (v *ProductVariant) Available() bool {
	return v.Active && (v.StockQuantity == nil || *v.StockQuantity > 0)
}

// LimitedStock reports whether the variant tracks a finite quantity.
func (v *ProductVariant) LimitedStock() bool {
	return v.StockQuantity != nil
}
