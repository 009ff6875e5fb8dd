package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID                string               `json:"id"`
	Name              string               `json:"name"`
	Description       *string              `json:"description,omitempty"`
	Category          string               `json:"category"`
	Price             decimal.Decimal      `json:"price"`
	StockType         string               `json:"stock_type"`
	OrderDeadline     *time.Time           `json:"order_deadline,omitempty"`
	MinOrderQuantity  *int                 `json:"min_order_quantity,omitempty"`
	EstimatedDelivery *string              `json:"estimated_delivery,omitempty"`
	Visible           bool                 `json:"visible"`
	Featured          bool                 `json:"featured"`
	Options           []OptionDimensionDTO `json:"options,omitempty"`
	Variants          []VariantDTO         `json:"variants,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// OptionDimensionDTO lists every value a dimension takes across the
// product's variants.
type OptionDimensionDTO struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// VariantDTO represents one purchasable combination.
type VariantDTO struct {
	ID            uuid.UUID       `json:"id"`
	Options       types.OptionMap `json:"options"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	StockQuantity *int            `json:"stock_quantity,omitempty"`
	Active        bool            `json:"active"`
	Available     bool            `json:"available"`
}

// OptionValuesDTO is the answer to "what do I pick next". An empty key means
// the selection already covers every dimension.
type OptionValuesDTO struct {
	ProductID string   `json:"product_id"`
	Key       string   `json:"key,omitempty"`
	Values    []string `json:"values,omitempty"`
	Complete  bool     `json:"complete"`
}

// ResolvedVariantDTO is the answer to a complete selection. VariantID is
// omitted for option-less products, which resolve to an implicit default.
type ResolvedVariantDTO struct {
	ProductID     string          `json:"product_id"`
	VariantID     *uuid.UUID      `json:"variant_id,omitempty"`
	Options       types.OptionMap `json:"options"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity *int            `json:"stock_quantity,omitempty"`
	Available     bool            `json:"available"`
}

// stockedDeliveryEstimate is shown for limited-stock products that carry no
// estimate of their own; on-demand products state theirs explicitly.
var stockedDeliveryEstimate = "1-5 business days"

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                product.ID,
		Name:              product.Name,
		Description:       product.Description,
		Category:          product.Category,
		Price:             product.Price,
		StockType:         product.StockType.String(),
		OrderDeadline:     product.OrderDeadline,
		MinOrderQuantity:  product.MinOrderQuantity,
		EstimatedDelivery: product.EstimatedDelivery,
		Visible:           product.Visible,
		Featured:          product.Featured,
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
	if dto.EstimatedDelivery == nil && !product.OnDemand() {
		dto.EstimatedDelivery = &stockedDeliveryEstimate
	}
	for _, key := range OptionKeys(product) {
		variants := make([]*models.ProductVariant, 0, len(product.Variants))
		for i := range product.Variants {
			variants = append(variants, &product.Variants[i])
		}
		dto.Options = append(dto.Options, OptionDimensionDTO{
			Key:    key,
			Values: distinctValues(variants, key),
		})
	}
	for i := range product.Variants {
		variant := &product.Variants[i]
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:            variant.ID,
			Options:       variant.Options.Clone(),
			PriceModifier: variant.PriceModifier,
			FinalPrice:    product.Price.Add(variant.PriceModifier),
			StockQuantity: variant.StockQuantity,
			Active:        variant.Active,
			Available:     variant.Available(),
		})
	}
	return dto
}
