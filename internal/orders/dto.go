package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	Name   string
	ISTID  string
	Email  string
	Phone  *string
	NIF    *string
	Campus enums.Campus
	Notes  *string
	Items  []OrderItemInput
}

// OrderItemInput is one cart line before resolution.
type OrderItemInput struct {
	ProductID  string
	Selections types.OptionMap
	Quantity   int
}

// Validation reasons reported per item. The whole cart is validated before
// any is returned, so one response covers every problem.
const (
	ReasonMissingField         = "missing_field"
	ReasonInvalidQuantity      = "invalid_quantity"
	ReasonUnknownProduct       = "unknown_product"
	ReasonInvalidSelection     = "invalid_selection"
	ReasonItemUnavailable      = "item_unavailable"
	ReasonDeadlinePassed       = "deadline_passed"
	ReasonBelowMinimumQuantity = "below_minimum_quantity"
	ReasonInsufficientStock    = "insufficient_stock"
)

// ValidationIssue names one problem with a create request. Item is the
// zero-based cart position; it is nil for order-level issues.
type ValidationIssue struct {
	Field     string `json:"field,omitempty"`
	Item      *int   `json:"item,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// OrderDTO represents the order payload returned to clients. Paid and
// Delivered are derived from the status column.
type OrderDTO struct {
	OrderID     string          `json:"order_id"`
	Name        string          `json:"name"`
	ISTID       string          `json:"ist_id"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone,omitempty"`
	NIF         *string         `json:"nif,omitempty"`
	Campus      string          `json:"campus"`
	Notes       *string         `json:"notes,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Paid        bool            `json:"paid"`
	Delivered   bool            `json:"delivered"`
	PaidBy      *string         `json:"paid_by,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	ReadyBy     *string         `json:"ready_by,omitempty"`
	ReadyAt     *time.Time      `json:"ready_at,omitempty"`
	DeliveredBy *string         `json:"delivered_by,omitempty"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	CancelledBy *string         `json:"cancelled_by,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	Items       []OrderItemDTO  `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Options     types.OptionMap `json:"options,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewOrderDTO builds a DTO from the persisted model.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		OrderID:     order.OrderID,
		Name:        order.Name,
		ISTID:       order.ISTID,
		Email:       order.Email,
		Phone:       order.Phone,
		NIF:         order.NIF,
		Campus:      order.Campus.String(),
		Notes:       order.Notes,
		TotalAmount: order.TotalAmount,
		Status:      order.Status.String(),
		Paid:        order.Paid(),
		Delivered:   order.Delivered(),
		PaidBy:      order.PaidBy,
		PaidAt:      order.PaidAt,
		ReadyBy:     order.ReadyBy,
		ReadyAt:     order.ReadyAt,
		DeliveredBy: order.DeliveredBy,
		DeliveredAt: order.DeliveredAt,
		CancelledBy: order.CancelledBy,
		CancelledAt: order.CancelledAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	dto.Items = make([]OrderItemDTO, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantID:   item.VariantID,
			Options:     item.Options.Clone(),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		})
	}
	return dto
}
