package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
)

// Repository defines persistence operations for order headers and items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ExistsID(ctx context.Context, orderID string) (bool, error)
	CreateHeader(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	// TransitionStatus performs a conditional update scoped to the observed
	// status. It reports false when no row matched, which means the order is
	// gone or another writer moved it first.
	TransitionStatus(ctx context.Context, orderID string, from, to enums.OrderStatus, stamps map[string]any) (bool, error)
	DeleteItems(ctx context.Context, orderID string) error
	// DeleteHeader removes the header only while it still holds the observed
	// status, closing the race with a concurrent payment.
	DeleteHeader(ctx context.Context, orderID string, observed enums.OrderStatus) (bool, error)
}

// ListFilters narrow the order listing. Text filters match case-insensitive
// substrings; Unpaid and Undelivered project onto the status column.
type ListFilters struct {
	Name        string
	Email       string
	Phone       string
	ISTID       string
	Unpaid      bool
	Undelivered bool
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID string) (*OrderDTO, error)
	ListOrders(ctx context.Context, filters ListFilters) ([]OrderDTO, error)
	Transition(ctx context.Context, orderID string, target enums.OrderStatus, actingMember string) (*OrderDTO, error)
	UnsetPaid(ctx context.Context, orderID, actingMember string) (*OrderDTO, error)
	UnsetDelivered(ctx context.Context, orderID, actingMember string) (*OrderDTO, error)
	DeleteOrder(ctx context.Context, orderID string) error
}
