package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/internal/catalog"
	"github.com/neiist-dev/shop-backend/pkg/db"
	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogStore interface {
	WithTx(tx *gorm.DB) catalog.Repository
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string)
}

type flowRecorder interface {
	OrderCreated()
	IdentifierCollision()
	TransitionRejected()
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog catalogStore
	ids     *IDGenerator
	cache   cacheInvalidator
	metrics flowRecorder
	now     func() time.Time
}

// NewService builds the order service. Cache and metrics are optional.
func NewService(repo Repository, tx txRunner, catalogRepo catalogStore, ids *IDGenerator, cache cacheInvalidator, metrics flowRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: catalogRepo,
		ids:     ids,
		cache:   cache,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// resolvedLine is a cart line after catalog resolution, with the unit price
// frozen at validation time.
type resolvedLine struct {
	input     OrderItemInput
	product   *models.Product
	variant   *models.ProductVariant
	unitPrice decimal.Decimal
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	issues := validateCustomer(input)

	lines := make([]resolvedLine, 0, len(input.Items))
	total := decimal.Zero
	for i := range input.Items {
		itemIssues, line, err := s.validateItem(ctx, i, input.Items[i])
		if err != nil {
			return nil, err
		}
		issues = append(issues, itemIssues...)
		if line != nil && len(itemIssues) == 0 {
			total = total.Add(line.unitPrice.Mul(decimal.NewFromInt(int64(line.input.Quantity))))
			lines = append(lines, *line)
		}
	}
	if len(issues) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order validation failed").WithDetails(issues)
	}

	var created *models.Order
	write := func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.writeOrder(ctx, tx, input, lines, total)
			if err != nil {
				return err
			}
			created = order
			return nil
		})
	}
	err := write()
	if err != nil && db.IsUniqueViolation(err, "") {
		// another writer claimed the identifier between check and insert;
		// one whole-transaction retry with a fresh id
		s.recordCollision()
		err = write()
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}

	s.invalidateProducts(ctx, lines)
	s.recordCreated()
	return NewOrderDTO(created), nil
}

// writeOrder runs inside one transaction: identifier, header, items, and
// stock decrements commit or roll back together.
func (s *service) writeOrder(ctx context.Context, tx *gorm.DB, input CreateOrderInput, lines []resolvedLine, total decimal.Decimal) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	orderID, err := s.ids.Generate(ctx, repo.ExistsID)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		OrderID:     orderID,
		Name:        strings.TrimSpace(input.Name),
		ISTID:       strings.TrimSpace(input.ISTID),
		Email:       strings.TrimSpace(input.Email),
		Phone:       input.Phone,
		NIF:         input.NIF,
		Campus:      input.Campus,
		Notes:       input.Notes,
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
	}
	if err := repo.CreateHeader(ctx, order); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Options:     line.input.Selections.Clone(),
			Quantity:    line.input.Quantity,
			UnitPrice:   line.unitPrice,
		}
		if line.variant.ID != uuid.Nil {
			variantID := line.variant.ID
			item.VariantID = &variantID
		}
		items = append(items, item)
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	for _, line := range lines {
		if line.product.StockType == enums.StockTypeLimited && line.variant.LimitedStock() {
			if err := catalogRepo.DecrementVariantStock(ctx, line.variant.ID, line.input.Quantity); err != nil {
				return nil, err
			}
		}
	}

	order.Items = items
	return order, nil
}

func validateCustomer(input CreateOrderInput) []ValidationIssue {
	var issues []ValidationIssue
	missing := func(field string) {
		issues = append(issues, ValidationIssue{
			Field:   field,
			Reason:  ReasonMissingField,
			Message: field + " is required",
		})
	}
	if strings.TrimSpace(input.Name) == "" {
		missing("name")
	}
	if strings.TrimSpace(input.ISTID) == "" {
		missing("ist_id")
	}
	if strings.TrimSpace(input.Email) == "" {
		missing("email")
	}
	if !input.Campus.IsValid() {
		issues = append(issues, ValidationIssue{
			Field:   "campus",
			Reason:  ReasonMissingField,
			Message: "campus must be one of Alameda, Taguspark",
		})
	}
	if len(input.Items) == 0 {
		issues = append(issues, ValidationIssue{
			Field:   "items",
			Reason:  ReasonMissingField,
			Message: "items list must not be empty",
		})
	}
	return issues
}

// validateItem checks one cart line. User-level problems come back as issues
// so the whole cart is reported at once; storage failures abort immediately.
func (s *service) validateItem(ctx context.Context, index int, item OrderItemInput) ([]ValidationIssue, *resolvedLine, error) {
	idx := index
	var issues []ValidationIssue
	add := func(reason, message string) {
		issues = append(issues, ValidationIssue{
			Item:      &idx,
			ProductID: item.ProductID,
			Reason:    reason,
			Message:   message,
		})
	}

	if strings.TrimSpace(item.ProductID) == "" {
		add(ReasonMissingField, "product_id is required")
		return issues, nil, nil
	}
	if item.Quantity <= 0 {
		add(ReasonInvalidQuantity, "quantity must be positive")
	}

	product, err := s.catalog.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			add(ReasonUnknownProduct, fmt.Sprintf("product %q does not exist", item.ProductID))
			return issues, nil, nil
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product for validation")
	}
	if !product.Visible {
		add(ReasonUnknownProduct, fmt.Sprintf("product %q does not exist", item.ProductID))
		return issues, nil, nil
	}

	variant, err := catalog.ResolveVariant(product, item.Selections)
	if err != nil {
		message := "selection does not resolve to a variant"
		if typed := pkgerrors.As(err); typed != nil {
			message = typed.Message()
		}
		add(ReasonInvalidSelection, message)
		return issues, nil, nil
	}

	if !variant.Available() {
		add(ReasonItemUnavailable, fmt.Sprintf("product %q is not available in the selected configuration", item.ProductID))
	} else if product.OnDemand() {
		if product.DeadlinePassed(s.now()) {
			add(ReasonDeadlinePassed, fmt.Sprintf("ordering deadline for %q has passed", item.ProductID))
		}
		if product.MinOrderQuantity != nil && item.Quantity < *product.MinOrderQuantity {
			add(ReasonBelowMinimumQuantity, fmt.Sprintf("minimum order quantity for %q is %d", item.ProductID, *product.MinOrderQuantity))
		}
	} else if variant.LimitedStock() && item.Quantity > *variant.StockQuantity {
		add(ReasonInsufficientStock, fmt.Sprintf("only %d left of %q in the selected configuration", *variant.StockQuantity, item.ProductID))
	}
	if len(issues) > 0 {
		return issues, nil, nil
	}

	return nil, &resolvedLine{
		input:     item,
		product:   product,
		variant:   variant,
		unitPrice: product.Price.Add(variant.PriceModifier),
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, filters ListFilters) ([]OrderDTO, error) {
	orders, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *NewOrderDTO(&orders[i]))
	}
	return dtos, nil
}

func (s *service) Transition(ctx context.Context, orderID string, target enums.OrderStatus, actingMember string) (*OrderDTO, error) {
	if err := checkTransitionInput(orderID, actingMember); err != nil {
		return nil, err
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", string(target)))
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := GuardTransition(order.Status, target); err != nil {
		s.recordRejected()
		return nil, err
	}

	stamps := transitionStamps(target, strings.TrimSpace(actingMember), s.now().UTC())
	return s.applyTransition(ctx, orderID, order.Status, target, stamps)
}

// UnsetPaid reverses a recorded payment: Paid → Pending, clearing the
// responsible party. It is not a state-machine edge and only applies to an
// order currently paid (and not yet ready or delivered).
func (s *service) UnsetPaid(ctx context.Context, orderID, actingMember string) (*OrderDTO, error) {
	if err := checkTransitionInput(orderID, actingMember); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		s.recordRejected()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment to unset")
	}
	stamps := map[string]any{"paid_by": nil, "paid_at": nil}
	return s.applyTransition(ctx, orderID, enums.OrderStatusPaid, enums.OrderStatusPending, stamps)
}

// UnsetDelivered walks an order back to Paid from Ready or Delivered,
// clearing the ready/delivery stamps it rolls past.
func (s *service) UnsetDelivered(ctx context.Context, orderID, actingMember string) (*OrderDTO, error) {
	if err := checkTransitionInput(orderID, actingMember); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusReady && order.Status != enums.OrderStatusDelivered {
		s.recordRejected()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no delivery to unset")
	}
	stamps := map[string]any{
		"ready_by":     nil,
		"ready_at":     nil,
		"delivered_by": nil,
		"delivered_at": nil,
	}
	return s.applyTransition(ctx, orderID, order.Status, enums.OrderStatusPaid, stamps)
}

// applyTransition writes the status change conditionally on the observed
// status, so two racing requests cannot both succeed from the same state.
func (s *service) applyTransition(ctx context.Context, orderID string, from, to enums.OrderStatus, stamps map[string]any) (*OrderDTO, error) {
	ok, err := s.repo.TransitionStatus(ctx, orderID, from, to, stamps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	if !ok {
		s.recordRejected()
		current, loadErr := s.loadOrder(ctx, orderID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order moved to %s concurrently", current.Status))
	}
	return s.GetOrder(ctx, orderID)
}

func (s *service) DeleteOrder(ctx context.Context, orderID string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Paid() {
		return pkgerrors.New(pkgerrors.CodeConflict, "order is paid or delivered and cannot be deleted")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, orderID); err != nil {
			return err
		}
		ok, err := repo.DeleteHeader(ctx, orderID, order.Status)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed while deleting")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting order")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func checkTransitionInput(orderID, actingMember string) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(actingMember) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "acting member required")
	}
	return nil
}

func (s *service) invalidateProducts(ctx context.Context, lines []resolvedLine) {
	if s.cache == nil {
		return
	}
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.product.ID]; dup {
			continue
		}
		seen[line.product.ID] = struct{}{}
		ids = append(ids, line.product.ID)
	}
	s.cache.Invalidate(ctx, ids...)
}

func (s *service) recordCreated() {
	if s.metrics != nil {
		s.metrics.OrderCreated()
	}
}

func (s *service) recordCollision() {
	if s.metrics != nil {
		s.metrics.IdentifierCollision()
	}
}

func (s *service) recordRejected() {
	if s.metrics != nil {
		s.metrics.TransitionRejected()
	}
}
