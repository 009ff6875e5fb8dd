package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/internal/catalog"
	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

type recorderStub struct {
	created    int
	collisions int
	rejected   int
}

func (r *recorderStub) OrderCreated()        { r.created++ }
func (r *recorderStub) IdentifierCollision() { r.collisions++ }
func (r *recorderStub) TransitionRejected()  { r.rejected++ }

type cacheStub struct {
	invalidated []string
}

func (c *cacheStub) Invalidate(ctx context.Context, productIDs ...string) {
	c.invalidated = append(c.invalidated, productIDs...)
}

type serviceFixture struct {
	svc      Service
	conn     *gorm.DB
	repo     Repository
	catalog  catalog.Repository
	recorder *recorderStub
	cache    *cacheStub
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	recorder := &recorderStub{}
	cache := &cacheStub{}
	svc, err := NewService(repo, gormTxRunner{db: conn}, catalogRepo, NewIDGenerator(), cache, recorder)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return &serviceFixture{
		svc:      svc,
		conn:     conn,
		repo:     repo,
		catalog:  catalogRepo,
		recorder: recorder,
		cache:    cache,
	}
}

func intp(n int) *int              { return &n }
func timep(t time.Time) *time.Time { return &t }

func (f *serviceFixture) seedSweatshirt(t *testing.T) uuid.UUID {
	t.Helper()
	variantID := uuid.New()
	seedCatalogProduct(t, f.conn, &models.Product{
		ID:           "sweat-24-25-azul",
		Name:         "Sweatshirt 24/25 Azul",
		Category:     "clothing",
		Price:        decimal.RequireFromString("20.00"),
		StockType:    enums.StockTypeLimited,
		Visible:      true,
		OptionSchema: []string{"size"},
		Variants: []models.ProductVariant{
			{ID: uuid.New(), Options: types.OptionMap{"size": "S"}, PriceModifier: decimal.Zero, StockQuantity: intp(3), Active: true},
			{ID: variantID, Options: types.OptionMap{"size": "M"}, PriceModifier: decimal.RequireFromString("2.00"), StockQuantity: intp(5), Active: true},
		},
	})
	return variantID
}

func validInput(items ...OrderItemInput) CreateOrderInput {
	return CreateOrderInput{
		Name:   "Maria Silva",
		ISTID:  "ist1100000",
		Email:  "maria.silva@tecnico.ulisboa.pt",
		Campus: enums.CampusAlameda,
		Items:  items,
	}
}

func TestCreateOrderEmptyItemsNeverReachesWriter(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	if err := f.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("no order row may exist, found %d", count)
	}
	if f.recorder.created != 0 {
		t.Fatal("created counter must not move")
	}
}

func TestCreateOrderSweatshirtScenario(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.seedSweatshirt(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, validInput(OrderItemInput{
		ProductID:  "sweat-24-25-azul",
		Selections: types.OptionMap{"size": "M"},
		Quantity:   2,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order.OrderID) != idLength {
		t.Fatalf("unexpected order id %q", order.OrderID)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("44.00")) {
		t.Fatalf("expected total 44.00, got %s", order.TotalAmount)
	}
	if order.Status != enums.OrderStatusPending.String() {
		t.Fatalf("initial status must be pending, got %s", order.Status)
	}
	if len(order.Items) != 1 || !order.Items[0].UnitPrice.Equal(decimal.RequireFromString("22.00")) {
		t.Fatalf("unexpected items %+v", order.Items)
	}

	variant, err := f.catalog.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("reloading variant: %v", err)
	}
	if variant.StockQuantity == nil || *variant.StockQuantity != 3 {
		t.Fatalf("stock must drop 5 → 3 within the create, got %v", variant.StockQuantity)
	}

	if f.recorder.created != 1 {
		t.Fatalf("expected one created order recorded, got %d", f.recorder.created)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "sweat-24-25-azul" {
		t.Fatalf("cache must be invalidated for the ordered product, got %v", f.cache.invalidated)
	}
}

func TestCreateOrderAggregatesAllIssues(t *testing.T) {
	f := newServiceFixture(t)
	f.seedSweatshirt(t)
	seedCatalogProduct(t, f.conn, &models.Product{
		ID:            "jantar-curso",
		Name:          "Jantar de Curso",
		Category:      "events",
		Price:         decimal.RequireFromString("15.00"),
		StockType:     enums.StockTypeOnDemand,
		Visible:       true,
		OrderDeadline: timep(time.Now().UTC().Add(-24 * time.Hour)),
	})

	_, err := f.svc.CreateOrder(context.Background(), validInput(
		OrderItemInput{ProductID: "missing-product", Quantity: 1},
		OrderItemInput{ProductID: "jantar-curso", Quantity: 1},
		OrderItemInput{ProductID: "sweat-24-25-azul", Selections: types.OptionMap{"size": "M"}, Quantity: 0},
	))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	issues, ok := typed.Details().([]ValidationIssue)
	if !ok {
		t.Fatalf("details must carry the issue list, got %T", typed.Details())
	}
	reasons := make(map[string]bool, len(issues))
	for _, issue := range issues {
		reasons[issue.Reason] = true
	}
	for _, want := range []string{ReasonUnknownProduct, ReasonDeadlinePassed, ReasonInvalidQuantity} {
		if !reasons[want] {
			t.Fatalf("missing reason %s in %+v", want, issues)
		}
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newServiceFixture(t)
	f.seedSweatshirt(t)

	_, err := f.svc.CreateOrder(context.Background(), validInput(OrderItemInput{
		ProductID:  "sweat-24-25-azul",
		Selections: types.OptionMap{"size": "M"},
		Quantity:   10,
	}))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	issues, _ := typed.Details().([]ValidationIssue)
	if len(issues) != 1 || issues[0].Reason != ReasonInsufficientStock {
		t.Fatalf("expected insufficient stock issue, got %+v", issues)
	}
}

// faultyItemsRepo writes part of the item batch and then fails, simulating a
// mid-batch storage fault.
type faultyItemsRepo struct {
	Repository
	writeBefore int
}

func (f *faultyItemsRepo) WithTx(tx *gorm.DB) Repository {
	return &faultyItemsRepo{Repository: f.Repository.WithTx(tx), writeBefore: f.writeBefore}
}

func (f *faultyItemsRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if f.writeBefore > 0 && f.writeBefore < len(items) {
		if err := f.Repository.CreateItems(ctx, items[:f.writeBefore]); err != nil {
			return err
		}
		return errors.New("simulated storage fault")
	}
	return f.Repository.CreateItems(ctx, items)
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.seedSweatshirt(t)
	for _, id := range []string{"p2", "p3", "p4", "p5"} {
		seedCatalogProduct(t, f.conn, &models.Product{
			ID:        id,
			Name:      "Product " + id,
			Category:  "clothing",
			Price:     decimal.RequireFromString("5.00"),
			StockType: enums.StockTypeLimited,
			Visible:   true,
			Variants: []models.ProductVariant{
				{ID: uuid.New(), Options: types.OptionMap{}, PriceModifier: decimal.Zero, StockQuantity: intp(10), Active: true},
			},
		})
	}

	faulty := &faultyItemsRepo{Repository: f.repo, writeBefore: 2}
	svc, err := NewService(faulty, gormTxRunner{db: f.conn}, f.catalog, NewIDGenerator(), nil, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	_, err = svc.CreateOrder(context.Background(), validInput(
		OrderItemInput{ProductID: "sweat-24-25-azul", Selections: types.OptionMap{"size": "M"}, Quantity: 1},
		OrderItemInput{ProductID: "p2", Quantity: 1},
		OrderItemInput{ProductID: "p3", Quantity: 1},
		OrderItemInput{ProductID: "p4", Quantity: 1},
		OrderItemInput{ProductID: "p5", Quantity: 1},
	))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected wrapped storage failure, got %v", err)
	}

	var headerCount, itemCount int64
	if err := f.conn.Model(&models.Order{}).Count(&headerCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if err := f.conn.Model(&models.OrderItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("counting items: %v", err)
	}
	if headerCount != 0 || itemCount != 0 {
		t.Fatalf("transaction must roll back completely, found %d headers %d items", headerCount, itemCount)
	}
}

// collidingHeaderRepo reports a unique violation on the first header insert.
type collidingHeaderRepo struct {
	Repository
	failures *int
}

func (c *collidingHeaderRepo) WithTx(tx *gorm.DB) Repository {
	return &collidingHeaderRepo{Repository: c.Repository.WithTx(tx), failures: c.failures}
}

func (c *collidingHeaderRepo) CreateHeader(ctx context.Context, order *models.Order) error {
	if *c.failures > 0 {
		*c.failures--
		return errors.New(`duplicate key value violates unique constraint "orders_pkey"`)
	}
	return c.Repository.CreateHeader(ctx, order)
}

func TestCreateOrderRetriesOnIdentifierCollision(t *testing.T) {
	f := newServiceFixture(t)
	f.seedSweatshirt(t)

	failures := 1
	colliding := &collidingHeaderRepo{Repository: f.repo, failures: &failures}
	svc, err := NewService(colliding, gormTxRunner{db: f.conn}, f.catalog, NewIDGenerator(), nil, f.recorder)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	order, err := svc.CreateOrder(context.Background(), validInput(OrderItemInput{
		ProductID:  "sweat-24-25-azul",
		Selections: types.OptionMap{"size": "M"},
		Quantity:   1,
	}))
	if err != nil {
		t.Fatalf("retry must succeed, got %v", err)
	}
	if order == nil || order.OrderID == "" {
		t.Fatal("expected a created order after retry")
	}
	if f.recorder.collisions != 1 {
		t.Fatalf("expected one recorded collision, got %d", f.recorder.collisions)
	}
}

func TestTransitionSequenceAndGuards(t *testing.T) {
	f := newServiceFixture(t)
	seedOrder(t, f.conn, "AAAAAAAAAAAA", enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusDelivered, "ist1100001")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("pending → delivered must be illegal, got %v", err)
	}
	if f.recorder.rejected != 1 {
		t.Fatalf("rejection must be recorded, got %d", f.recorder.rejected)
	}

	order, err := f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusPaid, "ist1100001")
	if err != nil {
		t.Fatalf("pending → paid failed: %v", err)
	}
	if !order.Paid || order.PaidBy == nil || *order.PaidBy != "ist1100001" {
		t.Fatalf("payment stamp missing: %+v", order)
	}

	// re-invoking the same forward transition must fail, not no-op
	_, err = f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusPaid, "ist1100001")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("paid → paid must be illegal, got %v", err)
	}

	order, err = f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusReady, "ist1100002")
	if err != nil {
		t.Fatalf("paid → ready failed: %v", err)
	}
	if order.ReadyBy == nil || *order.ReadyBy != "ist1100002" {
		t.Fatalf("ready stamp missing: %+v", order)
	}

	order, err = f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusDelivered, "ist1100003")
	if err != nil {
		t.Fatalf("ready → delivered failed: %v", err)
	}
	if !order.Delivered || order.DeliveredAt == nil {
		t.Fatalf("delivery stamp missing: %+v", order)
	}

	_, err = f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusCancelled, "ist1100003")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("delivered → cancelled must be illegal, got %v", err)
	}
}

func TestTransitionCancelFromEarlyStates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for i, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPaid, enums.OrderStatusReady} {
		orderID := []string{"AAAAAAAAAAAA", "BBBBBBBBBBBB", "CCCCCCCCCCCC"}[i]
		seedOrder(t, f.conn, orderID, status)
		order, err := f.svc.Transition(ctx, orderID, enums.OrderStatusCancelled, "ist1100001")
		if err != nil {
			t.Fatalf("%s → cancelled failed: %v", status, err)
		}
		if order.Status != enums.OrderStatusCancelled.String() || order.CancelledBy == nil {
			t.Fatalf("cancellation not recorded from %s: %+v", status, order)
		}
	}
}

func TestTransitionValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusPaid, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("acting member is required, got %v", err)
	}

	_, err = f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatus("shipped"), "ist1100001")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	_, err = f.svc.Transition(ctx, "ZZZZZZZZZZZZ", enums.OrderStatusPaid, "ist1100001")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("missing order must be not found, got %v", err)
	}
}

func TestUnsetPaid(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	seedOrder(t, f.conn, "AAAAAAAAAAAA", enums.OrderStatusPending)

	if _, err := f.svc.Transition(ctx, "AAAAAAAAAAAA", enums.OrderStatusPaid, "ist1100001"); err != nil {
		t.Fatalf("marking paid: %v", err)
	}

	order, err := f.svc.UnsetPaid(ctx, "AAAAAAAAAAAA", "ist1100001")
	if err != nil {
		t.Fatalf("unset paid failed: %v", err)
	}
	if order.Status != enums.OrderStatusPending.String() || order.Paid {
		t.Fatalf("order must return to pending: %+v", order)
	}
	if order.PaidBy != nil || order.PaidAt != nil {
		t.Fatalf("payment stamp must be cleared: %+v", order)
	}

	// already unset: reject, do not no-op
	_, err = f.svc.UnsetPaid(ctx, "AAAAAAAAAAAA", "ist1100001")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unset on unpaid order must conflict, got %v", err)
	}
}

func TestUnsetDelivered(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	seedOrder(t, f.conn, "AAAAAAAAAAAA", enums.OrderStatusPending)

	for _, step := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusReady, enums.OrderStatusDelivered} {
		if _, err := f.svc.Transition(ctx, "AAAAAAAAAAAA", step, "ist1100001"); err != nil {
			t.Fatalf("advancing to %s: %v", step, err)
		}
	}

	order, err := f.svc.UnsetDelivered(ctx, "AAAAAAAAAAAA", "ist1100001")
	if err != nil {
		t.Fatalf("unset delivered failed: %v", err)
	}
	if order.Status != enums.OrderStatusPaid.String() || order.Delivered {
		t.Fatalf("order must return to paid: %+v", order)
	}
	if order.DeliveredBy != nil || order.ReadyBy != nil {
		t.Fatalf("rolled-back stamps must be cleared: %+v", order)
	}
	if order.PaidBy == nil {
		t.Fatalf("payment stamp must survive: %+v", order)
	}

	_, err = f.svc.UnsetDelivered(ctx, "AAAAAAAAAAAA", "ist1100001")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unset on undelivered order must conflict, got %v", err)
	}
}

func TestDeleteOrderGuard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	guarded := []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusReady, enums.OrderStatusDelivered}
	ids := []string{"AAAAAAAAAAAA", "BBBBBBBBBBBB", "CCCCCCCCCCCC"}
	for i, status := range guarded {
		orderID := ids[i]
		seedOrder(t, f.conn, orderID, status)
		err := f.svc.DeleteOrder(ctx, orderID)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeConflict {
			t.Fatalf("delete of %s order must conflict, got %v", status, err)
		}
	}

	seedOrder(t, f.conn, "DDDDDDDDDDDD", enums.OrderStatusPending)
	seedOrderItem(t, f.conn, "DDDDDDDDDDDD", "sweat-24-25-azul", 1, time.Now().UTC())
	if err := f.svc.DeleteOrder(ctx, "DDDDDDDDDDDD"); err != nil {
		t.Fatalf("pending order must delete: %v", err)
	}
	_, err := f.svc.GetOrder(ctx, "DDDDDDDDDDDD")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("deleted order must be gone, got %v", err)
	}

	var itemCount int64
	if err := f.conn.Model(&models.OrderItem{}).Where("order_id = ?", "DDDDDDDDDDDD").Count(&itemCount).Error; err != nil {
		t.Fatalf("counting items: %v", err)
	}
	if itemCount != 0 {
		t.Fatalf("items must be removed with the header, found %d", itemCount)
	}
}

func TestListOrdersThroughService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	seedOrder(t, f.conn, "AAAAAAAAAAAA", enums.OrderStatusPending)
	seedOrder(t, f.conn, "BBBBBBBBBBBB", enums.OrderStatusDelivered)

	all, err := f.svc.ListOrders(ctx, ListFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}

	unpaid, err := f.svc.ListOrders(ctx, ListFilters{Unpaid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unpaid) != 1 || unpaid[0].OrderID != "AAAAAAAAAAAA" {
		t.Fatalf("unexpected unpaid list %+v", unpaid)
	}
}
