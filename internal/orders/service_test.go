package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeTx snapshots stock and orders so a failed closure leaves them untouched.
type fakeTx struct {
	repo     *memoryOrders
	products *memoryProducts
}

func (f *fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	stock := make(map[uuid.UUID]int, len(f.products.rows))
	for id, p := range f.products.rows {
		stock[id] = p.CountInStock
	}
	orders := make(map[uuid.UUID]models.Order, len(f.repo.rows))
	for id, o := range f.repo.rows {
		orders[id] = *o
	}
	if err := fn(nil); err != nil {
		for id, qty := range stock {
			f.products.rows[id].CountInStock = qty
		}
		f.repo.rows = map[uuid.UUID]*models.Order{}
		for id, o := range orders {
			o := o
			f.repo.rows[id] = &o
		}
		return err
	}
	return nil
}

type memoryProducts struct {
	rows map[uuid.UUID]*models.Product
}

func (m *memoryProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memoryProducts) DecrementStock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	p, ok := m.rows[id]
	if !ok || p.CountInStock < qty {
		return false, nil
	}
	p.CountInStock -= qty
	return true, nil
}

func (m *memoryProducts) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	if p, ok := m.rows[id]; ok {
		p.CountInStock += qty
	}
	return nil
}

type memoryOrders struct {
	rows      map[uuid.UUID]*models.Order
	customers map[uuid.UUID]Customer
}

func (m *memoryOrders) WithTx(*gorm.DB) Repository { return m }

func (m *memoryOrders) Create(_ context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = fixedNow
	cp := *order
	m.rows[order.ID] = &cp
	return nil
}

func (m *memoryOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *memoryOrders) LockByRazorpayOrderID(context.Context, string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryOrders) SaveLifecycle(_ context.Context, order *models.Order) error {
	cp := *order
	m.rows[order.ID] = &cp
	return nil
}

func (m *memoryOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.rows {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memoryOrders) ListAll(_ context.Context, _ *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.rows {
		if len(out) == limit {
			break
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memoryOrders) Recent(_ context.Context, limit int) ([]models.Order, error) {
	return m.ListAll(context.Background(), nil, limit)
}

func (m *memoryOrders) Count(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memoryOrders) Customers(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]Customer, error) {
	out := map[uuid.UUID]Customer{}
	for _, id := range ids {
		if c, ok := m.customers[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type recordingCarts struct{ cleared []uuid.UUID }

func (r *recordingCarts) ClearForUser(_ context.Context, userID uuid.UUID) error {
	r.cleared = append(r.cleared, userID)
	return nil
}

type recordingOutbox struct{ events []outbox.DomainEvent }

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type countingMetrics struct {
	created, cancelled int
	statuses           []string
}

func (c *countingMetrics) OrderCreated(string) { c.created++ }
func (c *countingMetrics) StatusChanged(s string) { c.statuses = append(c.statuses, s) }
func (c *countingMetrics) OrderCancelled() { c.cancelled++ }

type harness struct {
	svc      Service
	orders   *memoryOrders
	products *memoryProducts
	carts    *recordingCarts
	outbox   *recordingOutbox
	metrics  *countingMetrics
	shirt    *models.Product
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	shirt := &models.Product{
		ID:           uuid.New(),
		Name:         "Shirt",
		Category:     enums.ProductCategory("Fashion"),
		ShippingCost: 5,
		CountInStock: 10,
		Images:       []string{"https://cdn/shirt.jpg"},
		Filters: types.Filters{{
			Name:   "size",
			Values: []string{"S", "M"},
			PriceAdjustments: []types.PriceAdjustment{
				{Value: "S", Price: 10},
				{Value: "M", Price: 12, DiscountPrice: 9},
			},
		}},
	}
	h := &harness{
		orders:   &memoryOrders{rows: map[uuid.UUID]*models.Order{}, customers: map[uuid.UUID]Customer{}},
		products: &memoryProducts{rows: map[uuid.UUID]*models.Product{shirt.ID: shirt}},
		carts:    &recordingCarts{},
		outbox:   &recordingOutbox{},
		metrics:  &countingMetrics{},
		shirt:    shirt,
	}
	svc, err := NewService(ServiceParams{
		Repo:     h.orders,
		Tx:       &fakeTx{repo: h.orders, products: h.products},
		Outbox:   h.outbox,
		Products: func(*gorm.DB) ProductStore { return h.products },
		Carts:    func(*gorm.DB) CartClearer { return h.carts },
		Metrics:  h.metrics,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) orderRequest(method string, qty int, size string) CreateOrderRequest {
	return CreateOrderRequest{
		PersonalInfo:  types.PersonalInfo{FirstName: "Ada", LastName: "L", Email: "ada@example.com"},
		OrderItems:    []OrderItemRequest{{Product: h.shirt.ID.String(), Quantity: qty, Filters: types.Selection{"size": size}}},
		ShippingInfo:  types.ShippingInfo{Type: "Home", Address: "1 Road", City: "Pune", State: "MH", PostalCode: "411001", Phone: "999"},
		PaymentMethod: method,
	}
}

func TestCreateSnapshotsPricesAndDecrementsStock(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()

	res, err := h.svc.Create(context.Background(), user, h.orderRequest("cod", 2, "M"))
	require.NoError(t, err)
	require.Equal(t, "Order created successfully", res.Message)

	order := h.orders.rows[res.OrderID]
	require.Equal(t, enums.OrderStatusProcessing, order.OrderStatus)
	require.Equal(t, fixedNow, *order.StatusTimestamps.ProcessedAt)
	require.False(t, order.IsPaid)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentInfo.Status)

	item := order.OrderItems[0]
	require.Equal(t, 12.0, item.Price)
	require.Equal(t, 9.0, item.DiscountPrice)
	require.Equal(t, 12.0, item.OriginalPrice)
	require.Equal(t, "https://cdn/shirt.jpg", item.Image)
	require.Equal(t, types.PriceSummary{Subtotal: 24, Savings: 6, ShippingCost: 5, Total: 23}, order.PriceSummary)

	require.Equal(t, 8, h.products.rows[h.shirt.ID].CountInStock)
	require.Equal(t, []uuid.UUID{user}, h.carts.cleared)
	require.Len(t, h.outbox.events, 1)
	require.Equal(t, enums.EventOrderCreated, h.outbox.events[0].EventType)
	require.Equal(t, 1, h.metrics.created)

	// A later catalog price change reaches new orders only.
	h.products.rows[h.shirt.ID].Filters[0].PriceAdjustments[1].Price = 50
	later, err := h.svc.Create(context.Background(), user, h.orderRequest("cod", 1, "M"))
	require.NoError(t, err)
	require.NotEqual(t, res.OrderID, later.OrderID)
	require.Equal(t, 50.0, h.orders.rows[later.OrderID].OrderItems[0].Price)
	require.Equal(t, 12.0, h.orders.rows[res.OrderID].OrderItems[0].Price)
}

func TestCreateRazorpayOrderIsPaid(t *testing.T) {
	h := newHarness(t)
	req := h.orderRequest("razorpay", 1, "S")
	req.PaymentInfo = &PaymentInfoRequest{Status: "captured", RazorpayOrderID: "order_1"}

	res, err := h.svc.Create(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	order := h.orders.rows[res.OrderID]
	require.True(t, order.IsPaid)
	require.Equal(t, enums.PaymentStatusCaptured, order.PaymentInfo.Status)
	require.Equal(t, "order_1", *order.PaymentInfo.RazorpayOrderID)
	require.NotNil(t, order.PaymentInfo.PaidAt)
}

func TestCreateFailsWholeOrderOnShortStock(t *testing.T) {
	h := newHarness(t)
	req := h.orderRequest("cod", 3, "S")
	req.OrderItems = append(req.OrderItems, OrderItemRequest{Product: h.shirt.ID.String(), Quantity: 8, Filters: types.Selection{"size": "M"}})

	_, err := h.svc.Create(context.Background(), uuid.New(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, "Insufficient stock for product: Shirt", pkgerrors.As(err).Message())
	require.Equal(t, 10, h.products.rows[h.shirt.ID].CountInStock)
	require.Empty(t, h.orders.rows)
	require.Empty(t, h.carts.cleared)
}

func TestCreateRejectsUnknownProductAndIllegalSelection(t *testing.T) {
	h := newHarness(t)

	req := h.orderRequest("cod", 1, "S")
	req.OrderItems[0].Product = uuid.NewString()
	_, err := h.svc.Create(context.Background(), uuid.New(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Create(context.Background(), uuid.New(), h.orderRequest("cod", 1, "XXL"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Create(context.Background(), uuid.New(), h.orderRequest("cheque", 1, "S"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCancelRestoresStockOnceAndRefundsGatewayPayment(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	res, err := h.svc.Create(context.Background(), user, h.orderRequest("razorpay", 4, "S"))
	require.NoError(t, err)
	require.Equal(t, 6, h.products.rows[h.shirt.ID].CountInStock)

	order, err := h.svc.Cancel(context.Background(), user, res.OrderID, "changed mind")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, order.OrderStatus)
	require.Equal(t, enums.PaymentStatusRefunded, order.PaymentInfo.Status)
	require.Equal(t, "changed mind", *order.CancelReason)
	require.NotNil(t, order.StatusTimestamps.CancelledAt)
	require.Equal(t, 10, h.products.rows[h.shirt.ID].CountInStock)

	_, err = h.svc.Cancel(context.Background(), user, res.OrderID, "again")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, "Order is already cancelled", pkgerrors.As(err).Message())
	require.Equal(t, 10, h.products.rows[h.shirt.ID].CountInStock)
	require.Equal(t, 1, h.metrics.cancelled)
}

func TestCancelRejectsDeliveredAndForeignOrders(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	res, err := h.svc.Create(context.Background(), user, h.orderRequest("cod", 1, "S"))
	require.NoError(t, err)

	_, err = h.svc.Cancel(context.Background(), uuid.New(), res.OrderID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	delivered := "delivered"
	_, err = h.svc.UpdateStatus(context.Background(), Actor{UserID: uuid.New(), IsAdmin: true}, res.OrderID, UpdateStatusRequest{OrderStatus: &delivered})
	require.NoError(t, err)

	_, err = h.svc.Cancel(context.Background(), user, res.OrderID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, "Cannot cancel delivered order", pkgerrors.As(err).Message())
}

func TestUpdateStatusStampsAndMarksCODPaid(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Create(context.Background(), uuid.New(), h.orderRequest("cod", 1, "S"))
	require.NoError(t, err)
	admin := Actor{UserID: uuid.New(), IsAdmin: true}

	delivered := "delivered"
	paid := true
	order, err := h.svc.UpdateStatus(context.Background(), admin, res.OrderID, UpdateStatusRequest{OrderStatus: &delivered, IsPaid: &paid})
	require.NoError(t, err)
	require.True(t, order.IsDelivered)
	require.NotNil(t, order.StatusTimestamps.DeliveredAt)
	require.True(t, order.IsPaid)
	require.Equal(t, enums.PaymentStatusCompleted, order.PaymentInfo.Status)
	require.NotNil(t, order.PaymentInfo.PaidAt)

	// Administrative override: a delivered order may be moved back.
	shipped := "shipped"
	order, err = h.svc.UpdateStatus(context.Background(), admin, res.OrderID, UpdateStatusRequest{OrderStatus: &shipped})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, order.OrderStatus)
	require.Equal(t, []string{"delivered", "shipped"}, h.metrics.statuses)

	bogus := "teleported"
	_, err = h.svc.UpdateStatus(context.Background(), admin, res.OrderID, UpdateStatusRequest{OrderStatus: &bogus})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetEnforcesOwnership(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	h.orders.customers[owner] = Customer{ID: owner, FirstName: "Ada", Email: "ada@example.com"}
	res, err := h.svc.Create(context.Background(), owner, h.orderRequest("cod", 1, "S"))
	require.NoError(t, err)

	view, err := h.svc.Get(context.Background(), Actor{UserID: owner}, res.OrderID)
	require.NoError(t, err)
	require.Equal(t, "Ada", view.Customer.FirstName)

	_, err = h.svc.Get(context.Background(), Actor{UserID: uuid.New()}, res.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.Equal(t, "Unauthorized: You can only view your own orders", pkgerrors.As(err).Message())

	_, err = h.svc.Get(context.Background(), Actor{UserID: uuid.New(), IsAdmin: true}, res.OrderID)
	require.NoError(t, err)

	_, err = h.svc.Get(context.Background(), Actor{UserID: owner}, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListAllReturnsCursorWhenMoreRows(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		_, err := h.svc.Create(context.Background(), uuid.New(), h.orderRequest("cod", 1, "S"))
		require.NoError(t, err)
	}

	page, err := h.svc.ListAll(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	_, err = h.svc.ListAll(context.Background(), pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
