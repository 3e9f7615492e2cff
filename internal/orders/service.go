package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/pricing"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

const (
	recentLimit = 4

	msgOrderCreated     = "Order created successfully"
	msgOrderNotFound    = "Order not found"
	msgNotOwner         = "Unauthorized: You can only view your own orders"
	msgCannotCancel     = "Cannot cancel delivered order"
	msgAlreadyCancelled = "Order is already cancelled"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service exposes order placement and lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderView, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, reason string) (*models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) (*pagination.Page[OrderView], error)
	Recent(ctx context.Context) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
}

type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Products func(tx *gorm.DB) ProductStore
	Carts    func(tx *gorm.DB) CartClearer
	Metrics  lifecycleRecorder
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	products func(tx *gorm.DB) ProductStore
	carts    func(tx *gorm.DB) CartClearer
	metrics  lifecycleRecorder
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		products: params.Products,
		carts:    params.Carts,
		metrics:  params.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

type requestedLine struct {
	productID uuid.UUID
	quantity  int
	filters   types.Selection
}

// Create validates stock, snapshots prices, decrements stock, persists the
// order, clears the cart and records the event, all in one transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment method")
	}
	lines, ids, err := parseLines(req.OrderItems)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products(tx)
		found, err := products.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}

		items := make([]types.OrderItem, 0, len(lines))
		for _, line := range lines {
			p, ok := byID[line.productID]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product not found: %s", line.productID)
			}
			item, err := snapshotLine(p, line)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		for _, item := range items {
			ok, err := products.DecrementStock(ctx, item.Product, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return insufficientStock(item.Name)
			}
		}

		summary := pricing.Summarize(items)
		if req.PriceSummary != nil && !pricing.SummariesEqual(*req.PriceSummary, summary) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"client_total": req.PriceSummary.Total,
				"server_total": summary.Total,
			}), "client price summary differs from computed summary")
		}

		order = &models.Order{
			UserID:       userID,
			PersonalInfo: req.PersonalInfo,
			OrderItems:   items,
			ShippingInfo: req.ShippingInfo,
			PaymentInfo:  newPaymentInfo(method, req.PaymentInfo, now),
			PriceSummary: summary,
			IsPaid:       method == enums.PaymentMethodRazorpay,
		}
		applyStatus(order, enums.OrderStatusProcessing, now)

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.carts(tx).ClearForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			OccurredAt:    now,
			Data: outbox.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        userID,
				PaymentMethod: method,
				ItemCount:     len(items),
				Total:         summary.Total,
			},
		})
	})
	if err != nil {
		return nil, asServiceError(err, "create order")
	}

	if s.metrics != nil {
		s.metrics.OrderCreated(string(method))
	}
	return &CreateOrderResult{Message: msgOrderCreated, OrderID: order.ID}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return rows, nil
}

// Get returns the order to its owner or to an admin.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	if !actor.IsAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgNotOwner)
	}
	views, err := s.withCustomers(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateStatus is the administrative override: any known status may be set.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error) {
	var target enums.OrderStatus
	if req.OrderStatus != nil && strings.TrimSpace(*req.OrderStatus) != "" {
		parsed, err := enums.ParseOrderStatus(strings.TrimSpace(*req.OrderStatus))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid order status").
				WithDetails(map[string]any{"orderStatus": *req.OrderStatus})
		}
		target = parsed
	}
	now := s.now()

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}

		from := order.OrderStatus
		if target != "" {
			applyStatus(order, target, now)
		}
		if req.IsPaid != nil {
			applyPaid(order, *req.IsPaid, now)
		}
		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, IsAdmin: actor.IsAdmin},
			OccurredAt:    now,
			Data: outbox.OrderStatusChangedEvent{
				OrderID:    order.ID,
				FromStatus: from,
				ToStatus:   order.OrderStatus,
				IsPaid:     order.IsPaid,
			},
		})
	})
	if err != nil {
		return nil, asServiceError(err, "update order")
	}
	if target != "" && s.metrics != nil {
		s.metrics.StatusChanged(string(target))
	}
	return order, nil
}

// Cancel restores stock for every line and marks gateway payments refunded.
// Orders owned by someone else are reported as missing.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, reason string) (*models.Order, error) {
	now := s.now()
	reason = strings.TrimSpace(reason)

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		switch order.OrderStatus {
		case enums.OrderStatusDelivered:
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgCannotCancel)
		case enums.OrderStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgAlreadyCancelled)
		}

		products := s.products(tx)
		for _, item := range order.OrderItems {
			if err := products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}

		applyStatus(order, enums.OrderStatusCancelled, now)
		order.CancelReason = &reason
		if order.IsPaid && order.PaymentInfo.Method == enums.PaymentMethodRazorpay {
			order.PaymentInfo.Status = enums.PaymentStatusRefunded
		}
		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			OccurredAt:    now,
			Data: outbox.OrderCancelledEvent{
				OrderID:      order.ID,
				UserID:       userID,
				Reason:       reason,
				PaymentState: order.PaymentInfo.Status,
			},
		})
	})
	if err != nil {
		return nil, asServiceError(err, "cancel order")
	}
	if s.metrics != nil {
		s.metrics.OrderCancelled()
	}
	return order, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*pagination.Page[OrderView], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListAll(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Paginate(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	views, err := s.withCustomers(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &pagination.Page[OrderView]{Items: views, NextCursor: page.NextCursor}, nil
}

func (s *service) Recent(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return rows, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	return count, nil
}

func (s *service) withCustomers(ctx context.Context, rows []models.Order) ([]OrderView, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, o := range rows {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			ids = append(ids, o.UserID)
		}
	}
	customers, err := s.repo.Customers(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customers")
	}
	views := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		view := OrderView{Order: o}
		if c, ok := customers[o.UserID]; ok {
			c := c
			view.Customer = &c
		}
		views = append(views, view)
	}
	return views, nil
}

func parseLines(items []OrderItemRequest) ([]requestedLine, []uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "orderItems are required")
	}
	lines := make([]requestedLine, 0, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]struct{}{}
	for _, item := range items {
		id, err := uuid.Parse(strings.TrimSpace(item.Product))
		if err != nil {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid product id: %s", item.Product)
		}
		if item.Quantity < 1 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		lines = append(lines, requestedLine{productID: id, quantity: item.Quantity, filters: item.Filters.Clone()})
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return lines, ids, nil
}

// snapshotLine freezes the product's current name, category, image and
// resolved price onto an order line.
func snapshotLine(p models.Product, line requestedLine) (types.OrderItem, error) {
	if err := pricing.ValidateSelection(p.Filters, line.filters); err != nil {
		return types.OrderItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if p.CountInStock < line.quantity {
		return types.OrderItem{}, insufficientStock(p.Name)
	}
	res := pricing.Resolve(p.Filters, line.filters)
	price, discountPrice := res.LinePrices()
	return types.OrderItem{
		Product:       p.ID,
		Name:          p.Name,
		Category:      string(p.Category),
		Quantity:      line.quantity,
		Price:         price,
		DiscountPrice: discountPrice,
		OriginalPrice: res.NormalPrice,
		ShippingCost:  p.ShippingCost,
		Image:         p.PrimaryImage(),
		Filters:       line.filters,
	}, nil
}

func newPaymentInfo(method enums.PaymentMethod, in *PaymentInfoRequest, now time.Time) models.PaymentInfo {
	info := models.PaymentInfo{Method: method, Status: enums.PaymentStatusPending}
	if method == enums.PaymentMethodCOD {
		return info
	}
	at := now
	info.PaidAt = &at
	if in == nil {
		return info
	}
	if status, err := enums.ParsePaymentStatus(strings.TrimSpace(in.Status)); err == nil {
		info.Status = status
	}
	info.RazorpayOrderID = optional(in.RazorpayOrderID)
	info.RazorpayPaymentID = optional(in.RazorpayPaymentID)
	info.RazorpaySignature = optional(in.RazorpaySignature)
	return info
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func insufficientStock(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "Insufficient stock for product: %s", name)
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func asServiceError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
