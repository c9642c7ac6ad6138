package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/karsa-mfg/karsa/internal/pricing"
	"github.com/karsa-mfg/karsa/internal/shared"
)

type memoryOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*PurchaseOrder
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: map[uuid.UUID]*PurchaseOrder{}}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryOrderRepo) GetOrder(_ context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if order.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	clone := *order
	return &clone, nil
}

func (r *memoryOrderRepo) ListOrders(_ context.Context, tenantID uuid.UUID, limit, offset int) ([]*PurchaseOrder, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*PurchaseOrder
	for _, order := range r.orders {
		if order.TenantID == tenantID {
			clone := *order
			out = append(out, &clone)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memoryOrderRepo) ListOverdue(_ context.Context, asOf time.Time) ([]*PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*PurchaseOrder
	for _, order := range r.orders {
		if order.IsOverdue(asOf) {
			clone := *order
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryOrderRepo) InsertOrder(_ context.Context, order *PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	clone.TakeEvents() // stored rows carry no pending events, as with a real scan
	r.orders[order.ID] = &clone
	return nil
}

func (r *memoryOrderRepo) UpdateOrder(_ context.Context, order *PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return ErrNotFound
	}
	clone := *order
	clone.TakeEvents()
	r.orders[order.ID] = &clone
	return nil
}

type stubVendors struct {
	known map[int64]bool
}

func (v stubVendors) Exists(_ context.Context, _ uuid.UUID, vendorID int64) (bool, error) {
	return v.known[vendorID], nil
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []Event
}

func (d *captureDispatcher) Dispatch(_ context.Context, events []Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
	return nil
}

func (d *captureDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.EventName())
	}
	return out
}

type captureAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *captureAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryOrderRepo, *captureDispatcher, *captureAudit) {
	t.Helper()
	repo := newMemoryOrderRepo()
	dispatcher := &captureDispatcher{}
	audit := &captureAudit{}
	vendors := stubVendors{known: map[int64]bool{9: true}}
	svc := NewService(repo, vendors, dispatcher, nil, audit, nil, nil)
	return svc, repo, dispatcher, audit
}

func serviceOrderInput(t *testing.T, tenantID uuid.UUID) CreateOrderInput {
	t.Helper()
	return CreateOrderInput{
		TenantID:   tenantID,
		CustomerID: 42,
		TotalAmount: func() shared.Money {
			m, err := shared.NewMoney(10_000_000, "IDR")
			require.NoError(t, err)
			return m
		}(),
		Items: []OrderItem{
			{ProductID: 7, Name: "Aluminum frame", Quantity: 4, UnitPrice: money(t, 2_500_000)},
		},
		RequiredDeliveryDate: time.Now().AddDate(0, 0, 21),
	}
}

func TestServiceCreateGeneratesNumberAndDispatches(t *testing.T) {
	svc, repo, dispatcher, audit := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)
	require.NotEmpty(t, order.Number)
	require.Contains(t, order.Number, "ORD-")

	stored, err := repo.GetOrder(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, stored.Status)

	require.Equal(t, []string{"orders.created"}, dispatcher.names())
	require.Len(t, audit.logs, 1)
	require.Equal(t, "ORDER_CREATE", audit.logs[0].Action)
}

func TestServiceAssignVendorChecksRegistry(t *testing.T) {
	svc, _, dispatcher, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, tenantID, order.ID, StatusVendorSourcing, "")
	require.NoError(t, err)

	// Unknown vendor rejected before any mutation.
	_, err = svc.AssignVendor(ctx, tenantID, order.ID, 404, money(t, 7_000_000))
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.AssignVendor(ctx, tenantID, order.ID, 9, money(t, 7_000_000))
	require.NoError(t, err)
	require.Equal(t, StatusVendorNegotiation, updated.Status)
	require.Equal(t, int64(9), *updated.VendorID)

	require.Equal(t, []string{
		"orders.created",
		"orders.status_changed",
		"orders.vendor_assigned",
	}, dispatcher.names())
}

func TestServiceQuoteCustomerPricesFromVendorQuote(t *testing.T) {
	svc, repo, dispatcher, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, tenantID, order.ID, StatusVendorSourcing, "")
	require.NoError(t, err)
	_, err = svc.AssignVendor(ctx, tenantID, order.ID, 9, money(t, 6_000_000))
	require.NoError(t, err)

	updated, quote, err := svc.QuoteCustomer(ctx, tenantID, order.ID, QuoteInput{
		CustomerTier: pricing.TierVIP, TaxBP: 1_100,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCustomerQuote, updated.Status)
	require.Positive(t, quote.Markup.Amount())
	require.Greater(t, quote.FinalPrice.Amount(), quote.BaseCost.Amount())

	stored, err := repo.GetOrder(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, quote.FinalPrice.Amount(), stored.Metadata["customer_quote"])
	require.Contains(t, dispatcher.names(), "orders.customer_quoted")
}

func TestServiceQuoteCustomerRequiresVendorQuote(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)
	for _, step := range []OrderStatus{StatusVendorSourcing, StatusVendorNegotiation} {
		_, err = svc.ChangeStatus(ctx, tenantID, order.ID, step, "")
		require.NoError(t, err)
	}

	// Negotiation entered without a recorded vendor quote cannot be priced.
	_, _, err = svc.QuoteCustomer(ctx, tenantID, order.ID, QuoteInput{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestServicePaymentFlowAdvancesStatus(t *testing.T) {
	svc, repo, _, audit := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)
	for _, step := range []OrderStatus{
		StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote, StatusAwaitingPayment,
	} {
		_, err = svc.ChangeStatus(ctx, tenantID, order.ID, step, "")
		require.NoError(t, err)
	}

	updated, err := svc.RecordPayment(ctx, tenantID, order.ID, PaymentInput{
		Amount: money(t, 5_000_000), Method: "bank_transfer", Reference: "PAY-1", Kind: "down_payment",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPartialPayment, updated.Status)
	require.Equal(t, PaymentPartiallyPaid, updated.PaymentStatus)

	updated, err = svc.RecordPayment(ctx, tenantID, order.ID, PaymentInput{
		Amount: money(t, 5_000_000), Method: "bank_transfer", Reference: "PAY-2", Kind: "settlement",
	})
	require.NoError(t, err)
	require.Equal(t, StatusFullPayment, updated.Status)
	require.Equal(t, PaymentPaid, updated.PaymentStatus)

	stored, err := repo.GetOrder(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.True(t, stored.RemainingAmount().IsZero())

	var actions []string
	for _, l := range audit.logs {
		actions = append(actions, l.Action)
	}
	require.Contains(t, actions, "ORDER_PAYMENT")
}

func TestServicePaymentRejectionLeavesOrderUntouched(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)

	// PENDING orders accept no payments.
	_, err = svc.RecordPayment(ctx, tenantID, order.ID, PaymentInput{
		Amount: money(t, 5_000_000), Method: "cash",
	})
	require.ErrorIs(t, err, ErrPaymentNotAccepted)
	var stateErr *PaymentStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, StatusPending, stateErr.Status)

	stored, err := repo.GetOrder(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.True(t, stored.TotalPaidAmount.IsZero())
	require.Equal(t, StatusPending, stored.Status)
}

func TestServiceTenantScoping(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), order.ID)
	require.ErrorIs(t, err, ErrTenantMismatch)

	_, err = svc.ChangeStatus(ctx, uuid.New(), order.ID, StatusVendorSourcing, "")
	require.ErrorIs(t, err, ErrTenantMismatch)

	_, err = svc.Get(ctx, tenantID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListPaginates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, serviceOrderInput(t, tenantID))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, serviceOrderInput(t, uuid.New()))
	require.NoError(t, err)

	items, page, err := svc.List(ctx, tenantID, shared.NewPagination(1, 3, 0))
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, 5, page.Total)
}

func TestServiceListOverdue(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	in := serviceOrderInput(t, tenantID)
	order, err := svc.Create(ctx, in)
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(ctx, in.RequiredDeliveryDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, order.ID, overdue[0].ID)

	// Cancelled orders drop out of the overdue scan.
	_, err = svc.ChangeStatus(ctx, tenantID, order.ID, StatusCancelled, "customer withdrew")
	require.NoError(t, err)
	overdue, err = svc.ListOverdue(ctx, in.RequiredDeliveryDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Empty(t, overdue)

	stored, err := repo.GetOrder(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, stored.Status)
}
