package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/pricing"
	"github.com/karsa-mfg/karsa/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrder, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*PurchaseOrder, int, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]*PurchaseOrder, error)
}

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	InsertOrder(ctx context.Context, order *PurchaseOrder) error
	UpdateOrder(ctx context.Context, order *PurchaseOrder) error
}

// VendorPort verifies vendors before assignment.
type VendorPort interface {
	Exists(ctx context.Context, tenantID uuid.UUID, vendorID int64) (bool, error)
}

// DispatcherPort receives drained domain events after a successful commit.
// Delivery is at-least-once; consumers deduplicate on event identity.
type DispatcherPort interface {
	Dispatch(ctx context.Context, events []Event) error
}

// Locker serializes writes per aggregate instance.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// AuditPort records mutation history.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates order lifecycle flows.
type Service struct {
	repo        RepositoryPort
	vendors     VendorPort
	dispatcher  DispatcherPort
	locks       Locker
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
}

// NewService constructs the order service.
func NewService(repo RepositoryPort, vendors VendorPort, dispatcher DispatcherPort, locks Locker, audit AuditPort, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, vendors: vendors, dispatcher: dispatcher, locks: locks, audit: audit, idempotency: idem, logger: logger}
}

// Create opens a new order and persists it.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*PurchaseOrder, error) {
	if in.Number == "" {
		in.Number = generateNumber("ORD")
	}
	order, err := CreateOrder(in)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, order, "ORDER_CREATE", map[string]any{"number": order.Number, "total": order.TotalAmount.Amount()})
	s.dispatch(ctx, order.TakeEvents())
	return order, nil
}

// AssignVendor attaches a verified vendor with its negotiated quote.
func (s *Service) AssignVendor(ctx context.Context, tenantID, orderID uuid.UUID, vendorID int64, quote shared.Money) (*PurchaseOrder, error) {
	if s.vendors != nil {
		ok, err := s.vendors.Exists(ctx, tenantID, vendorID)
		if err != nil {
			return nil, fmt.Errorf("orders: verify vendor: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: vendor %d", ErrValidation, vendorID)
		}
	}
	var order *PurchaseOrder
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.mutate(ctx, tenantID, orderID, func(o *PurchaseOrder) error {
			return o.AssignVendor(vendorID, quote)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, order, "ORDER_ASSIGN_VENDOR", map[string]any{"vendor_id": vendorID, "quote": quote.Amount()})
	return order, nil
}

// QuoteInput selects how the vendor quote is marked up for the customer.
type QuoteInput struct {
	CustomerTier string
	DiscountBP   int64
	TaxBP        int64
}

// QuoteCustomer prices the order for the customer from the negotiated vendor
// quote and moves it into CUSTOMER_QUOTE. The markup strategy follows the
// customer tier and the order's derived complexity.
func (s *Service) QuoteCustomer(ctx context.Context, tenantID, orderID uuid.UUID, in QuoteInput) (*PurchaseOrder, pricing.Structure, error) {
	var (
		order     *PurchaseOrder
		structure pricing.Structure
	)
	strategy := pricing.NewStrategyForCustomer(in.CustomerTier)
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.mutate(ctx, tenantID, orderID, func(o *PurchaseOrder) error {
			cost, ok := o.VendorQuote()
			if !ok {
				return fmt.Errorf("%w: no vendor quote on file", ErrValidation)
			}
			structure, err = pricing.BuildStructure(pricing.StructureInput{
				MaterialCost: cost,
				LaborCost:    shared.ZeroMoney(cost.Currency()),
				Complexity:   pricing.ComplexityFromRequirements(o.Requirements()),
				Strategy:     strategy,
				DiscountBP:   in.DiscountBP,
				TaxBP:        in.TaxBP,
			})
			if err != nil {
				return fmt.Errorf("orders: price customer quote: %w", err)
			}
			return o.ApplyCustomerQuote(structure, strategy.StrategyName())
		})
		return err
	})
	if err != nil {
		return nil, pricing.Structure{}, err
	}
	s.recordAudit(ctx, order, "ORDER_CUSTOMER_QUOTE", map[string]any{
		"strategy":    strategy.StrategyName(),
		"final_price": structure.FinalPrice.Amount(),
	})
	return order, structure, nil
}

// PaymentInput describes a customer payment.
type PaymentInput struct {
	Amount    shared.Money
	Method    string
	Reference string
	Kind      string
}

// RecordPayment applies a payment to the order. Payment references are
// idempotency keys: a replayed reference fails instead of double-charging.
func (s *Service) RecordPayment(ctx context.Context, tenantID, orderID uuid.UUID, in PaymentInput) (*PurchaseOrder, error) {
	reserved := false
	if s.idempotency != nil && in.Reference != "" {
		if err := s.idempotency.Reserve(ctx, "orders.payment", in.Reference); err != nil {
			return nil, err
		}
		reserved = true
	}
	var order *PurchaseOrder
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.mutate(ctx, tenantID, orderID, func(o *PurchaseOrder) error {
			return o.RecordPayment(in.Amount, in.Method, in.Reference, in.Kind)
		})
		return err
	})
	if err != nil {
		if reserved {
			_ = s.idempotency.Release(ctx, "orders.payment", in.Reference)
		}
		return nil, err
	}
	s.recordAudit(ctx, order, "ORDER_PAYMENT", map[string]any{
		"amount": in.Amount.Amount(), "method": in.Method, "reference": in.Reference,
	})
	return order, nil
}

// ChangeStatus transitions the order with an optional free-text reason.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, orderID uuid.UUID, target OrderStatus, reason string) (*PurchaseOrder, error) {
	var order *PurchaseOrder
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.mutate(ctx, tenantID, orderID, func(o *PurchaseOrder) error {
			return o.ChangeStatus(target, reason)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, order, "ORDER_STATUS", map[string]any{"status": string(target), "reason": reason})
	return order, nil
}

// Get loads a single order scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, tenantID, orderID)
}

// List returns a page of orders for the tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, page shared.Pagination) ([]*PurchaseOrder, shared.Pagination, error) {
	items, total, err := s.repo.ListOrders(ctx, tenantID, page.PerPage, page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// ListOverdue returns active orders whose delivery date passed.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]*PurchaseOrder, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.repo.ListOverdue(ctx, asOf)
}

// mutate loads the order, applies fn and saves inside one transaction, then
// dispatches the drained events.
func (s *Service) mutate(ctx context.Context, tenantID, orderID uuid.UUID, fn func(*PurchaseOrder) error) (*PurchaseOrder, error) {
	var order *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = s.repo.GetOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, order.TakeEvents())
	return order, nil
}

func (s *Service) withOrderLock(ctx context.Context, orderID uuid.UUID, fn func() error) error {
	if s.locks == nil {
		return fn()
	}
	return s.locks.WithLock(ctx, orderLockKey(orderID), fn)
}

func (s *Service) dispatch(ctx context.Context, events []Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, events); err != nil {
		s.logger.Error("dispatch order events", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, order *PurchaseOrder, action string, meta map[string]any) {
	if s.audit == nil || order == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: order.TenantID.String(),
		Action:   action,
		Entity:   "orders",
		EntityID: order.ID.String(),
		Meta:     meta,
	})
}

func orderLockKey(orderID uuid.UUID) string {
	return fmt.Sprintf("orders:%s:lock", orderID)
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
