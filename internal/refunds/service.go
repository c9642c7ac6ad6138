package refunds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/orders"
	"github.com/karsa-mfg/karsa/internal/shared"
)

// DefaultCompletedWindow bounds refunds on delivered orders.
const DefaultCompletedWindow = 30 * 24 * time.Hour

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error)
	GetActiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*RefundRequest, error)
	List(ctx context.Context, tenantID uuid.UUID, status RefundStatus, limit, offset int) ([]*RefundRequest, int, error)
	ListStale(ctx context.Context, status RefundStatus, olderThan time.Time) ([]*RefundRequest, error)
}

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	Insert(ctx context.Context, req *RefundRequest) error
	Update(ctx context.Context, req *RefundRequest) error
}

// OrdersPort is the slice of the order service the refund workflow needs:
// eligibility reads and the final push to REFUNDED.
type OrdersPort interface {
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*orders.PurchaseOrder, error)
	ChangeStatus(ctx context.Context, tenantID, orderID uuid.UUID, target orders.OrderStatus, reason string) (*orders.PurchaseOrder, error)
}

// DirectoryPort resolves which user reviews a given approval role for a
// tenant. Assignments are stamped onto the chain at creation so every level
// carries its current approver.
type DirectoryPort interface {
	Assignee(ctx context.Context, tenantID uuid.UUID, role string) (int64, error)
}

// DispatcherPort receives drained domain events after a successful commit.
type DispatcherPort interface {
	Dispatch(ctx context.Context, events []Event) error
}

// Locker serializes writes per refund request.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// AuditPort records mutation history.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the refund workflow.
type Service struct {
	repo            RepositoryPort
	orders          OrdersPort
	directory       DirectoryPort
	dispatcher      DispatcherPort
	locks           Locker
	audit           AuditPort
	rules           ApprovalRules
	completedWindow time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService constructs the refund service. A zero completedWindow falls
// back to DefaultCompletedWindow.
func NewService(repo RepositoryPort, ordersPort OrdersPort, directory DirectoryPort, dispatcher DispatcherPort, locks Locker, audit AuditPort, rules ApprovalRules, completedWindow time.Duration, logger *slog.Logger) *Service {
	if completedWindow <= 0 {
		completedWindow = DefaultCompletedWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:            repo,
		orders:          ordersPort,
		directory:       directory,
		dispatcher:      dispatcher,
		locks:           locks,
		audit:           audit,
		rules:           rules,
		completedWindow: completedWindow,
		logger:          logger,
		now:             time.Now,
	}
}

// Create opens a refund request after the order-level eligibility checks:
// the order must sit in a refundable status, delivered orders only within
// the completed window, the amount within what the customer actually paid,
// and no other refund may be open on the order.
func (s *Service) Create(ctx context.Context, in CreateRefundInput) (*RefundRequest, error) {
	order, err := s.orders.Get(ctx, in.TenantID, in.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) || errors.Is(err, orders.ErrTenantMismatch) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("refunds: load order: %w", err)
	}
	if err := s.checkEligibility(order, in); err != nil {
		return nil, err
	}
	if active, err := s.repo.GetActiveByOrder(ctx, in.TenantID, in.OrderID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("refunds: check active refund: %w", err)
		}
	} else if active != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateActive, active.Number)
	}

	if in.Number == "" {
		in.Number = generateNumber("REF")
	}
	assignments, err := s.resolveAssignments(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	in.Assignments = assignments
	req, err := NewRefundRequest(in, s.rules)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_CREATE", map[string]any{
		"order_id": req.OrderID.String(), "amount": req.Amount.Amount(), "category": string(req.Category),
	})
	s.dispatch(ctx, req.TakeEvents())
	return req, nil
}

func (s *Service) checkEligibility(order *orders.PurchaseOrder, in CreateRefundInput) error {
	switch order.Status {
	case orders.StatusInProduction, orders.StatusShipping, orders.StatusCompleted:
	default:
		return &EligibilityError{Reason: fmt.Sprintf("order status %s is not refundable", order.Status)}
	}
	if order.Status == orders.StatusCompleted {
		cutoff := s.now().Add(-s.completedWindow)
		if completedOrderAt(order).Before(cutoff) {
			return &EligibilityError{Reason: "completed order outside the refund window"}
		}
	}
	if in.Amount.Currency() != order.TotalAmount.Currency() {
		return fmt.Errorf("%w: refund in %s against %s order",
			shared.ErrCurrencyMismatch, in.Amount.Currency(), order.TotalAmount.Currency())
	}
	if in.Amount.GreaterThan(order.TotalPaidAmount) {
		return &EligibilityError{Reason: "refund exceeds the amount paid"}
	}
	if in.Type == TypeFull && !in.Amount.Equals(order.TotalPaidAmount) {
		return fmt.Errorf("%w: full refund must match the amount paid", ErrValidation)
	}
	return nil
}

// resolveAssignments looks up the approver for every chain role so the
// chain stays decidable however far an escalation extends it.
func (s *Service) resolveAssignments(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	assignments := make(map[string]int64, LevelExecutive)
	for level := LevelFinance; level <= LevelExecutive; level++ {
		role := RoleForLevel(level)
		approverID, err := s.directory.Assignee(ctx, tenantID, role)
		if err != nil {
			return nil, fmt.Errorf("refunds: resolve %s approver: %w", role, err)
		}
		assignments[role] = approverID
	}
	return assignments, nil
}

// completedOrderAt reads the delivery timestamp, falling back to the last
// order update when the milestone is missing.
func completedOrderAt(order *orders.PurchaseOrder) time.Time {
	for _, m := range order.Timeline.Milestones {
		if m.Name == orders.MilestoneDelivery && m.CompletedAt != nil {
			return *m.CompletedAt
		}
	}
	return order.UpdatedAt
}

// DecisionInput is an approver verdict submitted against the chain.
type DecisionInput struct {
	ApproverID int64
	Role       string
	Decision   Decision
	Comment    string
}

// SubmitDecision applies an approver verdict at the current chain level.
func (s *Service) SubmitDecision(ctx context.Context, tenantID, refundID uuid.UUID, in DecisionInput) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.SubmitDecision(in.ApproverID, in.Role, in.Decision, in.Comment)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_DECISION", map[string]any{
		"approver_id": in.ApproverID, "role": in.Role, "decision": string(in.Decision),
	})
	return req, nil
}

// Update amends a refund request before any approver has decided.
func (s *Service) Update(ctx context.Context, tenantID, refundID uuid.UUID, in UpdateRefundInput) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.Update(in, s.rules)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_UPDATE", map[string]any{"amount": req.Amount.Amount()})
	return req, nil
}

// MarkProcessing hands an approved refund to the payment gateway.
func (s *Service) MarkProcessing(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.MarkProcessing()
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_PROCESSING", nil)
	return req, nil
}

// Complete records a successful payout and pushes the order to REFUNDED.
func (s *Service) Complete(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.Complete()
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.ChangeStatus(ctx, tenantID, req.OrderID, orders.StatusRefunded, "refund "+req.Number+" completed"); err != nil {
		// The refund itself is committed; the order push is retried by the
		// reconciliation job, so log instead of failing the caller.
		s.logger.Error("push order to refunded",
			slog.String("refund_id", req.ID.String()),
			slog.String("order_id", req.OrderID.String()),
			slog.Any("error", err))
	}
	s.recordAudit(ctx, req, "REFUND_COMPLETE", map[string]any{"order_id": req.OrderID.String()})
	return req, nil
}

// Fail records a gateway failure.
func (s *Service) Fail(ctx context.Context, tenantID, refundID uuid.UUID, reason string) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.Fail(reason)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_FAIL", map[string]any{"reason": reason})
	return req, nil
}

// Retry re-enters a failed refund into the approval chain.
func (s *Service) Retry(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.Retry()
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_RETRY", nil)
	return req, nil
}

// Abandon closes a failed refund permanently.
func (s *Service) Abandon(ctx context.Context, tenantID, refundID uuid.UUID, reason string) (*RefundRequest, error) {
	req, err := s.mutateLocked(ctx, tenantID, refundID, func(r *RefundRequest) error {
		return r.Abandon(reason)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, req, "REFUND_ABANDON", map[string]any{"reason": reason})
	return req, nil
}

// Get loads a refund request scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error) {
	return s.repo.Get(ctx, tenantID, refundID)
}

// List returns a page of refund requests, optionally filtered by status.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, status RefundStatus, page shared.Pagination) ([]*RefundRequest, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, tenantID, status, page.PerPage, page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// ListStale returns pending requests untouched since olderThan, for the
// escalation scan.
func (s *Service) ListStale(ctx context.Context, olderThan time.Time) ([]*RefundRequest, error) {
	return s.repo.ListStale(ctx, StatusPending, olderThan)
}

func (s *Service) mutateLocked(ctx context.Context, tenantID, refundID uuid.UUID, fn func(*RefundRequest) error) (*RefundRequest, error) {
	var req *RefundRequest
	err := s.withRefundLock(ctx, refundID, func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			req, err = s.repo.Get(ctx, tenantID, refundID)
			if err != nil {
				return err
			}
			if err := fn(req); err != nil {
				return err
			}
			return tx.Update(ctx, req)
		})
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, req.TakeEvents())
	return req, nil
}

func (s *Service) withRefundLock(ctx context.Context, refundID uuid.UUID, fn func() error) error {
	if s.locks == nil {
		return fn()
	}
	return s.locks.WithLock(ctx, fmt.Sprintf("refunds:%s:lock", refundID), fn)
}

func (s *Service) dispatch(ctx context.Context, events []Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, events); err != nil {
		s.logger.Error("dispatch refund events", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, req *RefundRequest, action string, meta map[string]any) {
	if s.audit == nil || req == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: req.TenantID.String(),
		Action:   action,
		Entity:   "refunds",
		EntityID: req.ID.String(),
		Meta:     meta,
	})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
