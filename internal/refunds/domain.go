package refunds

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/shared"
)

// RefundType distinguishes full from partial refunds.
type RefundType string

const (
	TypeFull    RefundType = "FULL"
	TypePartial RefundType = "PARTIAL"
)

// Approval is one recorded verdict on the chain. Round starts at 1 and
// increments each time a failed refund re-enters the chain.
type Approval struct {
	Round      int
	Level      int
	Role       string
	ApproverID int64
	Decision   Decision
	Comment    string
	DecidedAt  time.Time
}

// RefundRequest is the aggregate root for the refund workflow. While the
// request is PENDING it walks an approval chain; the chain is fixed at
// creation from the financial impact and only escalation extends it.
type RefundRequest struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	OrderID       uuid.UUID
	Number        string
	Type          RefundType
	Amount        shared.Money
	Category      ReasonCategory
	Description   string
	Impact        FinancialImpact
	Status        RefundStatus
	Chain         []ChainLevel
	Assignees     map[string]int64
	CurrentIndex  int
	Round         int
	Approvals     []Approval
	FailureReason string
	RequestedBy   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	events []Event
}

// CreateRefundInput carries everything needed to open a refund request.
type CreateRefundInput struct {
	TenantID              uuid.UUID
	OrderID               uuid.UUID
	Number                string
	Type                  RefundType
	Amount                shared.Money
	Category              ReasonCategory
	Description           string
	FaultParty            FaultParty
	RecoverableFromVendor int64
	QualityIssuePercent   int
	RequestedBy           int64
	Assignments           map[string]int64
}

// NewRefundRequest validates the input, quantifies the financial impact and
// lays out the approval chain. The order-level eligibility checks live in the
// service; this constructor only guards the request itself.
func NewRefundRequest(in CreateRefundInput, rules ApprovalRules) (*RefundRequest, error) {
	if in.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant required", ErrValidation)
	}
	if in.OrderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order required", ErrValidation)
	}
	if in.Type != TypeFull && in.Type != TypePartial {
		return nil, fmt.Errorf("%w: unknown refund type %q", ErrValidation, in.Type)
	}
	if in.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if _, ok := reasonCategories[in.Category]; !ok {
		return nil, fmt.Errorf("%w: unknown reason category %q", ErrValidation, in.Category)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description required", ErrValidation)
	}
	if in.QualityIssuePercent < 0 || in.QualityIssuePercent > 100 {
		return nil, fmt.Errorf("%w: quality issue percent out of range", ErrValidation)
	}
	if in.RecoverableFromVendor < 0 {
		return nil, fmt.Errorf("%w: recoverable amount cannot be negative", ErrValidation)
	}
	for level := LevelFinance; level <= LevelExecutive; level++ {
		if in.Assignments[RoleForLevel(level)] <= 0 {
			return nil, fmt.Errorf("%w: no approver assigned for %s", ErrValidation, RoleForLevel(level))
		}
	}

	now := time.Now()
	impact := FinancialImpact{
		RefundableAmount:      in.Amount.Amount(),
		RecoverableFromVendor: in.RecoverableFromVendor,
		NetCompanyImpact:      in.Amount.Amount() - in.RecoverableFromVendor,
		QualityIssuePercent:   in.QualityIssuePercent,
		FaultParty:            in.FaultParty,
	}
	chain := rules.BuildChain(impact)
	assignChain(chain, in.Assignments)

	req := &RefundRequest{
		ID:           uuid.New(),
		TenantID:     in.TenantID,
		OrderID:      in.OrderID,
		Number:       in.Number,
		Type:         in.Type,
		Amount:       in.Amount,
		Category:     in.Category,
		Description:  in.Description,
		Impact:       impact,
		Status:       StatusPending,
		Chain:        chain,
		Assignees:    in.Assignments,
		CurrentIndex: 0,
		Round:        1,
		RequestedBy:  in.RequestedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	req.record(RefundRequested{
		EventMeta: newEventMeta(now),
		RefundID:  req.ID,
		TenantID:  req.TenantID,
		OrderID:   req.OrderID,
		Amount:    req.Amount.Amount(),
		Currency:  req.Amount.Currency(),
		Category:  req.Category,
		Levels:    len(chain),
	})
	return req, nil
}

// CurrentLevel returns the chain level awaiting a decision. The second
// return is false once the request left PENDING.
func (r *RefundRequest) CurrentLevel() (ChainLevel, bool) {
	if r.Status != StatusPending || r.CurrentIndex >= len(r.Chain) {
		return ChainLevel{}, false
	}
	return r.Chain[r.CurrentIndex], true
}

// CurrentApproverID returns the approver assigned to the level awaiting a
// decision. The second return is false once the request left PENDING.
func (r *RefundRequest) CurrentApproverID() (int64, bool) {
	current, ok := r.CurrentLevel()
	if !ok {
		return 0, false
	}
	return current.ApproverID, true
}

// assignChain stamps each chain level with the approver assigned to its role.
func assignChain(chain []ChainLevel, assignees map[string]int64) {
	for i := range chain {
		chain[i].ApproverID = assignees[chain[i].Role]
	}
}

// RequiredLevels counts the levels the rules demanded at creation.
func (r *RefundRequest) RequiredLevels() int {
	n := 0
	for _, l := range r.Chain {
		if l.Required {
			n++
		}
	}
	return n
}

// SubmitDecision records an approver verdict at the current chain level.
// Only the approver assigned to that level may decide. Approving the last
// level moves the request to APPROVED, a rejection at any level is final,
// and escalation forces the next higher level to review even when the rules
// did not require it.
func (r *RefundRequest) SubmitDecision(approverID int64, role string, decision Decision, comment string) error {
	current, ok := r.CurrentLevel()
	if !ok {
		return fmt.Errorf("%w: status %s", ErrNotEditable, r.Status)
	}
	if role != current.Role {
		return fmt.Errorf("%w: level %d expects %s, got %s",
			ErrUnauthorizedApprover, current.Level, current.Role, role)
	}
	if approverID != current.ApproverID {
		return fmt.Errorf("%w: level %d is assigned to approver %d",
			ErrUnauthorizedApprover, current.Level, current.ApproverID)
	}
	if decision == DecisionEscalated && current.Level >= LevelExecutive {
		return ErrCannotEscalate
	}

	now := time.Now()
	r.recordApproval(Approval{
		Round:      r.Round,
		Level:      current.Level,
		Role:       current.Role,
		ApproverID: approverID,
		Decision:   decision,
		Comment:    comment,
		DecidedAt:  now,
	}, now)

	switch decision {
	case DecisionApproved:
		r.advance(now)
	case DecisionRejected:
		return r.transition(StatusRejected, "rejected at level "+current.Role, now)
	case DecisionEscalated:
		r.escalate(current.Level, now)
	default:
		return fmt.Errorf("%w: decision %q cannot be submitted", ErrValidation, decision)
	}
	return nil
}

// advance moves past the current level, auto-skipping levels the rules did
// not require. Exhausting the chain approves the request.
func (r *RefundRequest) advance(now time.Time) {
	r.CurrentIndex++
	for r.CurrentIndex < len(r.Chain) && !r.Chain[r.CurrentIndex].Required {
		skipped := r.Chain[r.CurrentIndex]
		r.recordApproval(Approval{
			Round:     r.Round,
			Level:     skipped.Level,
			Role:      skipped.Role,
			Decision:  DecisionSkipped,
			Comment:   "level not required",
			DecidedAt: now,
		}, now)
		r.CurrentIndex++
	}
	if r.CurrentIndex >= len(r.Chain) {
		_ = r.transition(StatusApproved, "approval chain complete", now)
	}
}

// escalate routes the request to the level above, extending the chain when
// the rules stopped below it.
func (r *RefundRequest) escalate(fromLevel int, now time.Time) {
	next := fromLevel + 1
	found := false
	for i, l := range r.Chain {
		if l.Level == next {
			r.Chain[i].Required = true
			r.CurrentIndex = i
			found = true
			break
		}
	}
	if !found {
		role := RoleForLevel(next)
		r.Chain = append(r.Chain, ChainLevel{
			Level:      next,
			Role:       role,
			ApproverID: r.Assignees[role],
			Required:   true,
		})
		r.CurrentIndex = len(r.Chain) - 1
	}
}

func (r *RefundRequest) recordApproval(a Approval, now time.Time) {
	r.Approvals = append(r.Approvals, a)
	r.UpdatedAt = now
	r.record(RefundDecisionRecorded{
		EventMeta:  newEventMeta(now),
		RefundID:   r.ID,
		TenantID:   r.TenantID,
		OrderID:    r.OrderID,
		Level:      a.Level,
		Role:       a.Role,
		ApproverID: a.ApproverID,
		Decision:   a.Decision,
	})
}

// UpdateRefundInput amends an undecided request.
type UpdateRefundInput struct {
	Amount                *shared.Money
	Category              *ReasonCategory
	Description           *string
	FaultParty            *FaultParty
	RecoverableFromVendor *int64
	QualityIssuePercent   *int
}

// Update amends the request and rebuilds the chain. Only allowed while the
// request is PENDING with no verdict recorded in the current round.
func (r *RefundRequest) Update(in UpdateRefundInput, rules ApprovalRules) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: status %s", ErrNotEditable, r.Status)
	}
	for _, a := range r.Approvals {
		if a.Round == r.Round {
			return fmt.Errorf("%w: approval chain already started", ErrNotEditable)
		}
	}
	if in.Amount != nil {
		if in.Amount.IsZero() {
			return fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		r.Amount = *in.Amount
	}
	if in.Category != nil {
		if _, ok := reasonCategories[*in.Category]; !ok {
			return fmt.Errorf("%w: unknown reason category %q", ErrValidation, *in.Category)
		}
		r.Category = *in.Category
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return fmt.Errorf("%w: description required", ErrValidation)
		}
		r.Description = *in.Description
	}
	if in.FaultParty != nil {
		r.Impact.FaultParty = *in.FaultParty
	}
	if in.RecoverableFromVendor != nil {
		if *in.RecoverableFromVendor < 0 {
			return fmt.Errorf("%w: recoverable amount cannot be negative", ErrValidation)
		}
		r.Impact.RecoverableFromVendor = *in.RecoverableFromVendor
	}
	if in.QualityIssuePercent != nil {
		if *in.QualityIssuePercent < 0 || *in.QualityIssuePercent > 100 {
			return fmt.Errorf("%w: quality issue percent out of range", ErrValidation)
		}
		r.Impact.QualityIssuePercent = *in.QualityIssuePercent
	}
	r.Impact.RefundableAmount = r.Amount.Amount()
	r.Impact.NetCompanyImpact = r.Impact.RefundableAmount - r.Impact.RecoverableFromVendor
	r.Chain = rules.BuildChain(r.Impact)
	assignChain(r.Chain, r.Assignees)
	r.CurrentIndex = 0
	r.UpdatedAt = time.Now()
	return nil
}

// MarkProcessing hands the approved refund to the payment gateway.
func (r *RefundRequest) MarkProcessing() error {
	return r.transition(StatusProcessing, "handed to gateway", time.Now())
}

// Complete records a successful gateway payout.
func (r *RefundRequest) Complete() error {
	return r.transition(StatusCompleted, "gateway payout confirmed", time.Now())
}

// Fail records a gateway failure; the request can be retried or abandoned.
func (r *RefundRequest) Fail(reason string) error {
	now := time.Now()
	if err := r.transition(StatusFailed, reason, now); err != nil {
		return err
	}
	r.FailureReason = reason
	return nil
}

// Retry re-enters a failed refund into the approval chain for a new round.
func (r *RefundRequest) Retry() error {
	now := time.Now()
	if err := r.transition(StatusPending, "retry after failure", now); err != nil {
		return err
	}
	r.FailureReason = ""
	r.Round++
	r.CurrentIndex = 0
	return nil
}

// Abandon closes a failed refund permanently.
func (r *RefundRequest) Abandon(reason string) error {
	return r.transition(StatusRejected, reason, time.Now())
}

func (r *RefundRequest) transition(target RefundStatus, reason string, now time.Time) error {
	if !r.Status.CanTransitionTo(target) {
		return &TransitionError{From: r.Status, To: target}
	}
	previous := r.Status
	r.Status = target
	r.UpdatedAt = now
	r.record(RefundStatusChanged{
		EventMeta: newEventMeta(now),
		RefundID:  r.ID,
		TenantID:  r.TenantID,
		OrderID:   r.OrderID,
		Previous:  previous,
		Current:   target,
		Reason:    reason,
	})
	return nil
}

// TakeEvents returns the buffered domain events and clears the buffer.
func (r *RefundRequest) TakeEvents() []Event {
	events := r.events
	r.events = nil
	return events
}

func (r *RefundRequest) record(event Event) {
	r.events = append(r.events, event)
}
