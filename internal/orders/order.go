package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/pricing"
	"github.com/karsa-mfg/karsa/internal/shared"
)

// OrderItem is a line on a purchase order.
type OrderItem struct {
	ProductID      int64
	Name           string
	Quantity       int
	UnitPrice      shared.Money
	Customized     bool
	Specifications map[string]string
}

// PurchaseOrder is the aggregate root for the order lifecycle. All mutations
// go through its methods, which enforce the status and payment invariants and
// buffer domain events until the caller drains them after commit.
type PurchaseOrder struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	CustomerID           int64
	VendorID             *int64
	Number               string
	Status               OrderStatus
	PaymentStatus        PaymentStatus
	TotalAmount          shared.Money
	DownPaymentAmount    shared.Money
	TotalPaidAmount      shared.Money
	Items                []OrderItem
	ShippingAddress      shared.Address
	BillingAddress       shared.Address
	RequiredDeliveryDate time.Time
	Specifications       map[string]string
	Timeline             Timeline
	Metadata             map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time

	events []Event
}

// CreateOrderInput carries everything needed to open a new order.
type CreateOrderInput struct {
	TenantID             uuid.UUID
	CustomerID           int64
	Number               string
	TotalAmount          shared.Money
	Items                []OrderItem
	ShippingAddress      shared.Address
	BillingAddress       shared.Address
	RequiredDeliveryDate time.Time
	Specifications       map[string]string
}

// CreateOrder opens a new purchase order: computes the 50% down payment,
// sizes the production timeline from the items and raises OrderCreated.
func CreateOrder(in CreateOrderInput) (*PurchaseOrder, error) {
	if in.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant required", ErrValidation)
	}
	if in.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer required", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: minimal 1 item", ErrValidation)
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q quantity must be positive", ErrValidation, item.Name)
		}
	}
	if in.RequiredDeliveryDate.IsZero() {
		return nil, fmt.Errorf("%w: required delivery date missing", ErrValidation)
	}
	if in.TotalAmount.IsZero() {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrValidation)
	}

	now := time.Now()
	downPayment, err := in.TotalAmount.Percentage(50)
	if err != nil {
		return nil, err
	}

	order := &PurchaseOrder{
		ID:                   uuid.New(),
		TenantID:             in.TenantID,
		CustomerID:           in.CustomerID,
		Number:               in.Number,
		Status:               StatusPending,
		PaymentStatus:        PaymentUnpaid,
		TotalAmount:          in.TotalAmount,
		DownPaymentAmount:    downPayment,
		TotalPaidAmount:      shared.ZeroMoney(in.TotalAmount.Currency()),
		Items:                in.Items,
		ShippingAddress:      in.ShippingAddress,
		BillingAddress:       in.BillingAddress,
		RequiredDeliveryDate: in.RequiredDeliveryDate,
		Specifications:       in.Specifications,
		Timeline:             NewProductionTimeline(now, estimateProductionDays(in.Items)),
		Metadata:             map[string]any{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	order.record(OrderCreated{
		EventMeta:   newEventMeta(now),
		OrderID:     order.ID,
		TenantID:    order.TenantID,
		Number:      order.Number,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount.Amount(),
		Currency:    order.TotalAmount.Currency(),
	})
	return order, nil
}

// CanAssignVendor reports whether a vendor may be attached right now.
func (o *PurchaseOrder) CanAssignVendor() bool {
	return o.Status.AllowsVendorAssignment()
}

// CanReceivePayment reports whether a payment would be accepted right now.
func (o *PurchaseOrder) CanReceivePayment() bool {
	return o.Status.AllowsPayment() && !o.PaymentStatus.IsSettled()
}

// AssignVendor attaches a vendor and its quote, moving the order into
// negotiation. Only allowed while the status permits vendor assignment.
func (o *PurchaseOrder) AssignVendor(vendorID int64, quote shared.Money) error {
	if vendorID == 0 {
		return fmt.Errorf("%w: vendor required", ErrValidation)
	}
	if !o.CanAssignVendor() {
		return &VendorAssignmentError{Status: o.Status}
	}
	now := time.Now()
	o.VendorID = &vendorID
	o.Status = StatusVendorNegotiation
	o.Metadata["vendor_quote"] = quote.Amount()
	o.Metadata["vendor_quote_currency"] = quote.Currency()
	o.UpdatedAt = now
	o.record(VendorAssigned{
		EventMeta:   newEventMeta(now),
		OrderID:     o.ID,
		TenantID:    o.TenantID,
		VendorID:    vendorID,
		QuoteAmount: quote.Amount(),
		Currency:    quote.Currency(),
	})
	return nil
}

// VendorQuote returns the negotiated vendor quote, if one is on file. The
// amount round-trips through JSONB metadata, so both integer and float
// encodings are accepted.
func (o *PurchaseOrder) VendorQuote() (shared.Money, bool) {
	var amount int64
	switch v := o.Metadata["vendor_quote"].(type) {
	case int64:
		amount = v
	case float64:
		amount = int64(v)
	default:
		return shared.Money{}, false
	}
	currency, _ := o.Metadata["vendor_quote_currency"].(string)
	if currency == "" {
		currency = o.TotalAmount.Currency()
	}
	quote, err := shared.NewMoney(amount, currency)
	if err != nil {
		return shared.Money{}, false
	}
	return quote, true
}

// Requirements derives the complexity inputs from the order contents. Design
// factors and special requirements travel as comma separated specification
// values.
func (o *PurchaseOrder) Requirements() pricing.OrderRequirements {
	quantity := 0
	for _, item := range o.Items {
		quantity += item.Quantity
	}
	return pricing.OrderRequirements{
		Material:            o.Specifications["material"],
		DesignFactors:       splitSpecList(o.Specifications["design_factors"]),
		Quantity:            quantity,
		SpecialRequirements: splitSpecList(o.Specifications["special_requirements"]),
		DaysUntilDeadline:   int(time.Until(o.RequiredDeliveryDate).Hours() / 24),
	}
}

func splitSpecList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ApplyCustomerQuote stores the customer pricing snapshot and moves the order
// from negotiation into CUSTOMER_QUOTE.
func (o *PurchaseOrder) ApplyCustomerQuote(quote pricing.Structure, strategyName string) error {
	if o.Status != StatusVendorNegotiation {
		return &TransitionError{From: o.Status, To: StatusCustomerQuote}
	}
	now := time.Now()
	o.Status = StatusCustomerQuote
	o.Metadata["customer_quote"] = quote.FinalPrice.Amount()
	o.Metadata["customer_quote_currency"] = quote.FinalPrice.Currency()
	o.Metadata["customer_quote_strategy"] = strategyName
	o.Metadata["customer_quote_breakdown"] = quote.Breakdown
	o.UpdatedAt = now
	o.record(CustomerQuoted{
		EventMeta:  newEventMeta(now),
		OrderID:    o.ID,
		TenantID:   o.TenantID,
		Strategy:   strategyName,
		BaseCost:   quote.BaseCost.Amount(),
		FinalPrice: quote.FinalPrice.Amount(),
		Currency:   quote.FinalPrice.Currency(),
	})
	return nil
}

// RecordPayment accumulates a payment, recomputes the payment status and
// auto-advances the order status when a threshold is crossed. The amount must
// be positive and must not exceed the remaining balance; the order state is
// untouched when the guard fails.
func (o *PurchaseOrder) RecordPayment(amount shared.Money, method, reference, kind string) error {
	if !o.CanReceivePayment() {
		return &PaymentStateError{Status: o.Status, PaymentStatus: o.PaymentStatus}
	}
	if amount.Currency() != o.TotalAmount.Currency() {
		return fmt.Errorf("%w: payment in %s against %s order",
			shared.ErrCurrencyMismatch, amount.Currency(), o.TotalAmount.Currency())
	}
	remaining := o.RemainingAmount()
	if amount.IsZero() {
		return &PaymentAmountError{
			Amount: 0, Remaining: remaining.Amount(),
			Currency: o.TotalAmount.Currency(), Reason: "payment must be positive",
		}
	}
	if amount.GreaterThan(remaining) {
		return &PaymentAmountError{
			Amount: amount.Amount(), Remaining: remaining.Amount(),
			Currency: o.TotalAmount.Currency(), Reason: "payment exceeds remaining balance",
		}
	}

	paid, err := o.TotalPaidAmount.Add(amount)
	if err != nil {
		return err
	}

	now := time.Now()
	previousStatus := o.Status
	o.TotalPaidAmount = paid
	o.PaymentStatus = derivePaymentStatus(paid.Amount(), o.TotalAmount.Amount())
	o.UpdatedAt = now
	o.record(PaymentReceived{
		EventMeta:     newEventMeta(now),
		OrderID:       o.ID,
		TenantID:      o.TenantID,
		Amount:        amount.Amount(),
		Currency:      amount.Currency(),
		Method:        method,
		Reference:     reference,
		Kind:          kind,
		PaymentStatus: o.PaymentStatus,
	})

	switch {
	case o.PaymentStatus == PaymentPaid &&
		(previousStatus == StatusAwaitingPayment || previousStatus == StatusPartialPayment):
		o.applyStatus(StatusFullPayment, "full payment received", now)
	case o.PaymentStatus == PaymentPartiallyPaid && previousStatus == StatusAwaitingPayment:
		o.applyStatus(StatusPartialPayment, "down payment received", now)
	}
	return nil
}

// ChangeStatus transitions the order along the adjacency table, maintaining
// the production timeline milestones.
func (o *PurchaseOrder) ChangeStatus(target OrderStatus, reason string) error {
	if !o.Status.CanTransitionTo(target) {
		return &TransitionError{From: o.Status, To: target}
	}
	o.applyStatus(target, reason, time.Now())
	return nil
}

// applyStatus performs an already-validated transition.
func (o *PurchaseOrder) applyStatus(target OrderStatus, reason string, now time.Time) {
	previous := o.Status
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusInProduction:
		o.Timeline.Complete(MilestoneProduction, now)
	case StatusQualityControl:
		o.Timeline.Complete(MilestoneQualityControl, now)
	case StatusShipping:
		o.Timeline.Complete(MilestoneShipping, now)
	case StatusCompleted:
		o.Timeline.Complete(MilestoneDelivery, now)
		o.Timeline.CompleteAll(now)
	}

	o.record(OrderStatusChanged{
		EventMeta: newEventMeta(now),
		OrderID:   o.ID,
		TenantID:  o.TenantID,
		Previous:  previous,
		Current:   target,
		Reason:    reason,
	})
}

// RemainingAmount is the unpaid balance.
func (o *PurchaseOrder) RemainingAmount() shared.Money {
	remaining, err := o.TotalAmount.Subtract(o.TotalPaidAmount)
	if err != nil {
		// TotalPaidAmount never exceeds TotalAmount; a mismatch here means
		// corrupted storage, surface it as a zero balance.
		return shared.ZeroMoney(o.TotalAmount.Currency())
	}
	return remaining
}

// IsOverdue reports whether the delivery date passed while work is unfinished.
func (o *PurchaseOrder) IsOverdue(asOf time.Time) bool {
	return o.Status.IsActive() && asOf.After(o.RequiredDeliveryDate)
}

// ProgressPercent exposes the timeline completion share.
func (o *PurchaseOrder) ProgressPercent() int {
	return o.Timeline.ProgressPercent()
}

// TakeEvents returns the buffered domain events and clears the buffer, so a
// single commit dispatches each event exactly once.
func (o *PurchaseOrder) TakeEvents() []Event {
	events := o.events
	o.events = nil
	return events
}

func (o *PurchaseOrder) record(event Event) {
	o.events = append(o.events, event)
}
