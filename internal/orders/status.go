package orders

// OrderStatus enumerates purchase order lifecycle states.
type OrderStatus string

const (
	StatusPending           OrderStatus = "PENDING"
	StatusVendorSourcing    OrderStatus = "VENDOR_SOURCING"
	StatusVendorNegotiation OrderStatus = "VENDOR_NEGOTIATION"
	StatusCustomerQuote     OrderStatus = "CUSTOMER_QUOTE"
	StatusAwaitingPayment   OrderStatus = "AWAITING_PAYMENT"
	StatusPartialPayment    OrderStatus = "PARTIAL_PAYMENT"
	StatusFullPayment       OrderStatus = "FULL_PAYMENT"
	StatusInProduction      OrderStatus = "IN_PRODUCTION"
	StatusQualityControl    OrderStatus = "QUALITY_CONTROL"
	StatusShipping          OrderStatus = "SHIPPING"
	StatusCompleted         OrderStatus = "COMPLETED"
	StatusCancelled         OrderStatus = "CANCELLED"
	StatusRefunded          OrderStatus = "REFUNDED"
)

// orderTransitions is the authoritative adjacency table. Guards consult this
// table only; there are no scattered status conditionals.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:           {StatusVendorSourcing, StatusCancelled},
	StatusVendorSourcing:    {StatusVendorNegotiation, StatusCancelled},
	StatusVendorNegotiation: {StatusCustomerQuote, StatusVendorSourcing, StatusCancelled},
	StatusCustomerQuote:     {StatusAwaitingPayment, StatusVendorNegotiation, StatusCancelled},
	StatusAwaitingPayment:   {StatusPartialPayment, StatusFullPayment, StatusCancelled},
	StatusPartialPayment:    {StatusFullPayment, StatusInProduction, StatusCancelled},
	StatusFullPayment:       {StatusInProduction, StatusRefunded},
	StatusInProduction:      {StatusQualityControl, StatusRefunded},
	StatusQualityControl:    {StatusShipping, StatusInProduction, StatusRefunded},
	StatusShipping:          {StatusCompleted, StatusRefunded},
	StatusCompleted:         {StatusRefunded},
	StatusCancelled:         {},
	StatusRefunded:          {},
}

var orderStatusLabels = map[OrderStatus][2]string{
	StatusPending:           {"Pending", "Order received, waiting for vendor sourcing"},
	StatusVendorSourcing:    {"Sourcing Vendor", "Searching for a capable vendor"},
	StatusVendorNegotiation: {"Vendor Negotiation", "Negotiating price and schedule with the vendor"},
	StatusCustomerQuote:     {"Customer Quote", "Quote sent, waiting for customer approval"},
	StatusAwaitingPayment:   {"Awaiting Payment", "Waiting for the customer down payment"},
	StatusPartialPayment:    {"Partially Paid", "Down payment received"},
	StatusFullPayment:       {"Fully Paid", "Full payment received"},
	StatusInProduction:      {"In Production", "Vendor is producing the order"},
	StatusQualityControl:    {"Quality Control", "Inspecting finished goods"},
	StatusShipping:          {"Shipping", "Order handed to the carrier"},
	StatusCompleted:         {"Completed", "Order delivered to the customer"},
	StatusCancelled:         {"Cancelled", "Order cancelled"},
	StatusRefunded:          {"Refunded", "Order refunded to the customer"},
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	_, ok := orderStatusLabels[s]
	return s, ok
}

// Label returns the presentation name of the status.
func (s OrderStatus) Label() string { return orderStatusLabels[s][0] }

// Description returns a short explanation of the status.
func (s OrderStatus) Description() string { return orderStatusLabels[s][1] }

// AllowedTransitions returns a copy of the permitted next statuses.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsFinal reports whether the order can never change status again.
func (s OrderStatus) IsFinal() bool {
	return len(orderTransitions[s]) == 0
}

// IsActive reports whether the order still has outstanding work. Completed,
// cancelled and refunded orders are not active; overdue checks use this.
func (s OrderStatus) IsActive() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return false
	default:
		return true
	}
}

// AllowsVendorAssignment reports whether a vendor may be attached now.
func (s OrderStatus) AllowsVendorAssignment() bool {
	return s == StatusPending || s == StatusVendorSourcing
}

// AllowsPayment reports whether customer payments are accepted.
func (s OrderStatus) AllowsPayment() bool {
	switch s {
	case StatusAwaitingPayment, StatusPartialPayment:
		return true
	default:
		return false
	}
}

// PaymentStatus mirrors the paid-vs-total relation. It is always derived,
// never set directly.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// Label returns the presentation name of the payment status.
func (p PaymentStatus) Label() string {
	switch p {
	case PaymentUnpaid:
		return "Unpaid"
	case PaymentPartiallyPaid:
		return "Partially Paid"
	case PaymentPaid:
		return "Paid"
	default:
		return string(p)
	}
}

// IsSettled reports whether the order is fully paid.
func (p PaymentStatus) IsSettled() bool { return p == PaymentPaid }

// derivePaymentStatus computes the payment status from paid vs total amounts
// in minor units. It is the single source of truth for the derivation.
func derivePaymentStatus(paid, total int64) PaymentStatus {
	switch {
	case paid == 0:
		return PaymentUnpaid
	case paid == total:
		return PaymentPaid
	default:
		return PaymentPartiallyPaid
	}
}
