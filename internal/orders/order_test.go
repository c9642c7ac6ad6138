package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/karsa-mfg/karsa/internal/pricing"
	"github.com/karsa-mfg/karsa/internal/shared"
)

func money(t *testing.T, amount int64) shared.Money {
	t.Helper()
	m, err := shared.NewMoney(amount, "IDR")
	require.NoError(t, err)
	return m
}

func newTestOrder(t *testing.T, total int64) *PurchaseOrder {
	t.Helper()
	order, err := CreateOrder(CreateOrderInput{
		TenantID:   uuid.New(),
		CustomerID: 42,
		Number:     "ORD-TEST-1",
		TotalAmount: func() shared.Money {
			m, _ := shared.NewMoney(total, "IDR")
			return m
		}(),
		Items: []OrderItem{
			{ProductID: 7, Name: "Steel bracket", Quantity: 20, UnitPrice: money(t, total/20)},
		},
		RequiredDeliveryDate: time.Now().AddDate(0, 0, 21),
	})
	require.NoError(t, err)
	return order
}

func drainTo(t *testing.T, order *PurchaseOrder, target OrderStatus, path ...OrderStatus) {
	t.Helper()
	for _, step := range append(path, target) {
		require.NoError(t, order.ChangeStatus(step, ""))
	}
}

func TestCreateOrderComputesDownPaymentAndTimeline(t *testing.T) {
	order, err := CreateOrder(CreateOrderInput{
		TenantID:    uuid.New(),
		CustomerID:  1,
		Number:      "ORD-1",
		TotalAmount: money(t, 10_000_000),
		Items: []OrderItem{
			{Name: "Custom sign", Quantity: 2, UnitPrice: money(t, 5_000_000), Customized: true},
		},
		RequiredDeliveryDate: time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PaymentUnpaid, order.PaymentStatus)
	require.Equal(t, int64(5_000_000), order.DownPaymentAmount.Amount())
	require.Equal(t, "IDR", order.DownPaymentAmount.Currency())
	// base 7 + 2 for the customized item
	require.Equal(t, 9, order.Timeline.EstimatedDays)
	require.Len(t, order.Timeline.Milestones, 4)

	events := order.TakeEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(OrderCreated)
	require.True(t, ok)
	require.Equal(t, order.ID, created.OrderID)
	require.NotEqual(t, uuid.Nil, created.EventID)
	require.Empty(t, order.TakeEvents())
}

func TestCreateOrderValidation(t *testing.T) {
	base := CreateOrderInput{
		TenantID:             uuid.New(),
		CustomerID:           1,
		TotalAmount:          money(t, 1_000),
		Items:                []OrderItem{{Name: "x", Quantity: 1, UnitPrice: money(t, 1_000)}},
		RequiredDeliveryDate: time.Now().AddDate(0, 0, 10),
	}

	missingDate := base
	missingDate.RequiredDeliveryDate = time.Time{}
	_, err := CreateOrder(missingDate)
	require.ErrorIs(t, err, ErrValidation)

	noItems := base
	noItems.Items = nil
	_, err = CreateOrder(noItems)
	require.ErrorIs(t, err, ErrValidation)

	badQty := base
	badQty.Items = []OrderItem{{Name: "x", Quantity: 0, UnitPrice: money(t, 1_000)}}
	_, err = CreateOrder(badQty)
	require.ErrorIs(t, err, ErrValidation)
}

func TestEstimateProductionDaysClamps(t *testing.T) {
	// 7 base + 2*8 customized + bulk days, clamped to 30.
	items := make([]OrderItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, OrderItem{Quantity: 200, Customized: true})
	}
	require.Equal(t, 30, estimateProductionDays(items))
	require.Equal(t, 7, estimateProductionDays([]OrderItem{{Quantity: 5}}))
	// quantity 25 adds ceil(25/10)=3 days
	require.Equal(t, 10, estimateProductionDays([]OrderItem{{Quantity: 25}}))
}

func TestAssignVendor(t *testing.T) {
	order := newTestOrder(t, 10_000_000)
	order.TakeEvents()

	require.NoError(t, order.ChangeStatus(StatusVendorSourcing, ""))
	require.True(t, order.CanAssignVendor())

	require.NoError(t, order.AssignVendor(9, money(t, 7_000_000)))
	require.Equal(t, StatusVendorNegotiation, order.Status)
	require.NotNil(t, order.VendorID)
	require.Equal(t, int64(9), *order.VendorID)
	require.Equal(t, int64(7_000_000), order.Metadata["vendor_quote"])

	events := order.TakeEvents()
	require.Len(t, events, 2) // status change + vendor assigned
	assigned, ok := events[1].(VendorAssigned)
	require.True(t, ok)
	require.Equal(t, int64(9), assigned.VendorID)
}

func TestAssignVendorRejectedOutsideAllowedStatuses(t *testing.T) {
	order := newTestOrder(t, 10_000_000)
	drainTo(t, order, StatusCustomerQuote, StatusVendorSourcing, StatusVendorNegotiation)

	err := order.AssignVendor(9, money(t, 7_000_000))
	require.ErrorIs(t, err, ErrInvalidVendorAssignment)
	var assignErr *VendorAssignmentError
	require.ErrorAs(t, err, &assignErr)
	require.Equal(t, StatusCustomerQuote, assignErr.Status)
	require.Nil(t, order.VendorID)
}

func TestRecordPaymentFlow(t *testing.T) {
	order := newTestOrder(t, 10_000_000_00)
	drainTo(t, order, StatusAwaitingPayment, StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote)
	order.TakeEvents()

	require.NoError(t, order.RecordPayment(money(t, 5_000_000_00), "bank_transfer", "PAY-1", "down_payment"))
	require.Equal(t, PaymentPartiallyPaid, order.PaymentStatus)
	require.Equal(t, StatusPartialPayment, order.Status)
	require.Equal(t, int64(5_000_000_00), order.RemainingAmount().Amount())

	require.NoError(t, order.RecordPayment(money(t, 5_000_000_00), "bank_transfer", "PAY-2", "settlement"))
	require.Equal(t, PaymentPaid, order.PaymentStatus)
	require.Equal(t, StatusFullPayment, order.Status)
	require.True(t, order.RemainingAmount().IsZero())

	events := order.TakeEvents()
	// two payments, each followed by an automatic status change
	require.Len(t, events, 4)
	_, ok := events[0].(PaymentReceived)
	require.True(t, ok)
	change, ok := events[1].(OrderStatusChanged)
	require.True(t, ok)
	require.Equal(t, StatusAwaitingPayment, change.Previous)
	require.Equal(t, StatusPartialPayment, change.Current)
}

func TestApplyCustomerQuoteStoresSnapshot(t *testing.T) {
	order := newTestOrder(t, 10_000_000)
	drainTo(t, order, StatusVendorSourcing)
	require.NoError(t, order.AssignVendor(9, money(t, 6_000_000)))

	cost, ok := order.VendorQuote()
	require.True(t, ok)
	require.Equal(t, int64(6_000_000), cost.Amount())

	structure, err := pricing.BuildStructure(pricing.StructureInput{
		MaterialCost: cost,
		LaborCost:    shared.ZeroMoney("IDR"),
		Complexity:   pricing.ComplexityFromRequirements(order.Requirements()),
		Strategy:     pricing.NewStrategyForCustomer(pricing.TierCorporate),
		TaxBP:        1_100,
	})
	require.NoError(t, err)
	order.TakeEvents()

	require.NoError(t, order.ApplyCustomerQuote(structure, pricing.StrategyCorporate))
	require.Equal(t, StatusCustomerQuote, order.Status)
	require.Equal(t, structure.FinalPrice.Amount(), order.Metadata["customer_quote"])
	require.Equal(t, pricing.StrategyCorporate, order.Metadata["customer_quote_strategy"])

	events := order.TakeEvents()
	require.Len(t, events, 1)
	quoted, ok := events[0].(CustomerQuoted)
	require.True(t, ok)
	require.Equal(t, structure.FinalPrice.Amount(), quoted.FinalPrice)
	require.Equal(t, structure.BaseCost.Amount(), quoted.BaseCost)

	// Quoting is only allowed from negotiation.
	err = order.ApplyCustomerQuote(structure, pricing.StrategyCorporate)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordPaymentGuards(t *testing.T) {
	order := newTestOrder(t, 100_000_00)
	drainTo(t, order, StatusAwaitingPayment, StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote)
	order.TakeEvents()

	// Over-limit payment leaves every field untouched.
	err := order.RecordPayment(money(t, 150_000_00), "bank_transfer", "PAY-X", "")
	require.ErrorIs(t, err, ErrInvalidPaymentAmount)
	var payErr *PaymentAmountError
	require.ErrorAs(t, err, &payErr)
	require.Equal(t, int64(100_000_00), payErr.Remaining)
	require.Equal(t, PaymentUnpaid, order.PaymentStatus)
	require.Equal(t, StatusAwaitingPayment, order.Status)
	require.True(t, order.TotalPaidAmount.IsZero())
	require.Empty(t, order.TakeEvents())

	// Zero payment rejected.
	err = order.RecordPayment(money(t, 0), "bank_transfer", "PAY-Y", "")
	require.ErrorIs(t, err, ErrInvalidPaymentAmount)

	// Currency mismatch rejected.
	usd, _ := shared.NewMoney(50, "USD")
	err = order.RecordPayment(usd, "bank_transfer", "PAY-Z", "")
	require.ErrorIs(t, err, shared.ErrCurrencyMismatch)
}

func TestPaidAmountNeverExceedsTotal(t *testing.T) {
	order := newTestOrder(t, 100_000)
	drainTo(t, order, StatusAwaitingPayment, StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote)

	payments := []int64{30_000, 30_000, 30_000, 30_000}
	for _, amount := range payments {
		err := order.RecordPayment(money(t, amount), "cash", "", "")
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidPaymentAmount)
		}
		require.LessOrEqual(t, order.TotalPaidAmount.Amount(), order.TotalAmount.Amount())
		require.Equal(t,
			derivePaymentStatus(order.TotalPaidAmount.Amount(), order.TotalAmount.Amount()),
			order.PaymentStatus)
	}
	// Fully settled orders accept no further payments, reported as a
	// state problem rather than a bad amount.
	require.NoError(t, order.RecordPayment(money(t, 10_000), "cash", "", ""))
	require.Equal(t, PaymentPaid, order.PaymentStatus)
	err := order.RecordPayment(money(t, 1), "cash", "", "")
	require.ErrorIs(t, err, ErrPaymentNotAccepted)
	var stateErr *PaymentStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, PaymentPaid, stateErr.PaymentStatus)
}

func TestChangeStatusRejectsUnknownTransition(t *testing.T) {
	order := newTestOrder(t, 100_000)

	err := order.ChangeStatus(StatusCompleted, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	var transErr *TransitionError
	require.ErrorAs(t, err, &transErr)
	require.Equal(t, StatusPending, transErr.From)
	require.Equal(t, StatusCompleted, transErr.To)
	require.Equal(t, StatusPending, order.Status)
}

func TestStatusTransitionsDriveTimeline(t *testing.T) {
	order := newTestOrder(t, 10_000_000)
	drainTo(t, order, StatusFullPayment,
		StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote, StatusAwaitingPayment)
	require.Equal(t, 0, order.ProgressPercent())

	require.NoError(t, order.ChangeStatus(StatusInProduction, ""))
	require.Equal(t, 25, order.ProgressPercent())

	require.NoError(t, order.ChangeStatus(StatusQualityControl, ""))
	require.Equal(t, 50, order.ProgressPercent())

	require.NoError(t, order.ChangeStatus(StatusShipping, ""))
	require.Equal(t, 75, order.ProgressPercent())

	require.NoError(t, order.ChangeStatus(StatusCompleted, "delivered"))
	require.Equal(t, 100, order.ProgressPercent())
}

func TestIsOverdue(t *testing.T) {
	order := newTestOrder(t, 10_000_000)
	due := order.RequiredDeliveryDate

	require.False(t, order.IsOverdue(due.AddDate(0, 0, -1)))
	require.True(t, order.IsOverdue(due.AddDate(0, 0, 1)))

	drainTo(t, order, StatusCancelled)
	require.False(t, order.IsOverdue(due.AddDate(0, 0, 1)))
}
