package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/karsa-mfg/karsa/internal/orders"
)

// OverdueLister is the slice of the order service the sweep needs.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]*orders.PurchaseOrder, error)
}

// OrderSLAScanJob sweeps active orders whose required delivery date has
// passed and logs them for the operations team.
type OrderSLAScanJob struct {
	Service OverdueLister
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewOrderSLAScanJob initialises the SLA scan handler.
func NewOrderSLAScanJob(service OverdueLister, logger *slog.Logger) *OrderSLAScanJob {
	return &OrderSLAScanJob{
		Service: service,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the scan.
func (j *OrderSLAScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("order sla scan: handler not configured")
	}
	var payload OrderSLAScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}

	overdue, err := j.Service.ListOverdue(ctx, asOf)
	if err != nil {
		j.Logger.Error("order sla scan failed", slog.Any("error", err))
		return err
	}
	for _, order := range overdue {
		j.Logger.Warn("order past delivery date",
			slog.String("order_id", order.ID.String()),
			slog.String("tenant_id", order.TenantID.String()),
			slog.String("number", order.Number),
			slog.String("status", string(order.Status)),
			slog.Time("required_delivery", order.RequiredDeliveryDate),
		)
	}
	j.Logger.Info("order sla scan finished",
		slog.Time("as_of", asOf),
		slog.Int("overdue", len(overdue)),
	)
	return nil
}
