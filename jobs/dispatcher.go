package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/karsa-mfg/karsa/internal/orders"
	"github.com/karsa-mfg/karsa/internal/refunds"
)

// OrderEventDispatcher forwards drained order events onto the notify queue.
type OrderEventDispatcher struct {
	client *Client
	logger *slog.Logger
}

// NewOrderEventDispatcher wires the order service into the job queue.
func NewOrderEventDispatcher(client *Client, logger *slog.Logger) *OrderEventDispatcher {
	return &OrderEventDispatcher{client: client, logger: logger}
}

// Dispatch enqueues one notify task per event. Delivery is at-least-once;
// consumers deduplicate on the event ID inside the payload.
func (d *OrderEventDispatcher) Dispatch(ctx context.Context, events []orders.Event) error {
	for _, ev := range events {
		if err := d.client.EnqueueEvent(ctx, ev.EventName(), ev); err != nil {
			return fmt.Errorf("jobs: dispatch %s: %w", ev.EventName(), err)
		}
		d.logger.Debug("order event enqueued", slog.String("event", ev.EventName()))
	}
	return nil
}

// RefundEventDispatcher forwards drained refund events onto the notify queue.
type RefundEventDispatcher struct {
	client *Client
	logger *slog.Logger
}

// NewRefundEventDispatcher wires the refund service into the job queue.
func NewRefundEventDispatcher(client *Client, logger *slog.Logger) *RefundEventDispatcher {
	return &RefundEventDispatcher{client: client, logger: logger}
}

// Dispatch enqueues one notify task per event.
func (d *RefundEventDispatcher) Dispatch(ctx context.Context, events []refunds.Event) error {
	for _, ev := range events {
		if err := d.client.EnqueueEvent(ctx, ev.EventName(), ev); err != nil {
			return fmt.Errorf("jobs: dispatch %s: %w", ev.EventName(), err)
		}
		d.logger.Debug("refund event enqueued", slog.String("event", ev.EventName()))
	}
	return nil
}

// HandleNotifyEventTask processes TaskNotifyEvent tasks. Delivery targets
// (webhooks, e-mail) plug in here; for now the event is logged so operators
// can tail the notify queue.
func HandleNotifyEventTask(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyEventPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("domain event",
			slog.String("event", payload.Name),
			slog.String("payload", string(payload.Event)),
		)
		return nil
	}
}
