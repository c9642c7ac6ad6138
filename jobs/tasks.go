// Package jobs holds the background task definitions and the Asynq worker
// wiring for the Karsa platform.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue for periodic maintenance scans.
	QueueDefault = "default"
	// QueueNotify is the queue for fan-out of domain events.
	QueueNotify = "notify"

	// TaskOrderSLAScan flags active orders whose delivery date passed.
	TaskOrderSLAScan = "orders:sla_scan"
	// TaskRefundStaleScan flags refund requests stuck waiting on approvers.
	TaskRefundStaleScan = "refunds:stale_scan"
	// TaskNotifyEvent delivers a single domain event to downstream consumers.
	TaskNotifyEvent = "notify:event"
)

// NotifyEventPayload wraps a serialized domain event for delivery.
type NotifyEventPayload struct {
	Name  string          `json:"name"`
	Event json.RawMessage `json:"event"`
}

// NewNotifyEventTask constructs a notify task from an already-serialized event.
func NewNotifyEventTask(payload NotifyEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyEvent, data), nil
}

// OrderSLAScanPayload parameterizes an order SLA sweep. A zero AsOf means
// the handler uses its own clock.
type OrderSLAScanPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// NewOrderSLAScanTask constructs the periodic order SLA scan task.
func NewOrderSLAScanTask(payload OrderSLAScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSLAScan, data), nil
}

// RefundStaleScanPayload parameterizes a stale refund sweep.
type RefundStaleScanPayload struct {
	OlderThan time.Duration `json:"older_than,omitempty"`
}

// NewRefundStaleScanTask constructs the periodic stale refund scan task.
func NewRefundStaleScanTask(payload RefundStaleScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRefundStaleScan, data), nil
}
