package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/karsa-mfg/karsa/internal/orders"
	"github.com/karsa-mfg/karsa/internal/refunds"
)

type fakeOverdueLister struct {
	asOf   time.Time
	result []*orders.PurchaseOrder
	err    error
}

func (f *fakeOverdueLister) ListOverdue(_ context.Context, asOf time.Time) ([]*orders.PurchaseOrder, error) {
	f.asOf = asOf
	return f.result, f.err
}

type fakeStaleLister struct {
	olderThan time.Time
	result    []*refunds.RefundRequest
	err       error
}

func (f *fakeStaleLister) ListStale(_ context.Context, olderThan time.Time) ([]*refunds.RefundRequest, error) {
	f.olderThan = olderThan
	return f.result, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOrderSLAScanUsesPayloadAsOf(t *testing.T) {
	lister := &fakeOverdueLister{}
	job := NewOrderSLAScanJob(lister, discardLogger())

	asOf := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task, err := NewOrderSLAScanTask(OrderSLAScanPayload{AsOf: asOf})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.True(t, lister.asOf.Equal(asOf))
}

func TestOrderSLAScanDefaultsToClock(t *testing.T) {
	lister := &fakeOverdueLister{}
	job := NewOrderSLAScanJob(lister, discardLogger())
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewOrderSLAScanTask(OrderSLAScanPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.True(t, lister.asOf.Equal(now))
}

func TestOrderSLAScanSkipsRetryOnBadPayload(t *testing.T) {
	job := NewOrderSLAScanJob(&fakeOverdueLister{}, discardLogger())
	task := asynq.NewTask(TaskOrderSLAScan, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRefundStaleScanCutoff(t *testing.T) {
	lister := &fakeStaleLister{}
	job := NewRefundStaleScanJob(lister, discardLogger(), 48*time.Hour)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewRefundStaleScanTask(RefundStaleScanPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.True(t, lister.olderThan.Equal(now.Add(-48*time.Hour)))
}

func TestRefundStaleScanPayloadOverridesWindow(t *testing.T) {
	lister := &fakeStaleLister{}
	job := NewRefundStaleScanJob(lister, discardLogger(), 0)
	require.Equal(t, DefaultStaleAfter, job.StaleAfter)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewRefundStaleScanTask(RefundStaleScanPayload{OlderThan: 6 * time.Hour})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.True(t, lister.olderThan.Equal(now.Add(-6*time.Hour)))
}
