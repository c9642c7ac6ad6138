package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/karsa-mfg/karsa/internal/refunds"
)

// DefaultStaleAfter bounds how long a refund may sit on one approver before
// the sweep flags it.
const DefaultStaleAfter = 72 * time.Hour

// StaleLister is the slice of the refund service the sweep needs.
type StaleLister interface {
	ListStale(ctx context.Context, olderThan time.Time) ([]*refunds.RefundRequest, error)
}

// RefundStaleScanJob sweeps refund requests stuck in the approval chain and
// logs them so finance can chase the pending approver.
type RefundStaleScanJob struct {
	Service    StaleLister
	Logger     *slog.Logger
	StaleAfter time.Duration
	clock      func() time.Time
}

// NewRefundStaleScanJob initialises the stale refund scan handler.
func NewRefundStaleScanJob(service StaleLister, logger *slog.Logger, staleAfter time.Duration) *RefundStaleScanJob {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &RefundStaleScanJob{
		Service:    service,
		Logger:     logger,
		StaleAfter: staleAfter,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the scan.
func (j *RefundStaleScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("refund stale scan: handler not configured")
	}
	var payload RefundStaleScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := payload.OlderThan
	if olderThan <= 0 {
		olderThan = j.StaleAfter
	}
	cutoff := j.clock().Add(-olderThan)

	stale, err := j.Service.ListStale(ctx, cutoff)
	if err != nil {
		j.Logger.Error("refund stale scan failed", slog.Any("error", err))
		return err
	}
	for _, req := range stale {
		logger := j.Logger.With(
			slog.String("refund_id", req.ID.String()),
			slog.String("tenant_id", req.TenantID.String()),
			slog.String("number", req.Number),
			slog.Time("last_touched", req.UpdatedAt),
		)
		if level, ok := req.CurrentLevel(); ok {
			logger = logger.With(
				slog.Int("pending_level", level.Level),
				slog.String("pending_role", level.Role),
			)
		}
		logger.Warn("refund approval stalled")
	}
	j.Logger.Info("refund stale scan finished",
		slog.Time("cutoff", cutoff),
		slog.Int("stale", len(stale)),
	)
	return nil
}
