package refunds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karsa-mfg/karsa/internal/platform/db"
	"github.com/karsa-mfg/karsa/internal/shared"
)

// ErrDuplicateNumber indicates a refund number already used within the tenant.
var ErrDuplicateNumber = errors.New("refunds: refund number already exists")

// Repository provides PostgreSQL backed persistence for refund requests.
// The approval chain and verdict history travel as JSONB documents. A
// partial unique index on (order_id) WHERE status NOT IN ('REJECTED',
// 'COMPLETED') backs the one-active-refund-per-order rule.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const refundColumns = `id, tenant_id, order_id, number, refund_type, amount, currency,
category, description, impact, status, chain, assignees, current_index, round,
approvals, failure_reason, requested_by, created_at, updated_at`

// Get loads one refund; tenant mismatches surface as ErrTenantMismatch.
func (r *Repository) Get(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE id = $1`, refundID)
	req, err := scanRefund(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	return req, nil
}

// GetActiveByOrder returns the open refund on the order, if any.
func (r *Repository) GetActiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*RefundRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+refundColumns+` FROM refund_requests
WHERE tenant_id = $1 AND order_id = $2 AND status NOT IN ('REJECTED','COMPLETED')`, tenantID, orderID)
	req, err := scanRefund(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// List returns a page of tenant refunds, newest first, optionally filtered
// by status.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, status RefundStatus, limit, offset int) ([]*RefundRequest, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, string(status))
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refund_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM refund_requests WHERE %s
ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, refundColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	refunds, err := collectRefunds(rows)
	if err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

// ListStale returns refunds in the given status untouched since olderThan,
// across tenants, for the escalation scan.
func (r *Repository) ListStale(ctx context.Context, status RefundStatus, olderThan time.Time) ([]*RefundRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+refundColumns+` FROM refund_requests
WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`, string(status), olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRefunds(rows)
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) Insert(ctx context.Context, req *RefundRequest) error {
	docs, err := marshalRefundDocs(req)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO refund_requests (`+refundColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		req.ID, req.TenantID, req.OrderID, req.Number, string(req.Type),
		req.Amount.Amount(), req.Amount.Currency(),
		string(req.Category), req.Description, docs.impact, string(req.Status),
		docs.chain, docs.assignees, req.CurrentIndex, req.Round, docs.approvals,
		req.FailureReason, req.RequestedBy, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "refund_requests_active_order_idx" {
				return fmt.Errorf("%w: order %s", ErrDuplicateActive, req.OrderID)
			}
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, req.Number)
		}
		return err
	}
	return nil
}

func (t *txRepo) Update(ctx context.Context, req *RefundRequest) error {
	docs, err := marshalRefundDocs(req)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE refund_requests SET
refund_type=$2, amount=$3, category=$4, description=$5, impact=$6, status=$7,
chain=$8, assignees=$9, current_index=$10, round=$11, approvals=$12, failure_reason=$13, updated_at=$14
WHERE id = $1`,
		req.ID, string(req.Type), req.Amount.Amount(), string(req.Category), req.Description,
		docs.impact, string(req.Status), docs.chain, docs.assignees, req.CurrentIndex, req.Round,
		docs.approvals, req.FailureReason, req.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type refundDocs struct {
	impact    []byte
	chain     []byte
	assignees []byte
	approvals []byte
}

type impactDoc struct {
	RefundableAmount      int64      `json:"refundable_amount"`
	RecoverableFromVendor int64      `json:"recoverable_from_vendor"`
	NetCompanyImpact      int64      `json:"net_company_impact"`
	QualityIssuePercent   int        `json:"quality_issue_percent"`
	FaultParty            FaultParty `json:"fault_party"`
}

type chainLevelDoc struct {
	Level      int    `json:"level"`
	Role       string `json:"role"`
	ApproverID int64  `json:"approver_id"`
	Required   bool   `json:"required"`
}

type approvalDoc struct {
	Round      int       `json:"round"`
	Level      int       `json:"level"`
	Role       string    `json:"role"`
	ApproverID int64     `json:"approver_id,omitempty"`
	Decision   Decision  `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

func marshalRefundDocs(req *RefundRequest) (refundDocs, error) {
	chain := make([]chainLevelDoc, 0, len(req.Chain))
	for _, l := range req.Chain {
		chain = append(chain, chainLevelDoc{Level: l.Level, Role: l.Role, ApproverID: l.ApproverID, Required: l.Required})
	}
	approvals := make([]approvalDoc, 0, len(req.Approvals))
	for _, a := range req.Approvals {
		approvals = append(approvals, approvalDoc{
			Round: a.Round, Level: a.Level, Role: a.Role, ApproverID: a.ApproverID,
			Decision: a.Decision, Comment: a.Comment, DecidedAt: a.DecidedAt,
		})
	}
	var docs refundDocs
	var err error
	if docs.impact, err = json.Marshal(impactDoc(req.Impact)); err != nil {
		return refundDocs{}, err
	}
	if docs.chain, err = json.Marshal(chain); err != nil {
		return refundDocs{}, err
	}
	if docs.assignees, err = json.Marshal(req.Assignees); err != nil {
		return refundDocs{}, err
	}
	if docs.approvals, err = json.Marshal(approvals); err != nil {
		return refundDocs{}, err
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefund(row rowScanner) (*RefundRequest, error) {
	var (
		req                   RefundRequest
		refundType            string
		amount                int64
		currency              string
		category, status      string
		impactJSON, chainJSON []byte
		assigneesJSON         []byte
		approvalsJSON         []byte
	)
	if err := row.Scan(&req.ID, &req.TenantID, &req.OrderID, &req.Number, &refundType,
		&amount, &currency, &category, &req.Description, &impactJSON, &status,
		&chainJSON, &assigneesJSON, &req.CurrentIndex, &req.Round, &approvalsJSON,
		&req.FailureReason, &req.RequestedBy, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.Type = RefundType(refundType)
	req.Category = ReasonCategory(category)
	req.Status = RefundStatus(status)

	var err error
	if req.Amount, err = shared.NewMoney(amount, currency); err != nil {
		return nil, err
	}
	var impact impactDoc
	if err := json.Unmarshal(impactJSON, &impact); err != nil {
		return nil, err
	}
	req.Impact = FinancialImpact(impact)

	var chain []chainLevelDoc
	if err := json.Unmarshal(chainJSON, &chain); err != nil {
		return nil, err
	}
	req.Chain = make([]ChainLevel, 0, len(chain))
	for _, l := range chain {
		req.Chain = append(req.Chain, ChainLevel{Level: l.Level, Role: l.Role, ApproverID: l.ApproverID, Required: l.Required})
	}
	if err := json.Unmarshal(assigneesJSON, &req.Assignees); err != nil {
		return nil, err
	}
	var approvals []approvalDoc
	if err := json.Unmarshal(approvalsJSON, &approvals); err != nil {
		return nil, err
	}
	req.Approvals = make([]Approval, 0, len(approvals))
	for _, a := range approvals {
		req.Approvals = append(req.Approvals, Approval{
			Round: a.Round, Level: a.Level, Role: a.Role, ApproverID: a.ApproverID,
			Decision: a.Decision, Comment: a.Comment, DecidedAt: a.DecidedAt,
		})
	}
	return &req, nil
}

// ErrNoApprover indicates a tenant has no approver configured for a role.
var ErrNoApprover = errors.New("refunds: no approver assigned for role")

// Directory resolves approver assignments from the approver_assignments
// table (one row per tenant and role).
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Assignee returns the approver user for the role within the tenant.
func (d *Directory) Assignee(ctx context.Context, tenantID uuid.UUID, role string) (int64, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT approver_id FROM approver_assignments WHERE tenant_id = $1 AND role = $2`,
		tenantID, role)
	var approverID int64
	if err := row.Scan(&approverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrNoApprover, role)
		}
		return 0, err
	}
	return approverID, nil
}

func collectRefunds(rows pgx.Rows) ([]*RefundRequest, error) {
	var refunds []*RefundRequest
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refunds, nil
}
