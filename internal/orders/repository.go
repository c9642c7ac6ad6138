package orders

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

// ErrDuplicateNumber indicates an order number already used within the tenant.
var ErrDuplicateNumber = errors.New("orders: order number already exists")

// Repository provides PostgreSQL backed persistence for purchase orders.
// Items, addresses, timeline and metadata travel as JSONB documents.
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

const orderColumns = `id, tenant_id, customer_id, vendor_id, number, status, payment_status,
total_amount, down_payment_amount, total_paid_amount, currency,
items, shipping_address, billing_address, required_delivery_date,
specifications, timeline, metadata, created_at, updated_at`

// GetOrder loads one order; tenant mismatches surface as ErrTenantMismatch.
func (r *Repository) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	return order, nil
}

// ListOrders returns a page of tenant orders, newest first.
func (r *Repository) ListOrders(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*PurchaseOrder, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOverdue returns active orders across tenants whose delivery date passed.
func (r *Repository) ListOverdue(ctx context.Context, asOf time.Time) ([]*PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
WHERE required_delivery_date < $1 AND status NOT IN ('COMPLETED','CANCELLED','REFUNDED')
ORDER BY required_delivery_date`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertOrder(ctx context.Context, order *PurchaseOrder) error {
	docs, err := marshalDocs(order)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		order.ID, order.TenantID, order.CustomerID, order.VendorID, order.Number,
		string(order.Status), string(order.PaymentStatus),
		order.TotalAmount.Amount(), order.DownPaymentAmount.Amount(), order.TotalPaidAmount.Amount(),
		order.TotalAmount.Currency(),
		docs.items, docs.shipping, docs.billing, order.RequiredDeliveryDate,
		docs.specifications, docs.timeline, docs.metadata, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, order.Number)
		}
		return err
	}
	return nil
}

func (t *txRepo) UpdateOrder(ctx context.Context, order *PurchaseOrder) error {
	docs, err := marshalDocs(order)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET
vendor_id=$2, status=$3, payment_status=$4, total_paid_amount=$5,
items=$6, timeline=$7, metadata=$8, updated_at=$9
WHERE id = $1`,
		order.ID, order.VendorID, string(order.Status), string(order.PaymentStatus),
		order.TotalPaidAmount.Amount(), docs.items, docs.timeline, docs.metadata, order.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type orderDocs struct {
	items          []byte
	shipping       []byte
	billing        []byte
	specifications []byte
	timeline       []byte
	metadata       []byte
}

// itemDoc mirrors OrderItem for JSONB storage.
type itemDoc struct {
	ProductID      int64             `json:"product_id"`
	Name           string            `json:"name"`
	Quantity       int               `json:"quantity"`
	UnitPrice      int64             `json:"unit_price"`
	Currency       string            `json:"currency"`
	Customized     bool              `json:"customized"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type milestoneDoc struct {
	Name        string     `json:"name"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type timelineDoc struct {
	StartAt       time.Time      `json:"start_at"`
	EstimatedDays int            `json:"estimated_days"`
	Milestones    []milestoneDoc `json:"milestones"`
}

func marshalDocs(order *PurchaseOrder) (orderDocs, error) {
	items := make([]itemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemDoc{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice.Amount(),
			Currency:       item.UnitPrice.Currency(),
			Customized:     item.Customized,
			Specifications: item.Specifications,
		})
	}
	milestones := make([]milestoneDoc, 0, len(order.Timeline.Milestones))
	for _, m := range order.Timeline.Milestones {
		milestones = append(milestones, milestoneDoc{Name: m.Name, DueAt: m.DueAt, CompletedAt: m.CompletedAt})
	}
	var docs orderDocs
	var err error
	if docs.items, err = json.Marshal(items); err != nil {
		return orderDocs{}, err
	}
	if docs.shipping, err = json.Marshal(order.ShippingAddress); err != nil {
		return orderDocs{}, err
	}
	if docs.billing, err = json.Marshal(order.BillingAddress); err != nil {
		return orderDocs{}, err
	}
	if docs.specifications, err = json.Marshal(order.Specifications); err != nil {
		return orderDocs{}, err
	}
	if docs.timeline, err = json.Marshal(timelineDoc{
		StartAt:       order.Timeline.StartAt,
		EstimatedDays: order.Timeline.EstimatedDays,
		Milestones:    milestones,
	}); err != nil {
		return orderDocs{}, err
	}
	if docs.metadata, err = json.Marshal(order.Metadata); err != nil {
		return orderDocs{}, err
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*PurchaseOrder, error) {
	var (
		order                    PurchaseOrder
		totalAmount, downPayment int64
		paidAmount               int64
		currency                 string
		status, paymentStatus    string
		itemsJSON, shippingJSON  []byte
		billingJSON, specsJSON   []byte
		timelineJSON, metaJSON   []byte
	)
	if err := row.Scan(&order.ID, &order.TenantID, &order.CustomerID, &order.VendorID,
		&order.Number, &status, &paymentStatus,
		&totalAmount, &downPayment, &paidAmount, &currency,
		&itemsJSON, &shippingJSON, &billingJSON, &order.RequiredDeliveryDate,
		&specsJSON, &timelineJSON, &metaJSON, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	order.Status = OrderStatus(status)
	order.PaymentStatus = PaymentStatus(paymentStatus)

	var err error
	if order.TotalAmount, err = shared.NewMoney(totalAmount, currency); err != nil {
		return nil, err
	}
	if order.DownPaymentAmount, err = shared.NewMoney(downPayment, currency); err != nil {
		return nil, err
	}
	if order.TotalPaidAmount, err = shared.NewMoney(paidAmount, currency); err != nil {
		return nil, err
	}

	var items []itemDoc
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, err
	}
	order.Items = make([]OrderItem, 0, len(items))
	for _, doc := range items {
		price, err := shared.NewMoney(doc.UnitPrice, doc.Currency)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, OrderItem{
			ProductID:      doc.ProductID,
			Name:           doc.Name,
			Quantity:       doc.Quantity,
			UnitPrice:      price,
			Customized:     doc.Customized,
			Specifications: doc.Specifications,
		})
	}
	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
		return nil, err
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &order.Specifications); err != nil {
			return nil, err
		}
	}
	var timeline timelineDoc
	if err := json.Unmarshal(timelineJSON, &timeline); err != nil {
		return nil, err
	}
	order.Timeline = Timeline{StartAt: timeline.StartAt, EstimatedDays: timeline.EstimatedDays}
	for _, m := range timeline.Milestones {
		order.Timeline.Milestones = append(order.Timeline.Milestones, Milestone{
			Name: m.Name, DueAt: m.DueAt, CompletedAt: m.CompletedAt,
		})
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &order.Metadata); err != nil {
			return nil, err
		}
	}
	if order.Metadata == nil {
		order.Metadata = map[string]any{}
	}
	return &order, nil
}

func collectOrders(rows pgx.Rows) ([]*PurchaseOrder, error) {
	var orders []*PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
