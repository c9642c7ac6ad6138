package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository provides PostgreSQL backed vendor persistence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const vendorColumns = `id, tenant_id, code, name, email, phone, address,
capabilities, lead_time_days, rating, is_active, created_at, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, tenantID uuid.UUID, vendorID int64) (Vendor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors
WHERE id = $1 AND tenant_id = $2`, vendorID, tenantID)
	vendor, err := scanVendor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrNotFound
		}
		return Vendor{}, err
	}
	return vendor, nil
}

func (r *PostgresRepository) List(ctx context.Context, tenantID uuid.UUID, onlyActive bool, limit, offset int) ([]Vendor, int, error) {
	where := `tenant_id = $1`
	args := []any{tenantID}
	if onlyActive {
		where += ` AND is_active`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vendors WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM vendors WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		vendorColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

func (r *PostgresRepository) Create(ctx context.Context, vendor Vendor) (Vendor, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO vendors
(tenant_id, code, name, email, phone, address, capabilities, lead_time_days, rating, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
RETURNING id, created_at, updated_at`,
		vendor.TenantID, vendor.Code, vendor.Name, vendor.Email, vendor.Phone, vendor.Address,
		vendor.Capabilities, vendor.LeadTimeDays, vendor.Rating, vendor.IsActive,
	).Scan(&vendor.ID, &vendor.CreatedAt, &vendor.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Vendor{}, fmt.Errorf("%w: %s", ErrDuplicateCode, vendor.Code)
		}
		return Vendor{}, err
	}
	return vendor, nil
}

func (r *PostgresRepository) Update(ctx context.Context, vendor Vendor) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET
code=$3, name=$4, email=$5, phone=$6, address=$7, capabilities=$8,
lead_time_days=$9, rating=$10, updated_at=NOW()
WHERE id = $1 AND tenant_id = $2`,
		vendor.ID, vendor.TenantID, vendor.Code, vendor.Name, vendor.Email, vendor.Phone,
		vendor.Address, vendor.Capabilities, vendor.LeadTimeDays, vendor.Rating)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, vendor.Code)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, tenantID uuid.UUID, vendorID int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET is_active=$3, updated_at=NOW()
WHERE id = $1 AND tenant_id = $2`, vendorID, tenantID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (Vendor, error) {
	var vendor Vendor
	err := row.Scan(&vendor.ID, &vendor.TenantID, &vendor.Code, &vendor.Name,
		&vendor.Email, &vendor.Phone, &vendor.Address, &vendor.Capabilities,
		&vendor.LeadTimeDays, &vendor.Rating, &vendor.IsActive,
		&vendor.CreatedAt, &vendor.UpdatedAt)
	return vendor, err
}
