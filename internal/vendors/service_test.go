package vendors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryVendorRepo struct {
	mu      sync.Mutex
	nextID  int64
	vendors map[int64]Vendor
}

func newMemoryVendorRepo() *memoryVendorRepo {
	return &memoryVendorRepo{nextID: 1, vendors: map[int64]Vendor{}}
}

func (r *memoryVendorRepo) Get(_ context.Context, tenantID uuid.UUID, vendorID int64) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vendor, ok := r.vendors[vendorID]
	if !ok || vendor.TenantID != tenantID {
		return Vendor{}, ErrNotFound
	}
	return vendor, nil
}

func (r *memoryVendorRepo) List(_ context.Context, tenantID uuid.UUID, onlyActive bool, limit, offset int) ([]Vendor, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Vendor
	for _, v := range r.vendors {
		if v.TenantID != tenantID {
			continue
		}
		if onlyActive && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	total := len(out)
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memoryVendorRepo) Create(_ context.Context, vendor Vendor) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vendors {
		if v.TenantID == vendor.TenantID && v.Code == vendor.Code {
			return Vendor{}, ErrDuplicateCode
		}
	}
	vendor.ID = r.nextID
	r.nextID++
	vendor.CreatedAt = time.Now()
	vendor.UpdatedAt = vendor.CreatedAt
	r.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (r *memoryVendorRepo) Update(_ context.Context, vendor Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.vendors[vendor.ID]
	if !ok || existing.TenantID != vendor.TenantID {
		return ErrNotFound
	}
	vendor.IsActive = existing.IsActive
	vendor.CreatedAt = existing.CreatedAt
	vendor.UpdatedAt = time.Now()
	r.vendors[vendor.ID] = vendor
	return nil
}

func (r *memoryVendorRepo) SetActive(_ context.Context, tenantID uuid.UUID, vendorID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vendor, ok := r.vendors[vendorID]
	if !ok || vendor.TenantID != tenantID {
		return ErrNotFound
	}
	vendor.IsActive = active
	r.vendors[vendorID] = vendor
	return nil
}

func testVendor(tenantID uuid.UUID, code string, capabilities ...string) Vendor {
	return Vendor{
		TenantID:     tenantID,
		Code:         code,
		Name:         "CV Maju Presisi",
		Email:        "sales@majupresisi.example",
		Capabilities: capabilities,
		LeadTimeDays: 14,
		Rating:       4,
	}
}

func TestVendorCreateAndExists(t *testing.T) {
	svc := NewService(newMemoryVendorRepo())
	ctx := context.Background()
	tenantID := uuid.New()

	vendor, err := svc.Create(ctx, testVendor(tenantID, "VND-1", "cnc_machining"))
	require.NoError(t, err)
	require.True(t, vendor.IsActive)
	require.NotZero(t, vendor.ID)

	ok, err := svc.Exists(ctx, tenantID, vendor.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Unknown vendor and wrong tenant both read as absent.
	ok, err = svc.Exists(ctx, tenantID, 999)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = svc.Exists(ctx, uuid.New(), vendor.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVendorValidation(t *testing.T) {
	svc := NewService(newMemoryVendorRepo())
	ctx := context.Background()
	tenantID := uuid.New()

	bad := testVendor(tenantID, "")
	_, err := svc.Create(ctx, bad)
	require.ErrorIs(t, err, ErrValidation)

	bad = testVendor(tenantID, "VND-1")
	bad.Rating = 6
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeactivatedVendorNoLongerExists(t *testing.T) {
	svc := NewService(newMemoryVendorRepo())
	ctx := context.Background()
	tenantID := uuid.New()

	vendor, err := svc.Create(ctx, testVendor(tenantID, "VND-1"))
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, tenantID, vendor.ID))
	ok, err := svc.Exists(ctx, tenantID, vendor.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.Activate(ctx, tenantID, vendor.ID))
	ok, err = svc.Exists(ctx, tenantID, vendor.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFindCapable(t *testing.T) {
	svc := NewService(newMemoryVendorRepo())
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.Create(ctx, testVendor(tenantID, "VND-1", "cnc_machining", "anodizing"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, testVendor(tenantID, "VND-2", "injection_molding"))
	require.NoError(t, err)
	retired, err := svc.Create(ctx, testVendor(tenantID, "VND-3", "cnc_machining", "anodizing"))
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, tenantID, retired.ID))

	capable, err := svc.FindCapable(ctx, tenantID, []string{"cnc_machining", "anodizing"})
	require.NoError(t, err)
	require.Len(t, capable, 1)
	require.Equal(t, "VND-1", capable[0].Code)
}
