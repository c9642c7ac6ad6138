package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository describes vendor persistence.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, vendorID int64) (Vendor, error)
	List(ctx context.Context, tenantID uuid.UUID, onlyActive bool, limit, offset int) ([]Vendor, int, error)
	Create(ctx context.Context, vendor Vendor) (Vendor, error)
	Update(ctx context.Context, vendor Vendor) error
	SetActive(ctx context.Context, tenantID uuid.UUID, vendorID int64, active bool) error
}

// Service manages the vendor registry.
type Service struct {
	repo Repository
}

// NewService constructs the vendor service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads one vendor scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, vendorID int64) (Vendor, error) {
	if vendorID <= 0 {
		return Vendor{}, fmt.Errorf("%w: vendor id", ErrValidation)
	}
	return s.repo.Get(ctx, tenantID, vendorID)
}

// Exists reports whether an active vendor is registered under the tenant.
// The order service consults this before assignment.
func (s *Service) Exists(ctx context.Context, tenantID uuid.UUID, vendorID int64) (bool, error) {
	vendor, err := s.Get(ctx, tenantID, vendorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return vendor.IsActive, nil
}

// List returns a page of tenant vendors.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, onlyActive bool, limit, offset int) ([]Vendor, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, tenantID, onlyActive, limit, offset)
}

// FindCapable returns active vendors covering every required capability.
func (s *Service) FindCapable(ctx context.Context, tenantID uuid.UUID, required []string) ([]Vendor, error) {
	all, _, err := s.repo.List(ctx, tenantID, true, 100, 0)
	if err != nil {
		return nil, err
	}
	var capable []Vendor
	for _, v := range all {
		if v.CanProduce(required) {
			capable = append(capable, v)
		}
	}
	return capable, nil
}

// Create registers a vendor.
func (s *Service) Create(ctx context.Context, vendor Vendor) (Vendor, error) {
	if err := vendor.Validate(); err != nil {
		return Vendor{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	vendor.IsActive = true
	return s.repo.Create(ctx, vendor)
}

// Update rewrites the vendor master record.
func (s *Service) Update(ctx context.Context, vendor Vendor) error {
	if vendor.ID <= 0 {
		return fmt.Errorf("%w: vendor id", ErrValidation)
	}
	if err := vendor.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return s.repo.Update(ctx, vendor)
}

// Deactivate retires a vendor without losing its history.
func (s *Service) Deactivate(ctx context.Context, tenantID uuid.UUID, vendorID int64) error {
	if vendorID <= 0 {
		return fmt.Errorf("%w: vendor id", ErrValidation)
	}
	return s.repo.SetActive(ctx, tenantID, vendorID, false)
}

// Activate re-enables a retired vendor.
func (s *Service) Activate(ctx context.Context, tenantID uuid.UUID, vendorID int64) error {
	if vendorID <= 0 {
		return fmt.Errorf("%w: vendor id", ErrValidation)
	}
	return s.repo.SetActive(ctx, tenantID, vendorID, true)
}
