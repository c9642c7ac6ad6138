package vendors

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the vendor does not exist.
	ErrNotFound = errors.New("vendors: vendor not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("vendors: invalid input")
	// ErrDuplicateCode indicates a vendor code already used within the tenant.
	ErrDuplicateCode = errors.New("vendors: vendor code already exists")
)

// Vendor is a manufacturing partner the platform can source orders to.
type Vendor struct {
	ID           int64     `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Capabilities []string  `json:"capabilities"`
	LeadTimeDays int       `json:"lead_time_days"`
	Rating       int       `json:"rating"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the writable vendor fields.
func (v Vendor) Validate() error {
	if v.TenantID == uuid.Nil {
		return errors.New("vendors: tenant required")
	}
	if strings.TrimSpace(v.Code) == "" {
		return errors.New("vendors: code required")
	}
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("vendors: name required")
	}
	if v.LeadTimeDays < 0 {
		return errors.New("vendors: lead time cannot be negative")
	}
	if v.Rating < 0 || v.Rating > 5 {
		return errors.New("vendors: rating must be between 0 and 5")
	}
	return nil
}

// CanProduce reports whether the vendor covers every required capability.
func (v Vendor) CanProduce(required []string) bool {
	if !v.IsActive {
		return false
	}
	have := make(map[string]struct{}, len(v.Capabilities))
	for _, c := range v.Capabilities {
		have[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range required {
		if _, ok := have[strings.ToLower(c)]; !ok {
			return false
		}
	}
	return true
}
