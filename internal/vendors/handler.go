package vendors

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/platform/httpx"
	"github.com/karsa-mfg/karsa/internal/shared"
)

// Handler wires HTTP endpoints for the vendor registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers vendor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/deactivate", h.handleDeactivate)
	r.Post("/{id}/activate", h.handleActivate)
}

type vendorRequest struct {
	Code         string   `json:"code" validate:"required,max=32"`
	Name         string   `json:"name" validate:"required,max=255"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"omitempty,max=32"`
	Address      string   `json:"address" validate:"omitempty,max=500"`
	Capabilities []string `json:"capabilities" validate:"omitempty,dive,max=64"`
	LeadTimeDays int      `json:"lead_time_days" validate:"gte=0,lte=365"`
	Rating       int      `json:"rating" validate:"gte=0,lte=5"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	var req vendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vendor, err := h.service.Create(r.Context(), Vendor{
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Capabilities: req.Capabilities,
		LeadTimeDays: req.LeadTimeDays,
		Rating:       req.Rating,
	})
	if err != nil {
		h.respondError(w, r, "create vendor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vendor)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, vendorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	vendor, err := h.service.Get(r.Context(), tenantID, vendorID)
	if err != nil {
		h.respondError(w, r, "get vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	onlyActive := r.URL.Query().Get("active") == "true"

	if capability := r.URL.Query().Get("capability"); capability != "" {
		vendors, err := h.service.FindCapable(r.Context(), tenantID, []string{capability})
		if err != nil {
			h.respondError(w, r, "find capable vendors", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": vendors, "total": len(vendors)})
		return
	}

	vendors, total, err := h.service.List(r.Context(), tenantID, onlyActive, limit, offset)
	if err != nil {
		h.respondError(w, r, "list vendors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": vendors, "total": total})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tenantID, vendorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req vendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.service.Update(r.Context(), Vendor{
		ID:           vendorID,
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Capabilities: req.Capabilities,
		LeadTimeDays: req.LeadTimeDays,
		Rating:       req.Rating,
	})
	if err != nil {
		h.respondError(w, r, "update vendor", err)
		return
	}
	vendor, err := h.service.Get(r.Context(), tenantID, vendorID)
	if err != nil {
		h.respondError(w, r, "update vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	tenantID, vendorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var err error
	if active {
		err = h.service.Activate(r.Context(), tenantID, vendorID)
	} else {
		err = h.service.Deactivate(r.Context(), tenantID, vendorID)
	}
	if err != nil {
		h.respondError(w, r, "set vendor active", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, int64, bool) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return uuid.Nil, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "vendor id must be a positive integer")
		return uuid.Nil, 0, false
	}
	return tenant, id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "vendor not found")
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
