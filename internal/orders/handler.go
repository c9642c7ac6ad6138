package orders

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

// Handler wires HTTP endpoints for the order lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/vendor", h.handleAssignVendor)
	r.Post("/{id}/quote", h.handleQuoteCustomer)
	r.Post("/{id}/payments", h.handleRecordPayment)
	r.Post("/{id}/status", h.handleChangeStatus)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in, err := h.buildCreateInput(tenantID, req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) buildCreateInput(tenantID uuid.UUID, req createOrderRequest) (CreateOrderInput, error) {
	total, err := shared.NewMoney(req.TotalAmount, req.Currency)
	if err != nil {
		return CreateOrderInput{}, err
	}
	items := make([]OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := shared.NewMoney(item.UnitPrice, req.Currency)
		if err != nil {
			return CreateOrderInput{}, err
		}
		items = append(items, OrderItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPrice:      price,
			Customized:     item.Customized,
			Specifications: item.Specifications,
		})
	}
	in := CreateOrderInput{
		TenantID:             tenantID,
		CustomerID:           req.CustomerID,
		Number:               req.Number,
		TotalAmount:          total,
		Items:                items,
		RequiredDeliveryDate: req.RequiredDeliveryDate,
		Specifications:       req.Specifications,
	}
	if req.ShippingAddress != nil {
		if in.ShippingAddress, err = req.ShippingAddress.toDomain(); err != nil {
			return CreateOrderInput{}, err
		}
	}
	if req.BillingAddress != nil {
		if in.BillingAddress, err = req.BillingAddress.toDomain(); err != nil {
			return CreateOrderInput{}, err
		}
	}
	return in, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), tenantID, orderID)
	if err != nil {
		h.respondError(w, r, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), tenantID, shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.respondError(w, r, "list orders", err)
		return
	}
	out := make([]orderResponse, 0, len(items))
	for _, order := range items {
		out = append(out, toOrderResponse(order))
	}
	httpx.JSON(w, http.StatusOK, orderListResponse{
		Items:      out,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      pagination.Total,
		TotalPages: pagination.TotalPages,
	})
}

func (h *Handler) handleAssignVendor(w http.ResponseWriter, r *http.Request) {
	tenantID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req assignVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	quote, err := shared.NewMoney(req.QuoteAmount, req.Currency)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.AssignVendor(r.Context(), tenantID, orderID, req.VendorID, quote)
	if err != nil {
		h.respondError(w, r, "assign vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleQuoteCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req customerQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, quote, err := h.service.QuoteCustomer(r.Context(), tenantID, orderID, QuoteInput{
		CustomerTier: req.CustomerTier,
		DiscountBP:   req.DiscountBP,
		TaxBP:        req.TaxBP,
	})
	if err != nil {
		h.respondError(w, r, "quote customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCustomerQuoteResponse(order, quote))
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := shared.NewMoney(req.Amount, req.Currency)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.RecordPayment(r.Context(), tenantID, orderID, PaymentInput{
		Amount:    amount,
		Method:    req.Method,
		Reference: req.Reference,
		Kind:      req.Kind,
	})
	if err != nil {
		h.respondError(w, r, "record payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, orderID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	target, ok := ParseOrderStatus(req.Status)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+req.Status)
		return
	}
	order, err := h.service.ChangeStatus(r.Context(), tenantID, orderID, target, req.Reason)
	if err != nil {
		h.respondError(w, r, "change status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, orderID, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTenantMismatch):
		// Tenant mismatch reads as not-found so order IDs do not leak
		// across tenants.
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidVendorAssignment),
		errors.Is(err, ErrInvalidPaymentAmount),
		errors.Is(err, ErrPaymentNotAccepted):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, shared.ErrCurrencyMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Reference", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
