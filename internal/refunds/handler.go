package refunds

import (
	"context"
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

// Handler wires HTTP endpoints for the refund workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers refund routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Post("/{id}/decisions", h.handleDecision)
	r.Post("/{id}/processing", h.handleProcessing)
	r.Post("/{id}/complete", h.handleComplete)
	r.Post("/{id}/fail", h.handleFail)
	r.Post("/{id}/retry", h.handleRetry)
	r.Post("/{id}/abandon", h.handleAbandon)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	var req createRefundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	category, ok := ParseReasonCategory(req.Category)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown reason category "+req.Category)
		return
	}
	amount, err := shared.NewMoney(req.Amount, req.Currency)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	refund, err := h.service.Create(r.Context(), CreateRefundInput{
		TenantID:              tenantID,
		OrderID:               req.OrderID,
		Type:                  RefundType(req.Type),
		Amount:                amount,
		Category:              category,
		Description:           req.Description,
		FaultParty:            FaultParty(req.FaultParty),
		RecoverableFromVendor: req.RecoverableFromVendor,
		QualityIssuePercent:   req.QualityIssuePercent,
		RequestedBy:           req.RequestedBy,
	})
	if err != nil {
		h.respondError(w, r, "create refund", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRefundResponse(refund))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	refund, err := h.service.Get(r.Context(), tenantID, refundID)
	if err != nil {
		h.respondError(w, r, "get refund", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return
	}
	var status RefundStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := ParseRefundStatus(raw)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+raw)
			return
		}
		status = parsed
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), tenantID, status, shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.respondError(w, r, "list refunds", err)
		return
	}
	out := make([]refundResponse, 0, len(items))
	for _, refund := range items {
		out = append(out, toRefundResponse(refund))
	}
	httpx.JSON(w, http.StatusOK, refundListResponse{
		Items:      out,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      pagination.Total,
		TotalPages: pagination.TotalPages,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req updateRefundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in := UpdateRefundInput{
		Description:           req.Description,
		RecoverableFromVendor: req.RecoverableFromVendor,
		QualityIssuePercent:   req.QualityIssuePercent,
	}
	if req.Amount != nil {
		current, err := h.service.Get(r.Context(), tenantID, refundID)
		if err != nil {
			h.respondError(w, r, "update refund", err)
			return
		}
		amount, err := shared.NewMoney(*req.Amount, current.Amount.Currency())
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		in.Amount = &amount
	}
	if req.Category != nil {
		category, ok := ParseReasonCategory(*req.Category)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown reason category "+*req.Category)
			return
		}
		in.Category = &category
	}
	if req.FaultParty != nil {
		fault := FaultParty(*req.FaultParty)
		in.FaultParty = &fault
	}
	refund, err := h.service.Update(r.Context(), tenantID, refundID, in)
	if err != nil {
		h.respondError(w, r, "update refund", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision, ok := ParseDecision(req.Decision)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "decision must be approved, rejected or escalated")
		return
	}
	refund, err := h.service.SubmitDecision(r.Context(), tenantID, refundID, DecisionInput{
		ApproverID: req.ApproverID,
		Role:       req.Role,
		Decision:   decision,
		Comment:    req.Comment,
	})
	if err != nil {
		h.respondError(w, r, "submit decision", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) handleProcessing(w http.ResponseWriter, r *http.Request) {
	h.gatewayTransition(w, r, "mark processing", h.service.MarkProcessing)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.gatewayTransition(w, r, "complete refund", h.service.Complete)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	h.gatewayTransition(w, r, "retry refund", h.service.Retry)
}

func (h *Handler) handleFail(w http.ResponseWriter, r *http.Request) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req failRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	refund, err := h.service.Fail(r.Context(), tenantID, refundID, req.Reason)
	if err != nil {
		h.respondError(w, r, "fail refund", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req failRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	refund, err := h.service.Abandon(r.Context(), tenantID, refundID, req.Reason)
	if err != nil {
		h.respondError(w, r, "abandon refund", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) gatewayTransition(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, uuid.UUID, uuid.UUID) (*RefundRequest, error)) {
	tenantID, refundID, ok := h.scope(w, r)
	if !ok {
		return
	}
	refund, err := fn(r.Context(), tenantID, refundID)
	if err != nil {
		h.respondError(w, r, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRefundResponse(refund))
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Tenant Required", err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	refundID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "refund id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, refundID, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTenantMismatch):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "refund request not found")
	case errors.Is(err, ErrOrderNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
	case errors.Is(err, ErrNotEligible), errors.Is(err, ErrDuplicateActive),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrCannotEscalate):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUnauthorizedApprover):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrNoApprover):
		httpx.Problem(w, http.StatusConflict, "Approver Missing", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, shared.ErrCurrencyMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
