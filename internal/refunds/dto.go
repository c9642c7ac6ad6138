package refunds

import (
	"time"

	"github.com/google/uuid"
)

type createRefundRequest struct {
	OrderID               uuid.UUID `json:"order_id" validate:"required"`
	Type                  string    `json:"type" validate:"required,oneof=FULL PARTIAL"`
	Amount                int64     `json:"amount" validate:"required,gt=0"`
	Currency              string    `json:"currency" validate:"required,len=3"`
	Category              string    `json:"category" validate:"required"`
	Description           string    `json:"description" validate:"required,min=10,max=2000"`
	FaultParty            string    `json:"fault_party" validate:"required,oneof=company vendor customer shared"`
	RecoverableFromVendor int64     `json:"recoverable_from_vendor" validate:"gte=0"`
	QualityIssuePercent   int       `json:"quality_issue_percent" validate:"gte=0,lte=100"`
	RequestedBy           int64     `json:"requested_by" validate:"required,gt=0"`
}

type updateRefundRequest struct {
	Amount                *int64  `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Category              *string `json:"category,omitempty"`
	Description           *string `json:"description,omitempty" validate:"omitempty,min=10,max=2000"`
	FaultParty            *string `json:"fault_party,omitempty" validate:"omitempty,oneof=company vendor customer shared"`
	RecoverableFromVendor *int64  `json:"recoverable_from_vendor,omitempty" validate:"omitempty,gte=0"`
	QualityIssuePercent   *int    `json:"quality_issue_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type decisionRequest struct {
	ApproverID int64  `json:"approver_id" validate:"required,gt=0"`
	Role       string `json:"role" validate:"required,oneof=finance manager executive"`
	Decision   string `json:"decision" validate:"required"`
	Comment    string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type failRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type approvalResponse struct {
	Round      int       `json:"round"`
	Level      int       `json:"level"`
	Role       string    `json:"role"`
	ApproverID int64     `json:"approver_id,omitempty"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

type chainLevelResponse struct {
	Level      int    `json:"level"`
	Role       string `json:"role"`
	ApproverID int64  `json:"approver_id"`
	Required   bool   `json:"required"`
	Current    bool   `json:"current"`
}

type refundResponse struct {
	ID                    uuid.UUID            `json:"id"`
	OrderID               uuid.UUID            `json:"order_id"`
	Number                string               `json:"number"`
	Type                  string               `json:"type"`
	Amount                int64                `json:"amount"`
	Currency              string               `json:"currency"`
	Category              string               `json:"category"`
	Description           string               `json:"description"`
	FaultParty            string               `json:"fault_party"`
	RecoverableFromVendor int64                `json:"recoverable_from_vendor"`
	NetCompanyImpact      int64                `json:"net_company_impact"`
	QualityIssuePercent   int                  `json:"quality_issue_percent"`
	Status                string               `json:"status"`
	Round                 int                  `json:"round"`
	Chain                 []chainLevelResponse `json:"chain"`
	Approvals             []approvalResponse   `json:"approvals"`
	FailureReason         string               `json:"failure_reason,omitempty"`
	RequestedBy           int64                `json:"requested_by"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type refundListResponse struct {
	Items      []refundResponse `json:"items"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

func toRefundResponse(r *RefundRequest) refundResponse {
	chain := make([]chainLevelResponse, 0, len(r.Chain))
	for i, l := range r.Chain {
		chain = append(chain, chainLevelResponse{
			Level:      l.Level,
			Role:       l.Role,
			ApproverID: l.ApproverID,
			Required:   l.Required,
			Current:    r.Status == StatusPending && i == r.CurrentIndex,
		})
	}
	approvals := make([]approvalResponse, 0, len(r.Approvals))
	for _, a := range r.Approvals {
		approvals = append(approvals, approvalResponse{
			Round: a.Round, Level: a.Level, Role: a.Role, ApproverID: a.ApproverID,
			Decision: string(a.Decision), Comment: a.Comment, DecidedAt: a.DecidedAt,
		})
	}
	return refundResponse{
		ID:                    r.ID,
		OrderID:               r.OrderID,
		Number:                r.Number,
		Type:                  string(r.Type),
		Amount:                r.Amount.Amount(),
		Currency:              r.Amount.Currency(),
		Category:              string(r.Category),
		Description:           r.Description,
		FaultParty:            string(r.Impact.FaultParty),
		RecoverableFromVendor: r.Impact.RecoverableFromVendor,
		NetCompanyImpact:      r.Impact.NetCompanyImpact,
		QualityIssuePercent:   r.Impact.QualityIssuePercent,
		Status:                string(r.Status),
		Round:                 r.Round,
		Chain:                 chain,
		Approvals:             approvals,
		FailureReason:         r.FailureReason,
		RequestedBy:           r.RequestedBy,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}
