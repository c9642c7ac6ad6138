package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/karsa-mfg/karsa/internal/pricing"
	"github.com/karsa-mfg/karsa/internal/shared"
)

type createOrderRequest struct {
	CustomerID           int64              `json:"customer_id" validate:"required,gt=0"`
	Number               string             `json:"number,omitempty" validate:"omitempty,max=64"`
	Currency             string             `json:"currency" validate:"required,len=3"`
	TotalAmount          int64              `json:"total_amount" validate:"required,gt=0"`
	Items                []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress      *addressRequest    `json:"shipping_address,omitempty"`
	BillingAddress       *addressRequest    `json:"billing_address,omitempty"`
	RequiredDeliveryDate time.Time          `json:"required_delivery_date" validate:"required"`
	Specifications       map[string]string  `json:"specifications,omitempty"`
}

type orderItemRequest struct {
	ProductID      int64             `json:"product_id" validate:"gte=0"`
	Name           string            `json:"name" validate:"required,max=255"`
	Quantity       int               `json:"quantity" validate:"required,gt=0"`
	UnitPrice      int64             `json:"unit_price" validate:"required,gt=0"`
	Customized     bool              `json:"customized"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type addressRequest struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
}

type assignVendorRequest struct {
	VendorID    int64  `json:"vendor_id" validate:"required,gt=0"`
	QuoteAmount int64  `json:"quote_amount" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
}

type customerQuoteRequest struct {
	CustomerTier string `json:"customer_tier,omitempty" validate:"omitempty,oneof=vip premium corporate standard new"`
	DiscountBP   int64  `json:"discount_bp,omitempty" validate:"omitempty,gte=0,lte=10000"`
	TaxBP        int64  `json:"tax_bp,omitempty" validate:"omitempty,gte=0,lte=10000"`
}

type customerQuoteResponse struct {
	Order orderResponse  `json:"order"`
	Quote quoteBreakdown `json:"quote"`
}

type quoteBreakdown struct {
	BaseCost             int64   `json:"base_cost"`
	Markup               int64   `json:"markup"`
	Discount             int64   `json:"discount"`
	Tax                  int64   `json:"tax"`
	FinalPrice           int64   `json:"final_price"`
	Currency             string  `json:"currency"`
	ProfitMargin         int64   `json:"profit_margin"`
	ComplexityMultiplier float64 `json:"complexity_multiplier"`
	MarkupPercent        float64 `json:"markup_percent"`
	ProfitMarginPercent  float64 `json:"profit_margin_percent"`
	Competitiveness      float64 `json:"competitiveness_score"`
}

type paymentRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Currency  string `json:"currency" validate:"required,len=3"`
	Method    string `json:"method" validate:"required,max=32"`
	Reference string `json:"reference,omitempty" validate:"omitempty,max=128"`
	Kind      string `json:"kind,omitempty" validate:"omitempty,oneof=down_payment settlement full"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type orderItemResponse struct {
	ProductID      int64             `json:"product_id,omitempty"`
	Name           string            `json:"name"`
	Quantity       int               `json:"quantity"`
	UnitPrice      int64             `json:"unit_price"`
	Customized     bool              `json:"customized"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type milestoneResponse struct {
	Name        string     `json:"name"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type timelineResponse struct {
	StartAt             time.Time           `json:"start_at"`
	EstimatedDays       int                 `json:"estimated_days"`
	EstimatedCompletion time.Time           `json:"estimated_completion"`
	ProgressPercent     int                 `json:"progress_percent"`
	Milestones          []milestoneResponse `json:"milestones"`
}

type orderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	Number               string              `json:"number"`
	CustomerID           int64               `json:"customer_id"`
	VendorID             *int64              `json:"vendor_id,omitempty"`
	Status               string              `json:"status"`
	StatusLabel          string              `json:"status_label"`
	AllowedTransitions   []string            `json:"allowed_transitions"`
	PaymentStatus        string              `json:"payment_status"`
	Currency             string              `json:"currency"`
	TotalAmount          int64               `json:"total_amount"`
	DownPaymentAmount    int64               `json:"down_payment_amount"`
	TotalPaidAmount      int64               `json:"total_paid_amount"`
	RemainingAmount      int64               `json:"remaining_amount"`
	Items                []orderItemResponse `json:"items"`
	ShippingAddress      string              `json:"shipping_address,omitempty"`
	BillingAddress       string              `json:"billing_address,omitempty"`
	RequiredDeliveryDate time.Time           `json:"required_delivery_date"`
	Timeline             timelineResponse    `json:"timeline"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

type orderListResponse struct {
	Items      []orderResponse `json:"items"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func (r addressRequest) toDomain() (shared.Address, error) {
	addr, err := shared.NewAddress(r.Line1, r.City, r.Province, r.PostalCode, r.Country)
	if err != nil {
		return shared.Address{}, err
	}
	addr.Line2 = r.Line2
	return addr, nil
}

func toCustomerQuoteResponse(o *PurchaseOrder, quote pricing.Structure) customerQuoteResponse {
	return customerQuoteResponse{
		Order: toOrderResponse(o),
		Quote: quoteBreakdown{
			BaseCost:             quote.BaseCost.Amount(),
			Markup:               quote.Markup.Amount(),
			Discount:             quote.Discount.Amount(),
			Tax:                  quote.Tax.Amount(),
			FinalPrice:           quote.FinalPrice.Amount(),
			Currency:             quote.FinalPrice.Currency(),
			ProfitMargin:         quote.ProfitMargin.Amount(),
			ComplexityMultiplier: quote.ComplexityMultiplier,
			MarkupPercent:        quote.MarkupPercent(),
			ProfitMarginPercent:  quote.ProfitMarginPercent(),
			Competitiveness:      quote.CompetitivenessScore(),
		},
	}
}

func toOrderResponse(o *PurchaseOrder) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice.Amount(),
			Customized:     item.Customized,
			Specifications: item.Specifications,
		})
	}
	milestones := make([]milestoneResponse, 0, len(o.Timeline.Milestones))
	for _, m := range o.Timeline.Milestones {
		milestones = append(milestones, milestoneResponse{Name: m.Name, DueAt: m.DueAt, CompletedAt: m.CompletedAt})
	}
	transitions := o.Status.AllowedTransitions()
	allowed := make([]string, 0, len(transitions))
	for _, s := range transitions {
		allowed = append(allowed, string(s))
	}
	return orderResponse{
		ID:                   o.ID,
		Number:               o.Number,
		CustomerID:           o.CustomerID,
		VendorID:             o.VendorID,
		Status:               string(o.Status),
		StatusLabel:          o.Status.Label(),
		AllowedTransitions:   allowed,
		PaymentStatus:        string(o.PaymentStatus),
		Currency:             o.TotalAmount.Currency(),
		TotalAmount:          o.TotalAmount.Amount(),
		DownPaymentAmount:    o.DownPaymentAmount.Amount(),
		TotalPaidAmount:      o.TotalPaidAmount.Amount(),
		RemainingAmount:      o.RemainingAmount().Amount(),
		Items:                items,
		ShippingAddress:      o.ShippingAddress.String(),
		BillingAddress:       o.BillingAddress.String(),
		RequiredDeliveryDate: o.RequiredDeliveryDate,
		Timeline: timelineResponse{
			StartAt:             o.Timeline.StartAt,
			EstimatedDays:       o.Timeline.EstimatedDays,
			EstimatedCompletion: o.Timeline.EstimatedCompletion(),
			ProgressPercent:     o.Timeline.ProgressPercent(),
			Milestones:          milestones,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
