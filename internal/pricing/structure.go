package pricing

import (
	"fmt"

	"github.com/karsa-mfg/karsa/internal/shared"
)

// StructureInput carries the cost components for a pricing snapshot.
type StructureInput struct {
	MaterialCost shared.Money
	LaborCost    shared.Money
	Overhead     shared.Money
	Complexity   Complexity
	Strategy     MarkupStrategy
	DiscountBP   int64
	TaxBP        int64
}

// Structure is an immutable pricing snapshot. Percentages and the
// competitiveness score are derived from the stored amounts on demand and are
// never persisted separately.
type Structure struct {
	BaseCost             shared.Money
	MaterialCost         shared.Money
	LaborCost            shared.Money
	Markup               shared.Money
	Discount             shared.Money
	Tax                  shared.Money
	FinalPrice           shared.Money
	ProfitMargin         shared.Money
	ComplexityMultiplier float64
	Breakdown            map[string]int64
}

// BuildStructure computes a full pricing snapshot for the given costs.
func BuildStructure(in StructureInput) (Structure, error) {
	if in.Strategy == nil {
		in.Strategy = defaultStrategy
	}
	base, err := in.MaterialCost.Add(in.LaborCost)
	if err != nil {
		return Structure{}, fmt.Errorf("pricing: base cost: %w", err)
	}
	if !in.Overhead.IsZero() {
		if base, err = base.Add(in.Overhead); err != nil {
			return Structure{}, fmt.Errorf("pricing: base cost: %w", err)
		}
	}

	markup, err := in.Strategy.CalculateMarkup(base, in.Complexity)
	if err != nil {
		return Structure{}, err
	}
	gross, err := base.Add(markup)
	if err != nil {
		return Structure{}, err
	}
	discount, err := gross.BasisPoints(in.DiscountBP)
	if err != nil {
		return Structure{}, fmt.Errorf("pricing: discount: %w", err)
	}
	taxable, err := gross.Subtract(discount)
	if err != nil {
		return Structure{}, fmt.Errorf("pricing: discount exceeds gross: %w", err)
	}
	tax, err := taxable.BasisPoints(in.TaxBP)
	if err != nil {
		return Structure{}, fmt.Errorf("pricing: tax: %w", err)
	}
	final, err := taxable.Add(tax)
	if err != nil {
		return Structure{}, err
	}
	margin, err := markup.Subtract(discount)
	if err != nil {
		// Discounts deeper than the markup leave a zero margin.
		margin = shared.ZeroMoney(base.Currency())
	}

	return Structure{
		BaseCost:             base,
		MaterialCost:         in.MaterialCost,
		LaborCost:            in.LaborCost,
		Markup:               markup,
		Discount:             discount,
		Tax:                  tax,
		FinalPrice:           final,
		ProfitMargin:         margin,
		ComplexityMultiplier: 1 + in.Complexity.Score()/10,
		Breakdown: map[string]int64{
			"material": in.MaterialCost.Amount(),
			"labor":    in.LaborCost.Amount(),
			"overhead": in.Overhead.Amount(),
			"markup":   markup.Amount(),
			"discount": discount.Amount(),
			"tax":      tax.Amount(),
		},
	}, nil
}

// MarkupPercent is the markup relative to base cost, in percent.
func (s Structure) MarkupPercent() float64 {
	if s.BaseCost.IsZero() {
		return 0
	}
	return float64(s.Markup.Amount()) / float64(s.BaseCost.Amount()) * 100
}

// DiscountPercent is the discount relative to the pre-discount gross, in percent.
func (s Structure) DiscountPercent() float64 {
	grossAmount := s.BaseCost.Amount() + s.Markup.Amount()
	if grossAmount == 0 {
		return 0
	}
	return float64(s.Discount.Amount()) / float64(grossAmount) * 100
}

// ProfitMarginPercent is the retained margin relative to the final price.
func (s Structure) ProfitMarginPercent() float64 {
	if s.FinalPrice.IsZero() {
		return 0
	}
	return float64(s.ProfitMargin.Amount()) / float64(s.FinalPrice.Amount()) * 100
}

// CompetitivenessScore grades the offer between 0 (expensive) and 100 (sharp):
// heavy markups push it down, discounts pull it back up.
func (s Structure) CompetitivenessScore() float64 {
	score := 100 - s.MarkupPercent() + s.DiscountPercent()
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
