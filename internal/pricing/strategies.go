package pricing

import "fmt"

// Strategy names accepted by NewStrategyByName.
const (
	StrategyPremium   = "premium"
	StrategyCorporate = "corporate"
	StrategyStandard  = "standard"
	StrategyDefault   = "default"
)

// Customer tiers recognised by NewStrategyForCustomer.
const (
	TierVIP       = "vip"
	TierPremium   = "premium"
	TierCorporate = "corporate"
	TierStandard  = "standard"
)

var premiumStrategy = strategy{params: strategyParams{
	name:        StrategyPremium,
	description: "Lowest rates for VIP and premium customers with deep volume cuts",
	baseRateBP:  2_500,
	bonusRateBP: defaultBonusRateBP,
	capBP:       4_500,
	tiers: []volumeTier{
		{Threshold: 200_000_000, ReductionPct: 20},
		{Threshold: 100_000_000, ReductionPct: 15},
		{Threshold: 50_000_000, ReductionPct: 10},
	},
}}

var corporateStrategy = strategy{params: strategyParams{
	name:        StrategyCorporate,
	description: "Negotiated corporate rates with mid-range volume cuts",
	baseRateBP:  3_000,
	bonusRateBP: defaultBonusRateBP,
	capBP:       5_000,
	tiers: []volumeTier{
		{Threshold: 150_000_000, ReductionPct: 15},
		{Threshold: 75_000_000, ReductionPct: 10},
		{Threshold: 25_000_000, ReductionPct: 5},
	},
}}

var standardStrategy = strategy{params: strategyParams{
	name:        StrategyStandard,
	description: "Standard rates for returning customers",
	baseRateBP:  3_500,
	bonusRateBP: defaultBonusRateBP,
	capBP:       5_500,
	tiers: []volumeTier{
		{Threshold: 100_000_000, ReductionPct: 10},
		{Threshold: 50_000_000, ReductionPct: 5},
	},
}}

var defaultStrategy = strategy{params: strategyParams{
	name:        StrategyDefault,
	description: "Full rates for new customers, discounted only on the largest jobs",
	baseRateBP:  4_000,
	bonusRateBP: defaultBonusRateBP,
	capBP:       6_500,
	tiers: []volumeTier{
		{Threshold: 200_000_000, ReductionPct: 5},
	},
}}

var strategiesByName = map[string]MarkupStrategy{
	StrategyPremium:   premiumStrategy,
	StrategyCorporate: corporateStrategy,
	StrategyStandard:  standardStrategy,
	StrategyDefault:   defaultStrategy,
}

// NewStrategyForCustomer selects the markup strategy for a customer tier.
// Unrecognised tiers fall back to the default (new customer) strategy.
func NewStrategyForCustomer(tier string) MarkupStrategy {
	switch tier {
	case TierVIP, TierPremium:
		return premiumStrategy
	case TierCorporate:
		return corporateStrategy
	case TierStandard:
		return standardStrategy
	default:
		return defaultStrategy
	}
}

// NewStrategyByName returns the strategy registered under name.
func NewStrategyByName(name string) (MarkupStrategy, error) {
	s, ok := strategiesByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}
