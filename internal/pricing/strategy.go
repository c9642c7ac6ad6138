package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/karsa-mfg/karsa/internal/shared"
)

// ErrUnknownStrategy indicates a strategy name with no registered variant.
var ErrUnknownStrategy = errors.New("pricing: unknown markup strategy")

// MarkupStrategy computes the markup for a base cost at a given complexity.
type MarkupStrategy interface {
	CalculateMarkup(baseCost shared.Money, complexity Complexity) (shared.Money, error)
	StrategyName() string
	Description() string
}

// volumeTier reduces the base markup rate for costs above a threshold.
// ReductionPct is the relative cut applied to the rate itself.
type volumeTier struct {
	Threshold    int64
	ReductionPct int64
}

// strategyParams hold the per-strategy constants. All rates are basis points
// so markup arithmetic stays in integer minor units.
type strategyParams struct {
	name        string
	description string
	baseRateBP  int64
	bonusRateBP int64
	capBP       int64
	tiers       []volumeTier
}

const (
	// defaultBonusRateBP is the complexity bonus per score point (5%).
	defaultBonusRateBP = 500
	// maxBonusBP caps the complexity bonus at 50%.
	maxBonusBP = 5_000
)

type strategy struct {
	params strategyParams
}

func (s strategy) StrategyName() string { return s.params.name }

func (s strategy) Description() string { return s.params.description }

func (s strategy) CalculateMarkup(baseCost shared.Money, complexity Complexity) (shared.Money, error) {
	bonus := complexityBonusBP(complexity.Score(), s.params.bonusRateBP)
	adjusted := applyVolumeDiscount(baseCost.Amount(), s.params.baseRateBP, s.params.tiers)
	final := adjusted + bonus
	if final > s.params.capBP {
		final = s.params.capBP
	}
	markup, err := baseCost.BasisPoints(final)
	if err != nil {
		return shared.Money{}, fmt.Errorf("pricing: markup for %s: %w", s.params.name, err)
	}
	return markup, nil
}

// complexityBonusBP converts a complexity score into bonus basis points.
// Scores above 8 are dampened to 80% before the 50% ceiling applies.
func complexityBonusBP(score float64, bonusRateBP int64) int64 {
	bonus := score * float64(bonusRateBP)
	if score > 8 {
		bonus *= 0.8
	}
	bp := int64(math.Round(bonus))
	if bp > maxBonusBP {
		bp = maxBonusBP
	}
	return bp
}

// applyVolumeDiscount cuts the base rate by the first matching tier.
// Tiers are ordered by descending threshold.
func applyVolumeDiscount(baseCost, rateBP int64, tiers []volumeTier) int64 {
	for _, tier := range tiers {
		if baseCost > tier.Threshold {
			return rateBP * (100 - tier.ReductionPct) / 100
		}
	}
	return rateBP
}
