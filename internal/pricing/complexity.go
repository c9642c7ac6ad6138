package pricing

// ComplexityLevel buckets an order complexity score.
type ComplexityLevel string

const (
	ComplexitySimple ComplexityLevel = "simple"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
	ComplexityCustom ComplexityLevel = "custom"
)

// materialScores maps known materials to their difficulty score.
// Unknown materials fall back to the simplest score.
var materialScores = map[string]float64{
	"wood":            1.0,
	"plastic":         1.0,
	"aluminum":        1.5,
	"brass":           2.0,
	"steel":           2.0,
	"stainless_steel": 2.5,
	"carbon_fiber":    3.0,
	"titanium":        3.0,
}

// specialScores maps special requirement flags to fixed score increments.
var specialScores = map[string]float64{
	"engraving":        0.5,
	"coating":          0.5,
	"custom_packaging": 0.5,
	"assembly":         1.0,
	"certification":    1.0,
	"food_grade":       1.0,
}

// OrderRequirements captures the inputs that drive complexity scoring.
type OrderRequirements struct {
	Material            string
	DesignFactors       []string
	Quantity            int
	SpecialRequirements []string
	DaysUntilDeadline   int
}

// Complexity is an immutable derived score with its level bucket.
type Complexity struct {
	score float64
	level ComplexityLevel
}

// Score returns the total complexity score.
func (c Complexity) Score() float64 { return c.score }

// Level returns the bucketed complexity level.
func (c Complexity) Level() ComplexityLevel { return c.level }

// ComplexityFromRequirements derives a score from five independently capped
// sub-scores: material, design, quantity, special requirements and timeline
// pressure. Calling it twice with the same input yields identical results.
func ComplexityFromRequirements(req OrderRequirements) Complexity {
	total := materialScore(req.Material) +
		designScore(req.DesignFactors) +
		quantityScore(req.Quantity) +
		specialScore(req.SpecialRequirements) +
		timelineScore(req.DaysUntilDeadline)
	return Complexity{score: total, level: levelForScore(total)}
}

func materialScore(material string) float64 {
	if score, ok := materialScores[material]; ok {
		return score
	}
	return 1.0
}

// designScore starts at 1.0 and adds 0.5 per extra design factor, capped at 4.0.
func designScore(factors []string) float64 {
	score := 1.0 + 0.5*float64(len(factors))
	if score > 4.0 {
		return 4.0
	}
	return score
}

// quantityScore is an inverse-U: one-offs are hard, bulk runs are routine.
func quantityScore(quantity int) float64 {
	switch {
	case quantity <= 1:
		return 2.0
	case quantity <= 10:
		return 1.5
	case quantity <= 50:
		return 1.0
	case quantity <= 100:
		return 0.5
	default:
		return 0.0
	}
}

func specialScore(flags []string) float64 {
	var score float64
	for _, flag := range flags {
		score += specialScores[flag]
	}
	if score > 3.0 {
		return 3.0
	}
	return score
}

func timelineScore(daysUntilDeadline int) float64 {
	switch {
	case daysUntilDeadline <= 7:
		return 2.0
	case daysUntilDeadline <= 14:
		return 1.0
	case daysUntilDeadline <= 21:
		return 0.5
	default:
		return 0.0
	}
}

func levelForScore(score float64) ComplexityLevel {
	switch {
	case score <= 3:
		return ComplexitySimple
	case score <= 6:
		return ComplexityMedium
	case score <= 9:
		return ComplexityHigh
	default:
		return ComplexityCustom
	}
}
