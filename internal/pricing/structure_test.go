package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karsa-mfg/karsa/internal/shared"
)

func TestBuildStructure(t *testing.T) {
	material, _ := shared.NewMoney(6_000_000, "IDR")
	labor, _ := shared.NewMoney(4_000_000, "IDR")
	strategy, err := NewStrategyByName(StrategyStandard)
	require.NoError(t, err)

	structure, err := BuildStructure(StructureInput{
		MaterialCost: material,
		LaborCost:    labor,
		Complexity:   complexityWithScore(t, 2.0),
		Strategy:     strategy,
		DiscountBP:   500,  // 5%
		TaxBP:        1100, // PPN 11%
	})
	require.NoError(t, err)

	// base 10,000,000; markup 35% + 10% bonus = 45% => 4,500,000
	require.Equal(t, int64(10_000_000), structure.BaseCost.Amount())
	require.Equal(t, int64(4_500_000), structure.Markup.Amount())
	require.Equal(t, int64(725_000), structure.Discount.Amount())
	require.Equal(t, int64(1_515_250), structure.Tax.Amount())
	require.Equal(t, int64(15_290_250), structure.FinalPrice.Amount())
	require.Equal(t, int64(3_775_000), structure.ProfitMargin.Amount())

	require.InDelta(t, 45.0, structure.MarkupPercent(), 0.001)
	require.InDelta(t, 5.0, structure.DiscountPercent(), 0.001)
	require.InDelta(t, 24.689, structure.ProfitMarginPercent(), 0.01)
	require.InDelta(t, 60.0, structure.CompetitivenessScore(), 0.001)
	require.InDelta(t, 1.2, structure.ComplexityMultiplier, 0.001)

	require.Equal(t, int64(6_000_000), structure.Breakdown["material"])
	require.Equal(t, int64(4_500_000), structure.Breakdown["markup"])
}

func TestBuildStructureRejectsCurrencyMix(t *testing.T) {
	material, _ := shared.NewMoney(1_000, "IDR")
	labor, _ := shared.NewMoney(1_000, "USD")

	_, err := BuildStructure(StructureInput{MaterialCost: material, LaborCost: labor})
	require.ErrorIs(t, err, shared.ErrCurrencyMismatch)
}
