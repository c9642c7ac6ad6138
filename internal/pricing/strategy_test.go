package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karsa-mfg/karsa/internal/shared"
)

func complexityWithScore(t *testing.T, target float64) Complexity {
	t.Helper()
	// Quantity and deadline steps let us dial in scores for the tests
	// without constructing artificial Complexity values.
	for qty := 1; qty <= 200; qty++ {
		for days := 1; days <= 40; days++ {
			c := ComplexityFromRequirements(OrderRequirements{
				Material: "wood", Quantity: qty, DaysUntilDeadline: days,
			})
			if c.Score() == target {
				return c
			}
		}
	}
	t.Fatalf("no requirements combination yields score %v", target)
	return Complexity{}
}

func TestMarkupMonotonicInComplexity(t *testing.T) {
	base, _ := shared.NewMoney(10_000_000, "IDR")
	for _, name := range []string{StrategyPremium, StrategyCorporate, StrategyStandard, StrategyDefault} {
		s, err := NewStrategyByName(name)
		require.NoError(t, err)

		var previous int64 = -1
		for _, score := range []float64{2.0, 3.0, 4.0, 5.0, 5.5} {
			markup, err := s.CalculateMarkup(base, complexityWithScore(t, score))
			require.NoError(t, err)
			require.GreaterOrEqual(t, markup.Amount(), previous, "strategy %s score %v", name, score)
			previous = markup.Amount()
		}
	}
}

func TestMarkupCappedAtStrategyCeiling(t *testing.T) {
	high := complexityWithScore(t, 5.5)
	base, _ := shared.NewMoney(10_000_000, "IDR")

	cases := map[string]int64{
		StrategyPremium:   4_500_000,
		StrategyCorporate: 5_000_000,
		StrategyStandard:  5_500_000,
		StrategyDefault:   6_500_000,
	}
	for name, want := range cases {
		s, err := NewStrategyByName(name)
		require.NoError(t, err)
		markup, err := s.CalculateMarkup(base, high)
		require.NoError(t, err)
		require.LessOrEqual(t, markup.Amount(), want, "strategy %s", name)
	}

	// Default at max complexity bonus pins exactly to its 65% cap.
	s, _ := NewStrategyByName(StrategyDefault)
	markup, err := s.CalculateMarkup(base, high)
	require.NoError(t, err)
	require.Equal(t, int64(6_500_000), markup.Amount())
}

func TestVolumeDiscountReducesRate(t *testing.T) {
	s, err := NewStrategyByName(StrategyPremium)
	require.NoError(t, err)
	low := complexityWithScore(t, 2.0)

	small, _ := shared.NewMoney(10_000_000, "IDR")
	large, _ := shared.NewMoney(250_000_000, "IDR")

	smallMarkup, err := s.CalculateMarkup(small, low)
	require.NoError(t, err)
	largeMarkup, err := s.CalculateMarkup(large, low)
	require.NoError(t, err)

	// 25% + 10% bonus on the small job; 20% + 10% on the large one.
	require.Equal(t, int64(3_500_000), smallMarkup.Amount())
	require.Equal(t, int64(75_000_000), largeMarkup.Amount())
}

func TestStrategySelection(t *testing.T) {
	require.Equal(t, StrategyPremium, NewStrategyForCustomer(TierVIP).StrategyName())
	require.Equal(t, StrategyPremium, NewStrategyForCustomer(TierPremium).StrategyName())
	require.Equal(t, StrategyCorporate, NewStrategyForCustomer(TierCorporate).StrategyName())
	require.Equal(t, StrategyStandard, NewStrategyForCustomer(TierStandard).StrategyName())
	require.Equal(t, StrategyDefault, NewStrategyForCustomer("walk-in").StrategyName())

	_, err := NewStrategyByName("bespoke")
	require.ErrorIs(t, err, ErrUnknownStrategy)
}
