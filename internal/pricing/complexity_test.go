package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplexityDerivationIsDeterministic(t *testing.T) {
	req := OrderRequirements{
		Material:            "stainless_steel",
		DesignFactors:       []string{"logo", "curved_edges"},
		Quantity:            5,
		SpecialRequirements: []string{"engraving", "certification"},
		DaysUntilDeadline:   10,
	}

	first := ComplexityFromRequirements(req)
	second := ComplexityFromRequirements(req)

	require.Equal(t, first.Score(), second.Score())
	require.Equal(t, first.Level(), second.Level())
	// 2.5 material + 2.0 design + 1.5 quantity + 1.5 special + 1.0 timeline
	require.InDelta(t, 8.5, first.Score(), 0.001)
	require.Equal(t, ComplexityHigh, first.Level())
}

func TestComplexityLevels(t *testing.T) {
	cases := []struct {
		name string
		req  OrderRequirements
		want ComplexityLevel
	}{
		{
			name: "bulk commodity run is simple",
			req:  OrderRequirements{Material: "wood", Quantity: 500, DaysUntilDeadline: 60},
			want: ComplexitySimple,
		},
		{
			name: "mid-size steel order is medium",
			req:  OrderRequirements{Material: "steel", Quantity: 30, DaysUntilDeadline: 20},
			want: ComplexityMedium,
		},
		{
			name: "rushed one-off titanium build is custom",
			req: OrderRequirements{
				Material:            "titanium",
				DesignFactors:       []string{"cnc", "polish", "anodize"},
				Quantity:            1,
				SpecialRequirements: []string{"certification", "assembly", "coating", "engraving"},
				DaysUntilDeadline:   5,
			},
			want: ComplexityCustom,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComplexityFromRequirements(tc.req).Level())
		})
	}
}

func TestComplexitySubScoreCaps(t *testing.T) {
	req := OrderRequirements{
		Material:      "wood",
		DesignFactors: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		SpecialRequirements: []string{
			"engraving", "coating", "custom_packaging", "assembly", "certification", "food_grade",
		},
		Quantity:          1000,
		DaysUntilDeadline: 90,
	}

	c := ComplexityFromRequirements(req)
	// 1.0 material + 4.0 design cap + 0.0 quantity + 3.0 special cap + 0.0 timeline
	require.InDelta(t, 8.0, c.Score(), 0.001)
}
