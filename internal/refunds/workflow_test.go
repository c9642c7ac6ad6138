package refunds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func chainLevels(chain []ChainLevel) []int {
	out := make([]int, 0, len(chain))
	for _, l := range chain {
		if l.Required {
			out = append(out, l.Level)
		}
	}
	return out
}

func TestBuildChainFinanceOnly(t *testing.T) {
	rules := DefaultApprovalRules()
	// Small customer-fault refund crosses no threshold.
	chain := rules.BuildChain(FinancialImpact{
		RefundableAmount: 500_000,
		NetCompanyImpact: 500_000,
		FaultParty:       FaultCustomer,
	})
	require.Equal(t, []int{LevelFinance}, chainLevels(chain))
	require.Len(t, chain, 1)
}

func TestBuildChainManagerTriggers(t *testing.T) {
	rules := DefaultApprovalRules()
	cases := []struct {
		name   string
		impact FinancialImpact
	}{
		{"company fault", FinancialImpact{RefundableAmount: 100_000, NetCompanyImpact: 100_000, FaultParty: FaultCompany}},
		{"net impact", FinancialImpact{RefundableAmount: 1_500_000, NetCompanyImpact: 1_500_000, FaultParty: FaultCustomer}},
		{"quality share", FinancialImpact{RefundableAmount: 100_000, NetCompanyImpact: 100_000, QualityIssuePercent: 80, FaultParty: FaultCustomer}},
		{"refundable", FinancialImpact{RefundableAmount: 3_500_000, NetCompanyImpact: 0, RecoverableFromVendor: 3_500_000, FaultParty: FaultCustomer}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain := rules.BuildChain(tc.impact)
			require.Equal(t, []int{LevelFinance, LevelManager}, chainLevels(chain))
		})
	}
}

func TestBuildChainExecutiveTriggers(t *testing.T) {
	rules := DefaultApprovalRules()
	cases := []struct {
		name   string
		impact FinancialImpact
	}{
		{"refundable", FinancialImpact{RefundableAmount: 6_000_000, NetCompanyImpact: 6_000_000, FaultParty: FaultCustomer}},
		{"net impact", FinancialImpact{RefundableAmount: 2_500_000, NetCompanyImpact: 2_500_000, FaultParty: FaultCustomer}},
		{"vendor recoverable", FinancialImpact{RefundableAmount: 2_000_000, NetCompanyImpact: -9_000_000, RecoverableFromVendor: 11_000_000, FaultParty: FaultVendor}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain := rules.BuildChain(tc.impact)
			require.Contains(t, chainLevels(chain), LevelExecutive)
			require.Equal(t, LevelFinance, chain[0].Level)
			require.Equal(t, LevelExecutive, chain[len(chain)-1].Level)
		})
	}
}

func TestBuildChainSkipsManagerWhenOnlyExecutiveRequired(t *testing.T) {
	rules := DefaultApprovalRules()
	// Vendor covers everything: net impact is negative, the refundable
	// amount stays under the manager threshold, yet the large vendor
	// recovery still demands an executive sign-off.
	impact := FinancialImpact{
		RefundableAmount:      2_000_000,
		RecoverableFromVendor: 11_000_000,
		NetCompanyImpact:      -9_000_000,
		FaultParty:            FaultVendor,
	}
	chain := rules.BuildChain(impact)
	require.Len(t, chain, 3)
	require.True(t, chain[0].Required)
	require.False(t, chain[1].Required)
	require.True(t, chain[2].Required)
	require.Equal(t, []int{LevelFinance, LevelExecutive}, chainLevels(chain))
}

func TestRoleForLevel(t *testing.T) {
	require.Equal(t, "finance", RoleForLevel(LevelFinance))
	require.Equal(t, "manager", RoleForLevel(LevelManager))
	require.Equal(t, "executive", RoleForLevel(LevelExecutive))
}
