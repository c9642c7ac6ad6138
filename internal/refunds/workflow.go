package refunds

// Approver roles by chain level. Level numbers are fixed; whether a level is
// required for a given request depends on ApprovalRules.
const (
	LevelFinance   = 1
	LevelManager   = 2
	LevelExecutive = 3
)

var levelRoles = map[int]string{
	LevelFinance:   "finance",
	LevelManager:   "manager",
	LevelExecutive: "executive",
}

// RoleForLevel maps a chain level to the approver role expected there.
func RoleForLevel(level int) string {
	return levelRoles[level]
}

// FaultParty names who caused the problem behind the refund.
type FaultParty string

const (
	FaultCompany  FaultParty = "company"
	FaultVendor   FaultParty = "vendor"
	FaultCustomer FaultParty = "customer"
	FaultShared   FaultParty = "shared"
)

// ReasonCategory classifies the refund cause.
type ReasonCategory string

const (
	ReasonQualityIssue         ReasonCategory = "quality_issue"
	ReasonProductionDelay      ReasonCategory = "production_delay"
	ReasonWrongSpecification   ReasonCategory = "wrong_specification"
	ReasonVendorFailure        ReasonCategory = "vendor_failure"
	ReasonCustomerCancellation ReasonCategory = "customer_cancellation"
	ReasonShippingDamage       ReasonCategory = "shipping_damage"
	ReasonOther                ReasonCategory = "other"
)

var reasonCategories = map[ReasonCategory]struct{}{
	ReasonQualityIssue:         {},
	ReasonProductionDelay:      {},
	ReasonWrongSpecification:   {},
	ReasonVendorFailure:        {},
	ReasonCustomerCancellation: {},
	ReasonShippingDamage:       {},
	ReasonOther:                {},
}

// ParseReasonCategory validates a raw category string.
func ParseReasonCategory(raw string) (ReasonCategory, bool) {
	c := ReasonCategory(raw)
	_, ok := reasonCategories[c]
	return c, ok
}

// FinancialImpact quantifies a refund request in minor currency units.
// NetCompanyImpact may go negative when the vendor covers more than the
// refund, so it stays a plain int64 instead of Money.
type FinancialImpact struct {
	RefundableAmount      int64
	RecoverableFromVendor int64
	NetCompanyImpact      int64
	QualityIssuePercent   int
	FaultParty            FaultParty
}

// ApprovalRules decides which chain levels a refund request must pass.
// Thresholds are in minor currency units. Finance always reviews; the higher
// levels join the chain when the request crosses their thresholds.
type ApprovalRules struct {
	ManagerFaultParties      []FaultParty
	ManagerNetImpactOver     int64
	ManagerQualityPctAtLeast int
	ManagerRefundableOver    int64

	ExecutiveRefundableOver        int64
	ExecutiveNetImpactOver         int64
	ExecutiveVendorRecoverableOver int64
}

// DefaultApprovalRules returns the standard production thresholds, in IDR.
func DefaultApprovalRules() ApprovalRules {
	return ApprovalRules{
		ManagerFaultParties:      []FaultParty{FaultCompany},
		ManagerNetImpactOver:     1_000_000,
		ManagerQualityPctAtLeast: 80,
		ManagerRefundableOver:    3_000_000,

		ExecutiveRefundableOver:        5_000_000,
		ExecutiveNetImpactOver:         2_000_000,
		ExecutiveVendorRecoverableOver: 10_000_000,
	}
}

func (r ApprovalRules) managerRequired(impact FinancialImpact) bool {
	for _, fault := range r.ManagerFaultParties {
		if impact.FaultParty == fault {
			return true
		}
	}
	if impact.NetCompanyImpact > r.ManagerNetImpactOver {
		return true
	}
	if r.ManagerQualityPctAtLeast > 0 && impact.QualityIssuePercent >= r.ManagerQualityPctAtLeast {
		return true
	}
	return impact.RefundableAmount > r.ManagerRefundableOver
}

func (r ApprovalRules) executiveRequired(impact FinancialImpact) bool {
	if impact.RefundableAmount > r.ExecutiveRefundableOver {
		return true
	}
	if impact.NetCompanyImpact > r.ExecutiveNetImpactOver {
		return true
	}
	return impact.FaultParty == FaultVendor &&
		impact.RecoverableFromVendor > r.ExecutiveVendorRecoverableOver
}

// ChainLevel is one step of the approval chain. Levels the rules did not
// require still appear so escalation can route through them; they carry
// Required=false and get a skipped entry when passed over.
type ChainLevel struct {
	Level      int
	Role       string
	ApproverID int64
	Required   bool
}

// BuildChain lays out the approval chain for the given impact. The chain
// always starts at finance and extends to the highest required level.
func (r ApprovalRules) BuildChain(impact FinancialImpact) []ChainLevel {
	manager := r.managerRequired(impact)
	executive := r.executiveRequired(impact)

	top := LevelFinance
	if manager {
		top = LevelManager
	}
	if executive {
		top = LevelExecutive
	}

	chain := make([]ChainLevel, 0, top)
	for level := LevelFinance; level <= top; level++ {
		required := true
		if level == LevelManager {
			required = manager
		}
		chain = append(chain, ChainLevel{Level: level, Role: RoleForLevel(level), Required: required})
	}
	return chain
}
