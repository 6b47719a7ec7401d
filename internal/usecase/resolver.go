package usecase

import "github.com/vitos/crypto_crash_risk/internal/domain"

// ResolverInput is the flattened pillar output fed to the decision table.
type ResolverInput struct {
	DataUnavailable    bool
	UniverseEligible   bool
	CrowdingConfirmed  bool
	Structure          domain.StructureState
	LiquidityConfirmed bool
}

// ResolveState maps pillar outputs to a risk state through a fixed decision
// table, evaluated top-down with first match winning. RED has exactly one
// path: confirmed crowding with broken structure and confirmed liquidity
// stress at the same time.
func ResolveState(in ResolverInput) domain.ResolutionTrace {
	switch {
	case in.DataUnavailable:
		return rule(1, "data unavailable", domain.StateUnsupported)
	case !in.UniverseEligible:
		return rule(2, "not universe eligible", domain.StateUnsupported)
	case !in.CrowdingConfirmed:
		return rule(3, "crowding not confirmed", domain.StateGreen)
	case in.Structure == domain.StructureIntact:
		return rule(4, "structure intact", domain.StateGreen)
	case in.Structure == domain.StructureWeakening && !in.LiquidityConfirmed:
		return rule(5, "structure weakening, liquidity ok", domain.StateOrange)
	case in.Structure == domain.StructureBroken && in.LiquidityConfirmed:
		return rule(6, "structure broken with liquidity stress", domain.StateRed)
	case in.Structure == domain.StructureWeakening && in.LiquidityConfirmed:
		return rule(7, "structure weakening with liquidity stress", domain.StateOrange)
	case in.Structure == domain.StructureBroken && !in.LiquidityConfirmed:
		return rule(8, "structure broken, liquidity ok", domain.StateOrange)
	case in.Structure == domain.StructureNA:
		return rule(9, "structure unevaluable, fail safe", domain.StateGreen)
	default:
		// Unreachable if the table above is exhaustive; kept as a defined
		// terminal so no input can escape without a state.
		return rule(10, "default", domain.StateGreen)
	}
}

func rule(n int, text string, state domain.RiskState) domain.ResolutionTrace {
	return domain.ResolutionTrace{Rule: n, RuleText: text, Computed: state}
}
