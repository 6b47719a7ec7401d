package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

// RenderTrace produces the multi-section plain-text report for one decision
// trace. It is a pure function of the record: identical traces render to
// byte-identical text, so the output is snapshot-testable.
func RenderTrace(t *domain.RiskDecisionTrace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== CRASH RISK TRACE %s (venue %s) ===\n", t.Symbol, t.Venue)
	fmt.Fprintf(&b, "cycle time: %s\n", t.CycleTime.UTC().Format(time.RFC3339))

	if t.Stale {
		fmt.Fprintf(&b, "\n-- staleness override --\n")
		fmt.Fprintf(&b, "state forced to UNSUPPORTED: %s\n", t.StaleReason)
	}

	u := t.Universe
	fmt.Fprintf(&b, "\n-- universe filter --\n")
	fmt.Fprintf(&b, "asset found:          %t\n", u.AssetFound)
	fmt.Fprintf(&b, "day notional volume:  %s (min %.0f)\n", usd(u.DayNotionalVolumeUsd), u.MinDayNotionalUsd)
	fmt.Fprintf(&b, "open interest:        %s (min %.0f)\n", usd(u.OpenInterestUsd), u.MinOpenInterestUsd)
	fmt.Fprintf(&b, "eligible:             %t\n", u.Eligible)
	fmt.Fprintf(&b, "data unavailable:     %t\n", u.DataUnavailable)
	for _, check := range u.FailedChecks {
		fmt.Fprintf(&b, "failed check:         %s\n", check)
	}

	c := t.Crowding
	fmt.Fprintf(&b, "\n-- pillar 1: crowding --\n")
	fmt.Fprintf(&b, "evaluated:            %t\n", c.Evaluated)
	if c.Reason != "" {
		fmt.Fprintf(&b, "reason:               %s\n", c.Reason)
	}
	if c.Evaluated {
		fmt.Fprintf(&b, "funding rate:         %s\n", rate(c.FundingRate))
		fmt.Fprintf(&b, "history samples:      %d\n", c.HistorySamples)
		if c.ZDefined {
			fmt.Fprintf(&b, "history mean/stddev:  %.8f / %.8f\n", c.Mean, c.StdDev)
			fmt.Fprintf(&b, "z-score:              %.4f (threshold %.2f)\n", c.ZScore, c.ZThreshold)
		} else {
			fmt.Fprintf(&b, "z-score:              undefined\n")
		}
		fmt.Fprintf(&b, "at open interest cap: %t\n", c.AtOpenInterestCap)
		fmt.Fprintf(&b, "direction:            %s\n", c.Direction)
		fmt.Fprintf(&b, "raw / counter / conf: %t / %d / %t\n", c.Raw, c.Counter, c.Confirmed)
	}

	s := t.Structure
	fmt.Fprintf(&b, "\n-- pillar 2: structure --\n")
	fmt.Fprintf(&b, "evaluated:            %t\n", s.Evaluated)
	if s.Reason != "" {
		fmt.Fprintf(&b, "reason:               %s\n", s.Reason)
	}
	if s.Evaluated {
		fmt.Fprintf(&b, "return 15m:           %s\n", pct(s.Return15m))
		fmt.Fprintf(&b, "return 1h:            %s\n", pct(s.Return1h))
		fmt.Fprintf(&b, "state:                %s\n", s.State)
	}

	l := t.Liquidity
	fmt.Fprintf(&b, "\n-- pillar 3: liquidity stress --\n")
	fmt.Fprintf(&b, "evaluated:            %t\n", l.Evaluated)
	if l.Reason != "" {
		fmt.Fprintf(&b, "reason:               %s\n", l.Reason)
	}
	if l.Evaluated {
		fmt.Fprintf(&b, "path:                 %s\n", l.Path)
		if l.ImpactCostBps != nil {
			fmt.Fprintf(&b, "impact cost:          %.2f bps (threshold %.0f)\n", *l.ImpactCostBps, l.ImpactThresholdBps)
		}
		if l.SpreadBps != nil {
			fmt.Fprintf(&b, "spread:               %.2f bps (threshold %.0f)\n", *l.SpreadBps, l.SpreadThresholdBps)
		}
		if l.DepthNotionalUsd != nil {
			fmt.Fprintf(&b, "band depth:           %.0f usd (min %.0f)\n", *l.DepthNotionalUsd, l.MinDepthNotionalUsd)
		}
		fmt.Fprintf(&b, "raw / counter / conf: %t / %d / %t\n", l.Raw, l.Counter, l.Confirmed)
	}

	r := t.Resolution
	fmt.Fprintf(&b, "\n-- resolution --\n")
	fmt.Fprintf(&b, "matched rule:         #%d %s\n", r.Rule, r.RuleText)
	fmt.Fprintf(&b, "computed state:       %s\n", r.Computed)

	h := t.Hysteresis
	fmt.Fprintf(&b, "\n-- hysteresis --\n")
	if h.Previous != "" {
		fmt.Fprintf(&b, "previous state:       %s (entered %s)\n", h.Previous, h.PreviousEnteredAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "previous state:       none\n")
	}
	fmt.Fprintf(&b, "downgrade blocked:    %t\n", h.Blocked)
	if h.Blocked {
		fmt.Fprintf(&b, "hold remaining:       %s\n", h.HoldRemaining.Round(time.Second))
	}
	fmt.Fprintf(&b, "effective state:      %s\n", h.Effective)

	return b.String()
}

func usd(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *v)
}

func rate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.8f", *v)
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f%%", *v*100)
}
