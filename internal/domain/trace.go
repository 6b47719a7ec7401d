package domain

import "time"

// RiskDecisionTrace is a full, replayable audit of one coin's evaluation in
// one cycle. It is built once per cycle and replaced wholesale; rendering it
// to text is a pure function of this record.
type RiskDecisionTrace struct {
	Symbol    string    `json:"symbol"`
	Venue     string    `json:"venue"`
	CycleTime time.Time `json:"cycle_time"`

	Universe   UniverseTrace   `json:"universe"`
	Crowding   CrowdingTrace   `json:"crowding"`
	Structure  StructureTrace  `json:"structure"`
	Liquidity  LiquidityTrace  `json:"liquidity"`
	Resolution ResolutionTrace `json:"resolution"`
	Hysteresis HysteresisTrace `json:"hysteresis"`

	Stale       bool   `json:"stale"`
	StaleReason string `json:"stale_reason,omitempty"`
}

// UniverseTrace records the liquidity/open-interest gate.
type UniverseTrace struct {
	AssetFound           bool     `json:"asset_found"`
	DayNotionalVolumeUsd *float64 `json:"day_notional_volume_usd"`
	OpenInterestUsd      *float64 `json:"open_interest_usd"`
	MinDayNotionalUsd    float64  `json:"min_day_notional_usd"`
	MinOpenInterestUsd   float64  `json:"min_open_interest_usd"`
	Eligible             bool     `json:"eligible"`
	DataUnavailable      bool     `json:"data_unavailable"`
	FailedChecks         []string `json:"failed_checks,omitempty"`
}

// CrowdingTrace records the funding z-score pillar.
type CrowdingTrace struct {
	Evaluated         bool      `json:"evaluated"`
	Reason            string    `json:"reason,omitempty"`
	FundingRate       *float64  `json:"funding_rate"`
	HistorySamples    int       `json:"history_samples"`
	Mean              float64   `json:"mean"`
	StdDev            float64   `json:"std_dev"`
	ZDefined          bool      `json:"z_defined"`
	ZScore            float64   `json:"z_score"`
	ZThreshold        float64   `json:"z_threshold"`
	AtOpenInterestCap bool      `json:"at_open_interest_cap"`
	Raw               bool      `json:"raw"`
	Direction         Direction `json:"direction"`
	Counter           int       `json:"counter"`
	Confirmed         bool      `json:"confirmed"`
}

// StructureTrace records the price-structure pillar.
type StructureTrace struct {
	Evaluated bool           `json:"evaluated"`
	Reason    string         `json:"reason,omitempty"`
	Return15m *float64       `json:"return_15m"`
	Return1h  *float64       `json:"return_1h"`
	State     StructureState `json:"state"`
}

// LiquidityTrace records the liquidity-stress pillar. Path is "impact" when
// quoted impact prices were used, "book" for the spread+depth fallback and
// "none" when neither was available.
type LiquidityTrace struct {
	Evaluated           bool     `json:"evaluated"`
	Reason              string   `json:"reason,omitempty"`
	Path                string   `json:"path"`
	ImpactCostBps       *float64 `json:"impact_cost_bps"`
	ImpactThresholdBps  float64  `json:"impact_threshold_bps"`
	SpreadBps           *float64 `json:"spread_bps"`
	SpreadThresholdBps  float64  `json:"spread_threshold_bps"`
	DepthNotionalUsd    *float64 `json:"depth_notional_usd"`
	MinDepthNotionalUsd float64  `json:"min_depth_notional_usd"`
	Raw                 bool     `json:"raw"`
	Counter             int      `json:"counter"`
	Confirmed           bool     `json:"confirmed"`
}

// ResolutionTrace records which decision-table rule fired.
type ResolutionTrace struct {
	Rule     int       `json:"rule"`
	RuleText string    `json:"rule_text"`
	Computed RiskState `json:"computed"`
}

// HysteresisTrace records the cooldown guard outcome.
type HysteresisTrace struct {
	Previous          RiskState     `json:"previous,omitempty"`
	PreviousEnteredAt time.Time     `json:"previous_entered_at"`
	Blocked           bool          `json:"blocked"`
	HoldRemaining     time.Duration `json:"hold_remaining"`
	Effective         RiskState     `json:"effective"`
}
