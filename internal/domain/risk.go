package domain

import "time"

// RiskState is the four-valued crash risk classification for a coin.
type RiskState string

const (
	StateGreen       RiskState = "GREEN"
	StateOrange      RiskState = "ORANGE"
	StateRed         RiskState = "RED"
	StateUnsupported RiskState = "UNSUPPORTED"
)

// Rank orders states by severity. UNSUPPORTED sits below GREEN on purpose:
// it is an "insufficient data" sentinel, not a risk level.
func (s RiskState) Rank() int {
	switch s {
	case StateRed:
		return 3
	case StateOrange:
		return 2
	case StateGreen:
		return 1
	default:
		return 0
	}
}

// DotColor returns the fixed dashboard color for the state.
func (s RiskState) DotColor() string {
	switch s {
	case StateGreen:
		return "#2ECC71"
	case StateOrange:
		return "#F39C12"
	case StateRed:
		return "#E74C3C"
	default:
		return "#A0AEC0"
	}
}

// Message returns the fixed user-facing message for the state.
func (s RiskState) Message() string {
	switch s {
	case StateGreen:
		return "No elevated crash risk detected."
	case StateOrange:
		return "Crowded positioning with weakening structure. Watch closely."
	case StateRed:
		return "Crash risk: crowded side breaking down into thin liquidity."
	default:
		return "Not enough data to assess crash risk."
	}
}

// Direction identifies which side of the market is crowded.
type Direction string

const (
	LongCrowded  Direction = "LONG_CROWDED"
	ShortCrowded Direction = "SHORT_CROWDED"
	Neutral      Direction = "NEUTRAL"
)

// StructureState classifies short-horizon price structure relative to the
// crowded side. StructureNA means the returns could not be computed and is
// never coerced into one of the three named states.
type StructureState string

const (
	StructureIntact    StructureState = "INTACT"
	StructureWeakening StructureState = "WEAKENING"
	StructureBroken    StructureState = "BROKEN"
	StructureNA        StructureState = "N/A"
)

// RiskRecord is the per-coin output delivered to the dashboard each cycle.
type RiskRecord struct {
	Coin              string             `json:"coin"`
	Venue             string             `json:"venue"`
	State             RiskState          `json:"state"`
	Message           string             `json:"message"`
	DotColor          string             `json:"dot_color"`
	Funding           *float64           `json:"funding"`
	OpenInterest      *float64           `json:"open_interest"`
	DayNotionalVolume *float64           `json:"day_notional_volume"`
	MarkPrice         float64            `json:"mark_price"`
	Trace             *RiskDecisionTrace `json:"trace"`
}

// StoredRiskRecord is a historical record loaded back from storage.
type StoredRiskRecord struct {
	ID        int64     `json:"id"`
	CycleTime time.Time `json:"cycle_time"`
	Coin      string    `json:"coin"`
	Venue     string    `json:"venue"`
	State     RiskState `json:"state"`
	Message   string    `json:"message"`
	MarkPrice float64   `json:"mark_price"`
	TraceText string    `json:"trace_text"`
}
