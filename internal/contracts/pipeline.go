package contracts

import "time"

// Stage names one step of the live screening run
//
//	S0 → S1 → S2 → S3 → S4 → S5
//	prices  universe  momentum  entry filter  ranking  portfolio
type Stage string

const (
	StageDataQuality Stage = "S0_DATA_QUALITY"
	StageUniverse    Stage = "S1_UNIVERSE"
	StageSignals     Stage = "S2_SIGNALS"
	StageScreener    Stage = "S3_SCREENER"
	StageRanker      Stage = "S4_RANKER"
	StagePortfolio   Stage = "S5_PORTFOLIO"
)

// ScreeningStages lists the stages of a screening run in execution order
var ScreeningStages = []Stage{
	StageDataQuality,
	StageUniverse,
	StageSignals,
	StageScreener,
	StageRanker,
	StagePortfolio,
}

// ShortName returns the "S<n>" prefix
func (s Stage) ShortName() string {
	for i, st := range ScreeningStages {
		if st == s {
			return "S" + string(rune('0'+i))
		}
	}
	return "UNKNOWN"
}

// StageReport is the symbol funnel of one stage
// Dropped counts symbols removed by the stage, keyed by reason
// (filter name or diagnostic kind).
type StageReport struct {
	Stage      Stage          `json:"stage"`
	In         int            `json:"in"`
	Out        int            `json:"out"`
	DurationMs int64          `json:"duration_ms"`
	Dropped    map[string]int `json:"dropped,omitempty"`
}

// NewStageReport builds a report from counts and elapsed time
func NewStageReport(stage Stage, in, out int, elapsed time.Duration) StageReport {
	return StageReport{
		Stage:      stage,
		In:         in,
		Out:        out,
		DurationMs: elapsed.Milliseconds(),
	}
}

// DroppedBy returns a report whose Dropped map counts diags by kind
func (r StageReport) DroppedBy(diags Diagnostics) StageReport {
	if len(diags) == 0 {
		return r
	}
	if r.Dropped == nil {
		r.Dropped = make(map[string]int)
	}
	for _, d := range diags {
		r.Dropped[string(d.Kind)]++
	}
	return r
}
