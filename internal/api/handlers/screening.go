package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

// ScreeningHandler serves stored ranked tables
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreeningHandler struct {
	store  contracts.ScreeningStore
	logger *logger.Logger
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(store contracts.ScreeningStore, log *logger.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		store:  store,
		logger: log,
	}
}

// CandidateItem is one row of the ranked table
type CandidateItem struct {
	Rank               int      `json:"rank"`
	Symbol             string   `json:"symbol"`
	Sector             string   `json:"sector,omitempty"`
	Close              float64  `json:"close"`
	Momentum12M        float64  `json:"momentum_12m"`
	FIPScore           float64  `json:"fip_score"`
	MomentumPercentile float64  `json:"momentum_percentile"`
	QualityPercentile  float64  `json:"quality_percentile"`
	CombinedScore      float64  `json:"combined_score"`
	Strength           string   `json:"strength"`
	Quality            string   `json:"quality"`
	VolumeRatio        float64  `json:"volume_ratio"`
	MarketCap          *float64 `json:"market_cap,omitempty"`
}

// ScreeningResponse is the API view of a screening run
type ScreeningResponse struct {
	RunID       string                  `json:"run_id"`
	AsOf        string                  `json:"as_of"`
	Universe    string                  `json:"universe"`
	ConfigHash  string                  `json:"config_hash"`
	Scored      int                     `json:"scored"`
	Passed      int                     `json:"passed"`
	Candidates  []CandidateItem         `json:"candidates"`
	Positions   []contracts.Position    `json:"positions"`
	Turnover    *contracts.Turnover     `json:"turnover,omitempty"`
	Diagnostics map[string]int          `json:"diagnostics"`
	Stages      []contracts.StageReport `json:"stages"`
}

// GetLatest returns the most recent ranked table
// GET /api/screening/latest?top=N
func (h *ScreeningHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	top, ok := parseTop(w, r)
	if !ok {
		return
	}

	result, err := h.store.LatestScreening(r.Context())
	if err != nil {
		respondStoreError(w, h.logger, err, "screening result")
		return
	}

	respondJSON(w, http.StatusOK, toScreeningResponse(result, top))
}

// GetByDate returns the ranked table of an as-of date
// GET /api/screening/{date}?top=N
func (h *ScreeningHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}
	top, ok := parseTop(w, r)
	if !ok {
		return
	}

	result, err := h.store.ScreeningByDate(r.Context(), date)
	if err != nil {
		respondStoreError(w, h.logger, err, "screening result")
		return
	}

	respondJSON(w, http.StatusOK, toScreeningResponse(result, top))
}

// parseTop reads ?top=N; 0 means the whole table
func parseTop(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return 0, true
	}
	top, err := strconv.Atoi(raw)
	if err != nil || top < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'top' (expected a non-negative integer)")
		return 0, false
	}
	return top, true
}

func toScreeningResponse(result *contracts.ScreeningResult, top int) ScreeningResponse {
	ranked := result.Ranked
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	candidates := make([]CandidateItem, 0, len(ranked))
	for i, rec := range ranked {
		candidates = append(candidates, CandidateItem{
			Rank:               i + 1,
			Symbol:             rec.Symbol,
			Sector:             rec.Sector,
			Close:              rec.Close,
			Momentum12M:        rec.Momentum12M,
			FIPScore:           rec.FIPScore,
			MomentumPercentile: rec.MomentumPercentile,
			QualityPercentile:  rec.QualityPercentile,
			CombinedScore:      rec.CombinedScore,
			Strength:           rec.MomentumStrength(),
			Quality:            rec.MomentumQuality(),
			VolumeRatio:        rec.VolumeRatio(),
			MarketCap:          rec.MarketCap,
		})
	}

	positions := result.Positions
	if positions == nil {
		positions = []contracts.Position{}
	}

	return ScreeningResponse{
		RunID:       result.RunID,
		AsOf:        result.AsOf.Format(dateLayout),
		Universe:    result.Universe,
		ConfigHash:  result.ConfigHash,
		Scored:      result.Scored,
		Passed:      len(result.Ranked),
		Candidates:  candidates,
		Positions:   positions,
		Turnover:    result.Turnover,
		Diagnostics: countDiagnostics(result.Diagnostics),
		Stages:      result.Stages,
	}
}

func countDiagnostics(diags contracts.Diagnostics) map[string]int {
	out := make(map[string]int)
	for _, d := range diags {
		out[string(d.Kind)]++
	}
	return out
}
