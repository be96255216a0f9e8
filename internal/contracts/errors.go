package contracts

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Error taxonomy
// ⭐ SSOT: 종목 단위 실패는 Diagnostic, 시스템 실패만 error 로 반환
// =============================================================================

var (
	// ErrInsufficientHistory 룩백+스킵 기간보다 짧은 시계열
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrStaleBar 보유 종목의 당일 봉 누락 (직전 종가 사용)
	ErrStaleBar = errors.New("stale bar")

	// ErrDelistedSymbol 시계열 종료 (상장폐지)
	ErrDelistedSymbol = errors.New("delisted symbol")

	// ErrUndefinedRatio 분모 0 / 표본 부족
	ErrUndefinedRatio = errors.New("undefined ratio")

	// ErrInvalidPriceBar PriceBar 불변식 위반
	ErrInvalidPriceBar = errors.New("invalid price bar")

	// ErrEmptyUniverse 필터 후 후보 없음 (스크리닝 중단)
	ErrEmptyUniverse = errors.New("empty universe after filtering")

	// ErrNoValidSymbols 유효한 시계열이 하나도 없음 (백테스트 중단)
	ErrNoValidSymbols = errors.New("no symbol with a valid price series")

	// ErrBacktestAborted 컨텍스트 취소로 시뮬레이션 중단
	ErrBacktestAborted = errors.New("backtest aborted")

	// ErrNotFound 저장소 조회 결과 없음
	ErrNotFound = errors.New("not found")
)

// DiagnosticKind classifies a per-symbol failure
type DiagnosticKind string

const (
	DiagInsufficientHistory DiagnosticKind = "INSUFFICIENT_HISTORY"
	DiagStaleBar            DiagnosticKind = "STALE_BAR"
	DiagDelisted            DiagnosticKind = "DELISTED"
	DiagUndefinedRatio      DiagnosticKind = "UNDEFINED_RATIO"
	DiagInvalidPriceBar     DiagnosticKind = "INVALID_PRICE_BAR"
	DiagPriceAboveSlot      DiagnosticKind = "PRICE_ABOVE_SLOT"
	DiagUnknownMarketCap    DiagnosticKind = "UNKNOWN_MARKET_CAP"
	DiagEmptyRebalance      DiagnosticKind = "EMPTY_REBALANCE"
)

// Diagnostic is one entry of the diagnostics list returned next to results
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Symbol  string         `json:"symbol,omitempty"`
	Date    time.Time      `json:"date"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Symbol == "" {
		return fmt.Sprintf("[%s] %s %s", d.Kind, d.Date.Format("2006-01-02"), d.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", d.Kind, d.Date.Format("2006-01-02"), d.Symbol, d.Message)
}

// DiagnosticFromError maps a sentinel error to its kind
func DiagnosticFromError(symbol string, date time.Time, err error) Diagnostic {
	kind := DiagInvalidPriceBar
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		kind = DiagInsufficientHistory
	case errors.Is(err, ErrStaleBar):
		kind = DiagStaleBar
	case errors.Is(err, ErrDelistedSymbol):
		kind = DiagDelisted
	case errors.Is(err, ErrUndefinedRatio):
		kind = DiagUndefinedRatio
	}
	return Diagnostic{Kind: kind, Symbol: symbol, Date: date, Message: err.Error()}
}

// Diagnostics is an append-only collector
type Diagnostics []Diagnostic

// Add appends a diagnostic
func (d *Diagnostics) Add(kind DiagnosticKind, symbol string, date time.Time, format string, args ...interface{}) {
	*d = append(*d, Diagnostic{Kind: kind, Symbol: symbol, Date: date, Message: fmt.Sprintf(format, args...)})
}

// Count returns how many diagnostics of the given kind were recorded
func (d Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, diag := range d {
		if diag.Kind == kind {
			n++
		}
	}
	return n
}
