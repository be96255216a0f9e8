package contracts

import (
	"fmt"
	"sort"
	"time"
)

// PriceBar is one trading day of OHLCV data
// ⭐ SSOT: S0 → S2 가격 데이터 단위
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks the per-bar invariants (close > 0, high ≥ low, volume ≥ 0)
func (b PriceBar) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidPriceBar)
	}
	if b.Close <= 0 {
		return fmt.Errorf("%w: close %.4f on %s", ErrInvalidPriceBar, b.Close, b.Date.Format("2006-01-02"))
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.4f < low %.4f on %s", ErrInvalidPriceBar, b.High, b.Low, b.Date.Format("2006-01-02"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume on %s", ErrInvalidPriceBar, b.Date.Format("2006-01-02"))
	}
	return nil
}

// Universe is the investable symbol set handed from S1 to S2
// ⭐ SSOT: S1 → S2 투자 가능 종목 전달
type Universe struct {
	Name         string                 `json:"name"` // nifty_50, nifty_500
	Date         time.Time              `json:"date"`
	Constituents map[string]Constituent `json:"constituents"`
	Excluded     map[string]string      `json:"excluded,omitempty"` // symbol → 제외 사유
}

// Constituent carries per-symbol metadata that is not in the price series
type Constituent struct {
	Symbol    string   `json:"symbol"`
	Company   string   `json:"company,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"` // nil = 알 수 없음
}

// Contains reports whether a symbol belongs to the universe
func (u *Universe) Contains(symbol string) bool {
	if u == nil {
		return false
	}
	_, ok := u.Constituents[symbol]
	return ok
}

// Sector returns the sector of a symbol or "Unknown"
func (u *Universe) Sector(symbol string) string {
	if u != nil {
		if c, ok := u.Constituents[symbol]; ok && c.Sector != "" {
			return c.Sector
		}
	}
	return "Unknown"
}

// MarketCap returns the market cap of a symbol, nil when unknown
func (u *Universe) MarketCap(symbol string) *float64 {
	if u == nil {
		return nil
	}
	return u.Constituents[symbol].MarketCap
}

// Count returns the number of constituents
func (u *Universe) Count() int {
	if u == nil {
		return 0
	}
	return len(u.Constituents)
}

// Symbols returns the constituent symbols sorted
func (u *Universe) Symbols() []string {
	if u == nil {
		return nil
	}
	out := make([]string, 0, len(u.Constituents))
	for sym := range u.Constituents {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
