package s1_universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Index selectors
const (
	SelectorNifty50  = "nifty_50"
	SelectorNifty500 = "nifty_500"
)

// ConstituentSource lists the members of an index
type ConstituentSource interface {
	Constituents(ctx context.Context, selector string) ([]contracts.Constituent, error)
}

// Builder constructs the investable universe
type Builder struct {
	source ConstituentSource
	config Config
	logger *logger.Logger
}

// Config holds universe filter criteria
type Config struct {
	Selector       string   `yaml:"selector"`        // nifty_50 | nifty_500
	ExcludeSymbols []string `yaml:"exclude_symbols"` // 수동 제외
	ExcludeSectors []string `yaml:"exclude_sectors"` // 제외 섹터
}

// NewBuilder creates a new Universe Builder; source may be nil
func NewBuilder(source ConstituentSource, config Config, log *logger.Logger) *Builder {
	return &Builder{
		source: source,
		config: config,
		logger: log.WithStage("s1_universe"),
	}
}

// IndexName maps a selector to the exchange index name
func IndexName(selector string) (string, error) {
	switch selector {
	case SelectorNifty50:
		return "NIFTY 50", nil
	case SelectorNifty500:
		return "NIFTY 500", nil
	default:
		return "", fmt.Errorf("unknown universe selector %q", selector)
	}
}

// NormalizeSymbol upper-cases and strips exchange suffixes (RELIANCE.NS → RELIANCE)
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range []string{".NS", ".BO"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}

// Build constructs the investable universe for date
// ⭐ SSOT: S1 → S2 유니버스 생성
//
// Members come from the constituent source; without a source, or when it
// fails, every symbol with a price series is taken. Members without price
// data or in an excluded sector are recorded in Excluded with a reason.
func (b *Builder) Build(ctx context.Context, series map[string]*s0_data.PriceSeries, date time.Time) (*contracts.Universe, error) {
	if _, err := IndexName(b.config.Selector); err != nil {
		return nil, err
	}

	members, err := b.members(ctx, series)
	if err != nil {
		return nil, err
	}

	universe := &contracts.Universe{
		Name:         b.config.Selector,
		Date:         s0_data.NormalizeDate(date),
		Constituents: make(map[string]contracts.Constituent, len(members)),
		Excluded:     make(map[string]string),
	}

	for _, c := range members {
		c.Symbol = NormalizeSymbol(c.Symbol)
		if reason := b.checkExclusion(c, series); reason != "" {
			universe.Excluded[c.Symbol] = reason
			continue
		}
		universe.Constituents[c.Symbol] = c
	}

	b.logger.WithFields(map[string]interface{}{
		"selector": b.config.Selector,
		"members":  len(members),
		"eligible": universe.Count(),
		"excluded": len(universe.Excluded),
	}).Info("Universe built")

	return universe, nil
}

func (b *Builder) members(ctx context.Context, series map[string]*s0_data.PriceSeries) ([]contracts.Constituent, error) {
	if b.source != nil {
		members, err := b.source.Constituents(ctx, b.config.Selector)
		if err == nil && len(members) > 0 {
			return members, nil
		}
		if err != nil {
			b.logger.WithError(err).Warn("Constituent source failed, falling back to price data symbols")
		}
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("universe %s: %w", b.config.Selector, contracts.ErrEmptyUniverse)
	}
	return FromSeries(series), nil
}

// checkExclusion returns the exclusion reason or ""
func (b *Builder) checkExclusion(c contracts.Constituent, series map[string]*s0_data.PriceSeries) string {
	// 1. 수동 제외
	for _, sym := range b.config.ExcludeSymbols {
		if NormalizeSymbol(sym) == c.Symbol {
			return "excluded symbol"
		}
	}

	// 2. 제외 섹터
	for _, sector := range b.config.ExcludeSectors {
		if strings.EqualFold(c.Sector, sector) {
			return fmt.Sprintf("excluded sector (%s)", sector)
		}
	}

	// 3. 가격 데이터 없음
	if series != nil {
		if s, ok := series[c.Symbol]; !ok || s.Len() == 0 {
			return "no price data"
		}
	}

	return "" // 통과
}

// FromSeries lists every series symbol as a constituent without metadata
func FromSeries(series map[string]*s0_data.PriceSeries) []contracts.Constituent {
	out := make([]contracts.Constituent, 0, len(series))
	for sym := range series {
		out = append(out, contracts.Constituent{Symbol: sym})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
