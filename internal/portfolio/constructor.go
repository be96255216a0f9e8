package portfolio

import (
	"math"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Constructor implements S5: equal value per slot, stop and target levels
// ⭐ SSOT: S5 포트폴리오 구성 로직은 여기서만
type Constructor struct {
	config strategyconfig.Portfolio
	logger *logger.Logger
}

// NewConstructor creates a new portfolio constructor
func NewConstructor(config strategyconfig.Portfolio, log *logger.Logger) *Constructor {
	return &Constructor{
		config: config,
		logger: log.WithStage("s5_portfolio"),
	}
}

// SlotValue returns portfolio value / max positions
func (c *Constructor) SlotValue(portfolioValue float64) float64 {
	return portfolioValue / float64(c.config.Size)
}

// Construct builds positions from the top of the ranked list
// The list is never padded: fewer candidates than slots leaves slots empty.
// Each slot gets portfolio_value / size regardless of how many are filled.
func (c *Constructor) Construct(ranked []contracts.MomentumRecord, portfolioValue float64, entryDate time.Time) ([]contracts.Position, contracts.Diagnostics) {
	var diags contracts.Diagnostics

	n := len(ranked)
	if n > c.config.Size {
		n = c.config.Size
	}

	slot := c.SlotValue(portfolioValue)
	positions := make([]contracts.Position, 0, n)

	for _, rec := range ranked[:n] {
		price := rec.Close
		pos := contracts.Position{
			Symbol:             rec.Symbol,
			Sector:             rec.Sector,
			EntryDate:          entryDate,
			EntryPrice:         price,
			PositionValue:      slot,
			StopLossPrice:      price * (1 - c.config.StopLossPct),
			TargetPrice:        price * (1 + c.config.TargetProfitPct),
			EntryMomentum:      rec.Momentum12M,
			EntryFIP:           rec.FIPScore,
			EntryCombinedScore: rec.CombinedScore,
			Status:             contracts.PositionOpen,
		}

		if price > 0 {
			pos.Shares = int64(math.Floor(slot / price))
		}
		if pos.Shares == 0 {
			// 슬롯보다 비싼 종목: 0주, 리포트용으로만 유지
			pos.Flags = append(pos.Flags, contracts.FlagPriceAboveSlot)
			diags.Add(contracts.DiagPriceAboveSlot, rec.Symbol, entryDate,
				"price %.2f exceeds slot value %.2f", price, slot)
		}

		positions = append(positions, pos)
	}

	c.logger.WithFields(map[string]interface{}{
		"candidates":      len(ranked),
		"positions":       len(positions),
		"slots":           c.config.Size,
		"slot_value":      slot,
		"portfolio_value": portfolioValue,
	}).Info("Portfolio constructed")

	return positions, diags
}
