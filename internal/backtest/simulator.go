package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

var errInsufficientCash = errors.New("insufficient cash")

// Simulator holds the portfolio state of a backtest
// ⭐ SSOT: 백테스팅 현금/포지션/거래원장은 여기서만 변경
type Simulator struct {
	logger  *logger.Logger
	costPct decimal.Decimal

	// Current state
	cash      decimal.Decimal
	positions map[string]*contracts.Position
	lastClose map[string]float64
	trades    []contracts.Trade

	// Statistics
	totalCost decimal.Decimal
}

// NewSimulator creates a new simulator with a per-side transaction cost
func NewSimulator(costPct float64, log *logger.Logger) *Simulator {
	return &Simulator{
		logger:    log,
		costPct:   decimal.NewFromFloat(costPct),
		positions: make(map[string]*contracts.Position),
		lastClose: make(map[string]float64),
	}
}

// Initialize resets the simulator with initial capital
func (s *Simulator) Initialize(capital float64) {
	s.cash = decimal.NewFromFloat(capital)
	s.positions = make(map[string]*contracts.Position)
	s.lastClose = make(map[string]float64)
	s.trades = nil
	s.totalCost = decimal.Zero
}

// Open buys pos at its entry price. Shares are reduced when cash cannot
// cover the full order plus cost; a zero-share result is rejected.
func (s *Simulator) Open(pos contracts.Position) (*contracts.Position, error) {
	if _, exists := s.positions[pos.Symbol]; exists {
		return nil, fmt.Errorf("position already open: %s", pos.Symbol)
	}
	if pos.Shares <= 0 {
		return nil, fmt.Errorf("no shares to buy: %s", pos.Symbol)
	}

	price := decimal.NewFromFloat(pos.EntryPrice)
	unit := price.Add(price.Mul(s.costPct))

	shares := decimal.NewFromInt(pos.Shares)
	if unit.Mul(shares).GreaterThan(s.cash) {
		affordable := s.cash.Div(unit).Floor().IntPart()
		if affordable <= 0 {
			return nil, fmt.Errorf("%w: %s needs %s, have %s", errInsufficientCash,
				pos.Symbol, unit.StringFixed(2), s.cash.StringFixed(2))
		}
		pos.Shares = affordable
		shares = decimal.NewFromInt(affordable)
	}

	gross := price.Mul(shares)
	cost := gross.Mul(s.costPct)
	s.cash = s.cash.Sub(gross).Sub(cost)
	s.totalCost = s.totalCost.Add(cost)

	pos.Status = contracts.PositionOpen
	p := pos
	s.positions[pos.Symbol] = &p
	s.lastClose[pos.Symbol] = pos.EntryPrice
	return &p, nil
}

// Close sells the whole position at price and appends the trade
func (s *Simulator) Close(symbol string, date time.Time, price float64, reason contracts.ExitReason, stale bool) (contracts.Trade, error) {
	pos, exists := s.positions[symbol]
	if !exists {
		return contracts.Trade{}, fmt.Errorf("no position to close: %s", symbol)
	}

	shares := decimal.NewFromInt(pos.Shares)
	exit := decimal.NewFromFloat(price)
	gross := exit.Mul(shares)
	sellCost := gross.Mul(s.costPct)
	buyCost := decimal.NewFromFloat(pos.EntryPrice).Mul(shares).Mul(s.costPct)
	entryValue := decimal.NewFromFloat(pos.EntryPrice).Mul(shares)

	s.cash = s.cash.Add(gross).Sub(sellCost)
	s.totalCost = s.totalCost.Add(sellCost)

	pos.Status = contracts.PositionClosed
	pos.ExitDate = date
	pos.ExitPrice = price
	pos.ExitReason = reason

	trade := contracts.Trade{
		Symbol:      pos.Symbol,
		Sector:      pos.Sector,
		EntryDate:   pos.EntryDate,
		ExitDate:    date,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   price,
		Shares:      pos.Shares,
		HoldingDays: contracts.HoldingDays(pos.EntryDate, date),
		ReturnPct:   price/pos.EntryPrice - 1,
		NetPnL:      gross.Sub(entryValue).Sub(buyCost).Sub(sellCost).InexactFloat64(),
		ExitReason:  reason,
		Stale:       stale,
	}
	s.trades = append(s.trades, trade)

	delete(s.positions, symbol)
	delete(s.lastClose, symbol)

	return trade, nil
}

// SetClose records the close used for marking symbol to market
func (s *Simulator) SetClose(symbol string, price float64) {
	if _, ok := s.positions[symbol]; ok {
		s.lastClose[symbol] = price
	}
}

// LastClose returns the last recorded close of an open position
func (s *Simulator) LastClose(symbol string) float64 {
	return s.lastClose[symbol]
}

// Value returns cash + Σ shares × last close
func (s *Simulator) Value() float64 {
	v := s.cash
	for sym, pos := range s.positions {
		v = v.Add(decimal.NewFromFloat(s.lastClose[sym]).Mul(decimal.NewFromInt(pos.Shares)))
	}
	return v.InexactFloat64()
}

// Mark returns today's equity point
func (s *Simulator) Mark(date time.Time) contracts.EquityPoint {
	return contracts.EquityPoint{
		Date:          date,
		Value:         s.Value(),
		Cash:          s.Cash(),
		OpenPositions: len(s.positions),
	}
}

// Cash returns the uninvested balance
func (s *Simulator) Cash() float64 {
	return s.cash.InexactFloat64()
}

// TotalCost returns the accumulated transaction cost
func (s *Simulator) TotalCost() float64 {
	return s.totalCost.InexactFloat64()
}

// Positions returns the open positions sorted by symbol
func (s *Simulator) Positions() []*contracts.Position {
	out := make([]*contracts.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns the open symbols sorted
func (s *Simulator) Symbols() []string {
	out := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// OpenCount returns the number of open positions
func (s *Simulator) OpenCount() int {
	return len(s.positions)
}

// Trades returns a copy of the ledger
func (s *Simulator) Trades() []contracts.Trade {
	out := make([]contracts.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// roundCash rounds to paise for logging
func roundCash(v float64) float64 {
	return math.Round(v*100) / 100
}
