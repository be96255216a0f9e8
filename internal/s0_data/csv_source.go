package s0_data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

// CSVSource reads one <SYMBOL>.csv file per symbol from a directory
// Header: Date,Open,High,Low,Close,Volume (extra columns such as "Adj Close" are ignored)
type CSVSource struct {
	dir    string
	logger *logger.Logger
}

// NewCSVSource creates a CSV price source
func NewCSVSource(dir string, log *logger.Logger) *CSVSource {
	return &CSVSource{dir: dir, logger: log.WithStage("s0_data")}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
}

// Symbols lists the symbols available in the directory
func (s *CSVSource) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read price dir: %w", err)
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// LoadBars implements contracts.PriceSource
// 빈 symbols 는 디렉터리 전체 로드
func (s *CSVSource) LoadBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]contracts.PriceBar, error) {
	if len(symbols) == 0 {
		all, err := s.Symbols()
		if err != nil {
			return nil, err
		}
		symbols = all
	}

	out := make(map[string][]contracts.PriceBar, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.dir, sym+".csv")
		bars, err := readCSVFile(path, from, to)
		if errors.Is(err, os.ErrNotExist) {
			s.logger.WithField("symbol", sym).Warn("price file not found")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		out[sym] = bars
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"loaded":    len(out),
	}).Info("CSV price data loaded")

	return out, nil
}

func readCSVFile(path string, from, to time.Time) ([]contracts.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f, from, to)
}

// ParseCSV parses OHLCV rows, keeps rows within [from, to] (zero bounds are open)
// and returns them sorted by date. Rows with empty or "null" prices are skipped.
func ParseCSV(r io.Reader, from, to time.Time) ([]contracts.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", contracts.ErrInvalidPriceBar, required)
		}
	}

	from, to = NormalizeDate(from), NormalizeDate(to)
	var bars []contracts.PriceBar
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if isBlank(rec[cols["close"]]) {
			continue
		}

		date, err := parseDate(rec[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !from.IsZero() && date.Before(from) {
			continue
		}
		if !to.IsZero() && date.After(to) {
			continue
		}

		bar := contracts.PriceBar{Date: date}
		fields := []struct {
			col string
			dst *float64
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
		}
		for _, fld := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[fld.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, fld.col, contracts.ErrInvalidPriceBar)
			}
			*fld.dst = v
		}

		vol, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["volume"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d volume: %w", line, contracts.ErrInvalidPriceBar)
		}
		bar.Volume = int64(vol)

		bars = append(bars, bar)
	}

	SortBars(bars)
	return bars, nil
}

func isBlank(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "" || s == "null" || s == "nan"
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", contracts.ErrInvalidPriceBar, s)
}
