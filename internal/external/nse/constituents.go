package nse

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s1_universe"
)

// ErrNoTable is returned when a page has no table with a symbol column
var ErrNoTable = errors.New("no constituents table found")

const croreINR = 1e7

// columns holds header positions; -1 = absent
type columns struct {
	symbol, company, sector, marketCap int
	capInCrore                         bool
}

// ParseConstituents reads the first HTML table that has a symbol column
// ⭐ SSOT: 구성종목 HTML 파싱은 여기서만
//
// Company, sector and market cap columns are optional. Rows without a
// symbol are skipped, and repeated symbols keep the first row.
func ParseConstituents(html []byte) ([]contracts.Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var members []contracts.Constituent
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols, ok := headerColumns(table)
		if !ok {
			return true
		}
		found = true
		members = parseRows(table, cols)
		return false
	})

	if !found {
		return nil, ErrNoTable
	}
	return members, nil
}

func headerColumns(table *goquery.Selection) (columns, bool) {
	cols := columns{symbol: -1, company: -1, sector: -1, marketCap: -1}

	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		h := strings.ToLower(strings.TrimSpace(cell.Text()))
		switch {
		case strings.Contains(h, "symbol") && cols.symbol < 0:
			cols.symbol = i
		case strings.Contains(h, "company") && cols.company < 0:
			cols.company = i
		case (strings.Contains(h, "sector") || strings.Contains(h, "industry")) && cols.sector < 0:
			cols.sector = i
		case strings.Contains(h, "market cap") && cols.marketCap < 0:
			cols.marketCap = i
			cols.capInCrore = strings.Contains(h, "crore")
		}
	})

	return cols, cols.symbol >= 0
}

func parseRows(table *goquery.Selection, cols columns) []contracts.Constituent {
	members := make([]contracts.Constituent, 0)
	seen := make(map[string]bool)

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // 헤더
		}
		cells := row.Find("th, td")
		text := func(idx int) string {
			if idx < 0 || idx >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(idx).Text())
		}

		symbol := s1_universe.NormalizeSymbol(text(cols.symbol))
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true

		c := contracts.Constituent{
			Symbol:  symbol,
			Company: text(cols.company),
			Sector:  text(cols.sector),
		}
		if v, ok := parseNumber(text(cols.marketCap)); ok {
			if cols.capInCrore {
				v *= croreINR
			}
			c.MarketCap = &v
		}
		members = append(members, c)
	})

	return members
}

// parseNumber accepts thousands separators; "", "-" and junk are not numbers
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
