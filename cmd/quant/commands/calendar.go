package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/backtest"
)

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "리밸런싱 일정 조회",
	Long: `설정된 리밸런싱 월의 월말 일정과 다음 리밸런싱일을 출력합니다.

실제 리밸런싱은 해당 월의 마지막 거래일에 수행됩니다.

Example:
  go run ./cmd/quant calendar
  go run ./cmd/quant calendar --year 2024
  go run ./cmd/quant calendar --from 2024-06-15`,
	RunE: runCalendar,
}

var (
	calendarYear int
	calendarFrom string
)

func init() {
	rootCmd.AddCommand(calendarCmd)

	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "조회 연도 (기본: 기준일 연도)")
	calendarCmd.Flags().StringVar(&calendarFrom, "from", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	strategy, err := loadStrategy()
	if err != nil {
		return err
	}

	from, err := parseDateFlag("from", calendarFrom, time.Now())
	if err != nil {
		return err
	}
	year := from.Year()
	if calendarYear > 0 {
		year = calendarYear
	}

	PrintHeader("Rebalance Calendar", [][2]string{
		{"Strategy", strategy.Meta.StrategyID},
		{"Months", fmt.Sprintf("%v", strategy.Rebalance.Months)},
		{"Year", fmt.Sprintf("%d", year)},
	})

	widths := []int{12, 12, 10}
	PrintTableHeader([]string{"Month End", "Last Wkday", "Weekday"}, widths)
	for _, d := range backtest.RebalanceDates(year, strategy.Rebalance) {
		last := backtest.LastWeekday(d.Year(), d.Month())
		PrintTableRow([]string{d.Format("2006-01-02"), last.Format("2006-01-02"), last.Weekday().String()}, widths)
	}

	fmt.Println()
	next := backtest.NextRebalanceDate(from, strategy.Rebalance)
	PrintInfo(fmt.Sprintf("Next rebalance after %s: %s", from.Format("2006-01-02"), next.Format("2006-01-02")))
	return nil
}
