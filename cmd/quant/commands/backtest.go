package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/backtest"
	"github.com/wonny/qmomentum/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "분기 리밸런싱 백테스트",
	Long: `과거 데이터로 모멘텀 전략을 일 단위로 시뮬레이션합니다.

백테스팅은 다음을 산출합니다:
- 일별 자산 곡선
- 청산 사유별 거래 원장
- 리스크 지표 (Sharpe, Sortino, MDD)
- 청산 사유 / 섹터 기여도

Example:
  go run ./cmd/quant backtest run --from 2019-01-01 --to 2023-12-31
  go run ./cmd/quant backtest show <run_id>`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `지정된 기간 동안 백테스트를 실행합니다.

Flags:
  --from     시작 날짜 (YYYY-MM-DD)
  --to       종료 날짜 (YYYY-MM-DD, 기본: 최근 거래일)
  --capital  초기 자본 (기본: strategy initial_capital)
  --save     결과를 DB에 저장
  --json     JSON 출력

Ctrl+C 로 중단하면 그 시점까지의 부분 결과를 출력합니다.`,
		RunE: runBacktest,
	}

	backtestShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "저장된 백테스트 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  showBacktest,
	}

	// Flags
	backtestFrom    string
	backtestTo      string
	backtestCapital float64
	backtestSave    bool
	backtestJSON    bool
	backtestTrades  int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestShowCmd)

	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	backtestRunCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "초기 자본 (기본: strategy initial_capital)")
	backtestRunCmd.Flags().BoolVar(&backtestSave, "save", false, "결과를 DB에 저장")
	backtestRunCmd.Flags().BoolVar(&backtestJSON, "json", false, "JSON 출력")
	backtestRunCmd.MarkFlagRequired("from")

	backtestShowCmd.Flags().BoolVar(&backtestJSON, "json", false, "JSON 출력")
	backtestShowCmd.Flags().IntVar(&backtestTrades, "trades", 10, "출력할 최근 거래 수")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	startDate, err := parseDateFlag("from", backtestFrom, time.Time{})
	if err != nil {
		return err
	}
	endDate, err := parseDateFlag("to", backtestTo, time.Now())
	if err != nil {
		return err
	}
	if endDate.Before(startDate) {
		return fmt.Errorf("--to %s is before --from %s", endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if backtestSave {
		if err := a.requireDB(); err != nil {
			return err
		}
	}

	series, loadDiags, err := a.loadSeries(ctx, nil, startDate, endDate)
	if err != nil {
		return err
	}

	universe, err := a.universeBuilder(nil, nil).Build(ctx, series, endDate)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	if !backtestJSON {
		fmt.Printf("\n📅 Period: %s ~ %s\n", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
		fmt.Printf("🌐 Universe: %s (%d symbols)\n", universe.Name, universe.Count())
		fmt.Printf("🔄 Rebalance months: %v\n\n", a.strategy.Rebalance.Months)
		fmt.Println("🚀 Starting backtest...")
	}

	engine := backtest.NewEngine(a.strategy, a.log)
	result, runErr := engine.Run(ctx, backtest.Request{
		From:           startDate,
		To:             endDate,
		InitialCapital: backtestCapital,
		Universe:       universe,
		Series:         series,
	})
	if result == nil {
		return fmt.Errorf("backtest failed: %w", runErr)
	}
	result.Diagnostics = append(loadDiags, result.Diagnostics...)

	if backtestSave && !result.Aborted {
		if err := a.backtestStore().SaveBacktest(ctx, result); err != nil {
			return fmt.Errorf("save backtest: %w", err)
		}
	}

	if backtestJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printBacktestResult(result, 10)
		if backtestSave && !result.Aborted {
			PrintSuccess(fmt.Sprintf("Saved backtest run %s", result.RunID))
		}
	}

	if errors.Is(runErr, contracts.ErrBacktestAborted) {
		PrintWarning("Backtest aborted; results cover the simulated days only")
	}
	return runErr
}

func showBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireDB(); err != nil {
		return err
	}

	result, err := a.backtestStore().BacktestByID(ctx, args[0])
	if errors.Is(err, contracts.ErrNotFound) {
		return fmt.Errorf("backtest %s not found", args[0])
	}
	if err != nil {
		return err
	}

	if backtestJSON {
		return printJSON(result)
	}
	printBacktestResult(result, backtestTrades)
	return nil
}

func printBacktestResult(result *contracts.BacktestResult, lastTrades int) {
	m := result.Metrics

	title := "✅ Backtest Completed"
	if result.Aborted {
		title = "⚠️  Backtest Aborted (partial)"
	}
	PrintHeader(title, [][2]string{
		{"Run ID", result.RunID},
		{"Period", fmt.Sprintf("%s ~ %s (%d days)", result.From.Format("2006-01-02"), result.To.Format("2006-01-02"), m.Days)},
		{"Rebalance", fmt.Sprintf("%d times", len(result.Rebalances))},
		{"Config", shortHash(result.ConfigHash)},
	})

	fmt.Println()
	fmt.Println("💰 Performance")
	PrintKeyValue("Initial Capital", formatNumber(m.InitialValue), 16)
	PrintKeyValue("Final Value", formatNumber(m.FinalValue), 16)
	PrintKeyValue("P&L", fmt.Sprintf("%s (%s)", formatNumber(m.FinalValue-m.InitialValue), formatPct(m.TotalReturn)), 16)
	PrintKeyValue("CAGR", formatOptional(m.CAGR, formatPct), 16)
	PrintKeyValue("Volatility", formatOptional(m.Volatility, formatPct), 16)

	fmt.Println()
	fmt.Println("📉 Risk Metrics")
	PrintKeyValue("Sharpe Ratio", formatOptional(m.Sharpe, formatRatio), 16)
	PrintKeyValue("Sortino Ratio", formatOptional(m.Sortino, formatRatio), 16)
	PrintKeyValue("Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100), 16)
	PrintKeyValue("Daily VaR 95", formatOptional(m.DailyVaR95, formatLoss), 16)
	PrintKeyValue("Daily CVaR 95", formatOptional(m.DailyCVaR95, formatLoss), 16)

	fmt.Println()
	fmt.Println("💹 Trading Metrics")
	PrintKeyValue("Total Trades", fmt.Sprintf("%d (W %d / L %d)", m.TotalTrades, m.WinningTrades, m.LosingTrades), 16)
	PrintKeyValue("Win Rate", formatOptional(m.WinRate, func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }), 16)
	PrintKeyValue("Avg Trade", formatOptional(m.AvgTradeReturn, formatPct), 16)
	PrintKeyValue("Avg Holding", formatOptional(m.AvgHoldingDays, func(v float64) string { return fmt.Sprintf("%.1f days", v) }), 16)
	PrintKeyValue("Profit Factor", formatOptional(m.ProfitFactor, formatRatio), 16)
	PrintKeyValue("Best / Worst", formatOptional(m.BestTrade, formatPct)+" / "+formatOptional(m.WorstTrade, formatPct), 16)

	printAttribution("🧾 Exit Attribution", m.ExitAttribution)
	printAttribution("🏭 Sector Attribution", m.SectorAttribution)

	if lastTrades > 0 && len(result.Trades) > 0 {
		trades := result.Trades
		if len(trades) > lastTrades {
			trades = trades[len(trades)-lastTrades:]
		}
		fmt.Println()
		fmt.Printf("📒 Trades (last %d of %d)\n", len(trades), len(result.Trades))
		widths := []int{12, 10, 10, 6, 9, 12, 22}
		PrintTableHeader([]string{"Symbol", "Entry", "Exit", "Days", "Return", "Net P&L", "Reason"}, widths)
		for _, t := range trades {
			reason := string(t.ExitReason)
			if t.Stale {
				reason += " (stale)"
			}
			PrintTableRow([]string{
				t.Symbol,
				t.EntryDate.Format("2006-01-02"),
				t.ExitDate.Format("2006-01-02"),
				fmt.Sprintf("%d", t.HoldingDays),
				formatPct(t.ReturnPct),
				formatNumber(t.NetPnL),
				reason,
			}, widths)
		}
	}

	printDiagnostics(result.Diagnostics)
	fmt.Println()
}

func printAttribution(title string, rows []contracts.AttributionRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(title)
	widths := []int{24, 7, 9, 10, 14}
	PrintTableHeader([]string{"Key", "Trades", "Win", "Avg", "Total P&L"}, widths)
	for _, r := range rows {
		PrintTableRow([]string{
			r.Key,
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("%.1f%%", r.WinRate*100),
			formatPct(r.AvgReturn),
			formatNumber(r.TotalPnL),
		}, widths)
	}
}
