package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/brain"
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "모멘텀 스크리닝 실행",
	Long: `기준일의 12-1 모멘텀 + FIP 랭킹과 포트폴리오를 산출합니다.

파이프라인:
- S0 데이터 품질 검사
- S1 유니버스 (NIFTY 50/500)
- S2 모멘텀 + FIP 스코어
- S3/S4 진입 필터 및 70/30 랭킹
- S5 동일가중 포트폴리오 구성

Example:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --as-of 2024-03-28 --top 20
  go run ./cmd/quant screen --previous RELIANCE,TCS,INFY --save`,
	RunE: runScreen,
}

var (
	screenAsOf           string
	screenTop            int
	screenPrevious       string
	screenCapital        float64
	screenSave           bool
	screenJSON           bool
	screenExcludeSymbols string
	screenExcludeSectors string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenAsOf, "as-of", "", "기준일 (YYYY-MM-DD, 기본: 최근 거래일)")
	screenCmd.Flags().IntVar(&screenTop, "top", 20, "출력할 랭킹 수 (0 = 전체)")
	screenCmd.Flags().StringVar(&screenPrevious, "previous", "", "직전 보유 종목 (쉼표 구분, 회전율 계산)")
	screenCmd.Flags().Float64Var(&screenCapital, "capital", 0, "포트폴리오 금액 (기본: strategy initial_capital)")
	screenCmd.Flags().BoolVar(&screenSave, "save", false, "결과를 DB에 저장")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON 출력")
	screenCmd.Flags().StringVar(&screenExcludeSymbols, "exclude", "", "제외 종목 (쉼표 구분)")
	screenCmd.Flags().StringVar(&screenExcludeSectors, "exclude-sectors", "", "제외 섹터 (쉼표 구분)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	asOf := time.Now()
	if screenAsOf != "" {
		asOf, err = parseDateFlag("as-of", screenAsOf, asOf)
		if err != nil {
			return err
		}
	}

	series, loadDiags, err := a.loadSeries(ctx, nil, asOf, asOf)
	if err != nil {
		return err
	}
	if screenAsOf == "" {
		// 최근 거래일 기준
		asOf = s0_data.LastTradingDate(series)
	}

	var store contracts.ScreeningStore
	if screenSave {
		if err := a.requireDB(); err != nil {
			return err
		}
		store = a.screeningStore()
	}

	orchestrator := brain.NewOrchestrator(a.strategy,
		a.universeBuilder(splitList(screenExcludeSymbols), splitList(screenExcludeSectors)), store, a.log)

	result, err := orchestrator.Screen(ctx, brain.ScreenRequest{
		AsOf:           asOf,
		Series:         series,
		PortfolioValue: screenCapital,
		Previous:       splitList(screenPrevious),
	})
	if result != nil {
		result.Diagnostics = append(loadDiags, result.Diagnostics...)
	}
	if err != nil && !errors.Is(err, contracts.ErrEmptyUniverse) {
		return fmt.Errorf("screening failed: %w", err)
	}

	if screenJSON {
		return printJSON(result)
	}

	printScreeningResult(result, screenTop)
	if err != nil {
		PrintWarning("No symbol passed the entry filter")
	}
	if screenSave && err == nil {
		PrintSuccess(fmt.Sprintf("Saved screening run %s", result.RunID))
	}
	return nil
}

func printScreeningResult(result *contracts.ScreeningResult, top int) {
	PrintHeader("Momentum Screening", [][2]string{
		{"Run ID", result.RunID},
		{"As of", result.AsOf.Format("2006-01-02")},
		{"Universe", result.Universe},
		{"Config", shortHash(result.ConfigHash)},
		{"Scored", fmt.Sprintf("%d (passed %d)", result.Scored, len(result.Ranked))},
	})

	ranked := result.Ranked
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	if len(ranked) > 0 {
		fmt.Println()
		widths := []int{4, 12, 10, 8, 10, 8, 8, 12, 10}
		PrintTableHeader([]string{"#", "Symbol", "12-1 Mom", "FIP", "Close", "Mom%", "Qual%", "Strength", "Score"}, widths)
		for i, r := range ranked {
			PrintTableRow([]string{
				fmt.Sprintf("%d", i+1),
				r.Symbol,
				formatPct(r.Momentum12M),
				fmt.Sprintf("%.3f", r.FIPScore),
				fmt.Sprintf("%.2f", r.Close),
				fmt.Sprintf("%.1f", r.MomentumPercentile),
				fmt.Sprintf("%.1f", r.QualityPercentile),
				r.MomentumStrength(),
				fmt.Sprintf("%.4f", r.CombinedScore),
			}, widths)
		}
	}

	if len(result.Positions) > 0 {
		fmt.Println()
		fmt.Println("📦 Portfolio")
		widths := []int{12, 10, 8, 14, 10, 10}
		PrintTableHeader([]string{"Symbol", "Entry", "Shares", "Invested", "Stop", "Target"}, widths)
		for _, p := range result.Positions {
			shares := fmt.Sprintf("%d", p.Shares)
			if p.HasFlag(contracts.FlagPriceAboveSlot) {
				shares += "*"
			}
			PrintTableRow([]string{
				p.Symbol,
				fmt.Sprintf("%.2f", p.EntryPrice),
				shares,
				formatNumber(p.Invested()),
				fmt.Sprintf("%.2f", p.StopLossPrice),
				fmt.Sprintf("%.2f", p.TargetPrice),
			}, widths)
		}
	}

	if t := result.Turnover; t != nil {
		fmt.Println()
		fmt.Println("🔄 Turnover")
		PrintKeyValue("Added", fmt.Sprintf("%v", t.Added), 10)
		PrintKeyValue("Removed", fmt.Sprintf("%v", t.Removed), 10)
		PrintKeyValue("Rate", fmt.Sprintf("%.1f%%", t.Rate*100), 10)
	}

	if verbose {
		printStages(result.Stages)
	}
	printDiagnostics(result.Diagnostics)
	fmt.Println()
}

// printStages prints the symbol funnel through S0..S5
func printStages(stages []contracts.StageReport) {
	if len(stages) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("🧭 Stages")
	widths := []int{4, 18, 6, 6, 8, 30}
	PrintTableHeader([]string{"", "Stage", "In", "Out", "ms", "Dropped"}, widths)
	for _, st := range stages {
		reasons := make([]string, 0, len(st.Dropped))
		for reason, n := range st.Dropped {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
		sort.Strings(reasons)
		PrintTableRow([]string{
			st.Stage.ShortName(),
			string(st.Stage),
			fmt.Sprintf("%d", st.In),
			fmt.Sprintf("%d", st.Out),
			fmt.Sprintf("%d", st.DurationMs),
			strings.Join(reasons, " "),
		}, widths)
	}
}

// printDiagnostics prints counts per kind
func printDiagnostics(diags contracts.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	counts := make(map[contracts.DiagnosticKind]int)
	var order []contracts.DiagnosticKind
	for _, d := range diags {
		if counts[d.Kind] == 0 {
			order = append(order, d.Kind)
		}
		counts[d.Kind]++
	}

	fmt.Println()
	fmt.Println("🩺 Diagnostics")
	for _, k := range order {
		PrintKeyValue(string(k), fmt.Sprintf("%d", counts[k]), 24)
	}
	if verbose {
		items := make([]string, 0, len(diags))
		for _, d := range diags {
			items = append(items, d.String())
		}
		PrintList(items)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
