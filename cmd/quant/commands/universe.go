package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/internal/scheduler/jobs"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "S1 유니버스 관리",
	Long: `지수 구성종목을 동기화하고 유니버스를 조회합니다.

Subcommands:
  sync  - 구성종목 페이지를 수집해 DB에 저장
  show  - 기준일 유니버스 출력 (가격 데이터와 교차)

Example:
  go run ./cmd/quant universe sync
  go run ./cmd/quant universe show --as-of 2024-03-28 --save`,
}

var (
	universeSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "구성종목 동기화",
		RunE:  syncUniverse,
	}

	universeShowCmd = &cobra.Command{
		Use:   "show",
		Short: "유니버스 조회",
		RunE:  showUniverse,
	}

	universeSelectors []string
	universeAsOf      string
	universeSave      bool
	universeExclude   string
	universeSectors   string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeSyncCmd)
	universeCmd.AddCommand(universeShowCmd)

	universeSyncCmd.Flags().StringSliceVar(&universeSelectors, "selector",
		[]string{s1_universe.SelectorNifty50, s1_universe.SelectorNifty500}, "동기화할 지수")

	universeShowCmd.Flags().StringVar(&universeAsOf, "as-of", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
	universeShowCmd.Flags().BoolVar(&universeSave, "save", false, "스냅샷을 DB에 저장")
	universeShowCmd.Flags().StringVar(&universeExclude, "exclude", "", "제외 종목 (쉼표 구분)")
	universeShowCmd.Flags().StringVar(&universeSectors, "exclude-sectors", "", "제외 섹터 (쉼표 구분)")
}

func syncUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireDB(); err != nil {
		return err
	}
	scraper := a.scraper()
	if scraper == nil {
		return fmt.Errorf("no constituents page configured (NIFTY50_CONSTITUENTS_URL / NIFTY500_CONSTITUENTS_URL)")
	}

	job := jobs.NewConstituentsJob(scraper, s1_universe.NewRepository(a.db.Pool), universeSelectors, a.log)
	if err := job.Run(ctx); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Synced constituents for %v", universeSelectors))
	return nil
}

func showUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	asOf, err := parseDateFlag("as-of", universeAsOf, time.Now())
	if err != nil {
		return err
	}
	if universeSave {
		if err := a.requireDB(); err != nil {
			return err
		}
	}

	series, _, err := a.loadSeries(ctx, nil, asOf, asOf)
	if err != nil {
		return err
	}

	universe, err := a.universeBuilder(splitList(universeExclude), splitList(universeSectors)).Build(ctx, series, asOf)
	if err != nil {
		return err
	}

	PrintHeader("Universe", [][2]string{
		{"Selector", universe.Name},
		{"As of", asOf.Format("2006-01-02")},
		{"Eligible", fmt.Sprintf("%d", universe.Count())},
		{"Excluded", fmt.Sprintf("%d", len(universe.Excluded))},
	})

	widths := []int{14, 28}
	PrintTableHeader([]string{"Symbol", "Sector"}, widths)
	for _, sym := range universe.Symbols() {
		PrintTableRow([]string{sym, universe.Sector(sym)}, widths)
	}

	if len(universe.Excluded) > 0 {
		fmt.Println()
		fmt.Println("🚫 Excluded")
		excluded := make([]string, 0, len(universe.Excluded))
		for sym, reason := range universe.Excluded {
			excluded = append(excluded, fmt.Sprintf("%s: %s", sym, reason))
		}
		sort.Strings(excluded)
		PrintList(excluded)
	}

	if universeSave {
		if err := s1_universe.NewRepository(a.db.Pool).SaveUniverse(ctx, universe); err != nil {
			return err
		}
		PrintSuccess("Universe snapshot saved")
	}
	return nil
}
