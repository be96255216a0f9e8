package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/brain"
	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/internal/scheduler"
	"github.com/wonny/qmomentum/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_screening`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (strategy meta.timezone 기준):
- daily_screening: 평일 16:30 (최근 거래일 스크리닝)
- quarterly_rebalance: 평일 17:00 (리밸런싱 월 마지막 거래일에만 실행)
- constituents_sync: 월요일 07:00 (구성종목 페이지 수집, DB + URL 필요)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %-22s next: %s\n", jobName, next.Format("2006-01-02 15:04 MST"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	printJobStats(sched.GetJobStats())
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-22s %s\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobName := args[0]

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Ctrl+C 시 실행 중인 작업 취소
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sched.Stop()
		case <-done:
		}
	}()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %s: %s", jobName, result.Duration.Round(time.Millisecond), result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func printJobStats(stats map[string]scheduler.JobStats) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range names {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// initScheduler registers the jobs the configured stores can support
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	opts := []scheduler.Option{}
	if tz := a.strategy.Meta.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("strategy timezone %q: %w", tz, err)
		}
		opts = append(opts, scheduler.WithLocation(loc))
	}
	sched := scheduler.New(a.log, opts...)

	source, err := a.priceSource()
	if err != nil {
		return nil, err
	}

	store := a.screeningStore()
	universe := a.universeBuilder(nil, nil)
	minHistory := a.strategy.Signals.MinHistory()

	if err := sched.AddJob(jobs.NewScreeningJob(source, brain.NewOrchestrator(a.strategy, universe, store, a.log), minHistory, a.log)); err != nil {
		return nil, err
	}

	if store == nil {
		a.log.Warn("DATABASE_URL not set, screening results are not persisted and rebalance runs without previous holdings")
	}
	if err := sched.AddJob(jobs.NewRebalanceJob(source, brain.NewOrchestrator(a.strategy, universe, store, a.log), store, a.strategy, a.log)); err != nil {
		return nil, err
	}

	if scraper := a.scraper(); scraper != nil && a.db != nil {
		selectors := []string{s1_universe.SelectorNifty50, s1_universe.SelectorNifty500}
		if err := sched.AddJob(jobs.NewConstituentsJob(scraper, s1_universe.NewRepository(a.db.Pool), selectors, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
