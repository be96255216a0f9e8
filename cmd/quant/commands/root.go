package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "qmomentum - 12-1 momentum + FIP screener and quarterly backtester",
	Long: `qmomentum Unified CLI

NIFTY 50/500 유니버스 대상 12-1 모멘텀 + FIP 스크리너.
S0 데이터 품질 → S1 유니버스 → S2 시그널 → S3/S4 필터·랭킹 → S5 포트폴리오 → S6 청산 → S7 성과.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant screen --top 20
  go run ./cmd/quant backtest run --from 2019-01-01 --to 2023-12-31
  go run ./cmd/quant calendar --year 2024
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// SIGINT/SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default: $STRATEGY_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
