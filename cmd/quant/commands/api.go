package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/internal/api"
	"github.com/wonny/qmomentum/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `스크리닝/백테스트 조회용 HTTP API 서버를 시작합니다.

Endpoints:
  GET /health
  GET /api/screening/latest
  GET /api/screening/{YYYY-MM-DD}
  GET /api/backtests/{id}
  GET /api/backtests/{id}/trades
  GET /api/calendar/rebalance

DATABASE_URL 이 없으면 calendar 와 health 만 제공합니다.

Example:
  go run ./cmd/quant api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	h := api.Handlers{
		Calendar: handlers.NewCalendarHandler(a.strategy.Rebalance),
	}
	if a.db != nil {
		h.Screening = handlers.NewScreeningHandler(a.screeningStore(), a.log)
		h.Backtest = handlers.NewBacktestHandler(a.backtestStore(), a.log)
		h.Health = a.db
	} else {
		a.log.Warn("DATABASE_URL not set, serving calendar and health only")
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("🚀 API server listening on :%s (Ctrl+C to stop)\n", a.cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
