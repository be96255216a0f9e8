package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/config"
)

// strategyCmd represents the strategy command
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "전략 설정 관리",
	Long: `전략 YAML 을 조회하고 검증합니다.

Subcommands:
  show      - 적용되는 전체 설정 출력 (기본값 포함)
  validate  - YAML 검증 및 경고 출력
  hash      - 재현성용 설정 해시

Example:
  go run ./cmd/quant strategy show
  go run ./cmd/quant strategy validate --strategy config/strategy/quant_momentum.yaml`,
}

var (
	strategyShowCmd = &cobra.Command{
		Use:   "show",
		Short: "적용 설정 출력",
		RunE:  showStrategy,
	}

	strategyValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증",
		RunE:  validateStrategy,
	}

	strategyHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "설정 해시 출력",
		RunE:  hashStrategy,
	}
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyShowCmd)
	strategyCmd.AddCommand(strategyValidateCmd)
	strategyCmd.AddCommand(strategyHashCmd)
}

// resolveStrategyPath applies --strategy over $STRATEGY_CONFIG
func resolveStrategyPath() (string, error) {
	if strategyPath != "" {
		return strategyPath, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.StrategyConfigPath, nil
}

// loadStrategy loads the strategy without connecting any store
func loadStrategy() (*strategyconfig.Config, error) {
	path, err := resolveStrategyPath()
	if err != nil {
		return nil, err
	}
	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	return strategy, nil
}

func showStrategy(cmd *cobra.Command, args []string) error {
	strategy, err := loadStrategy()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(strategy)
}

func validateStrategy(cmd *cobra.Command, args []string) error {
	path, err := resolveStrategyPath()
	if err != nil {
		return err
	}
	if path == "" {
		PrintInfo("No strategy file given, checking built-in defaults")
	}

	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	if err := strategyconfig.Validate(strategy); err != nil {
		return err
	}

	warnings := strategyconfig.Warn(strategy)
	for _, w := range warnings {
		fmt.Printf("⚠️  [%s] %s\n", w.Code, w.Message)
	}

	PrintSuccess(fmt.Sprintf("%s v%s is valid (%d warnings)", strategy.Meta.StrategyID, strategy.Meta.Version, len(warnings)))
	return nil
}

func hashStrategy(cmd *cobra.Command, args []string) error {
	strategy, err := loadStrategy()
	if err != nil {
		return err
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
