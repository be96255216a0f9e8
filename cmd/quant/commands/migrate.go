package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qmomentum/migrations"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 적용",
	Long: `market / selection / audit 스키마를 생성합니다.

모든 구문은 IF NOT EXISTS 로 작성되어 반복 실행해도 안전합니다.

Example:
  DATABASE_URL=postgres://... go run ./cmd/quant migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireDB(); err != nil {
		return err
	}

	applied, err := a.db.Migrate(ctx, migrations.FS)
	if err != nil {
		return err
	}

	for _, name := range applied {
		PrintSuccess(fmt.Sprintf("Applied %s", name))
	}
	return nil
}
