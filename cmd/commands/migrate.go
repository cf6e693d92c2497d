package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/appointment-queue/internal/model"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := model.AutoMigrate(gormDB); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Info().Str("driver", cfg.DB.Driver).Msg("migrations applied")
			return nil
		},
	}
}
