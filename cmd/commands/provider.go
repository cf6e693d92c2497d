package commands

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/repository"
)

func providerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage providers",
	}

	availability := &cobra.Command{
		Use:   "availability [provider-id] [available|busy|break|offline]",
		Short: "Set provider availability; offline providers take no new requests",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid provider id: %w", err)
			}
			state := model.ProviderAvailability(args[1])
			if !state.Valid() {
				return fmt.Errorf("unknown availability %q", args[1])
			}

			gormDB, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			repo := repository.NewGormProviderRepository(gormDB)
			if err := repo.SetAvailability(cmd.Context(), id, state); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("provider %s not found", id)
				}
				return fmt.Errorf("set availability: %w", err)
			}

			log.Info().Str("provider_id", id.String()).Str("availability", string(state)).Msg("provider availability updated")
			fmt.Fprintf(cmd.OutOrStdout(), "provider %s is now %s\n", id, state)
			return nil
		},
	}

	cmd.AddCommand(availability)
	return cmd
}
