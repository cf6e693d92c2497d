package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Leganyst/appointment-queue/internal/config"
	"github.com/Leganyst/appointment-queue/internal/logging"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "queuecore",
		Short:         "Provider appointment queue core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			log = logging.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)
			return nil
		},
	}

	root.AddCommand(serveCmd(), migrateCmd(), queueCmd(), providerCmd())

	if err := root.Execute(); err != nil {
		logFailure(err)
		return err
	}
	return nil
}

func logFailure(err error) {
	// логгер мог не успеть собраться, если упал сам конфиг
	if cfg == nil {
		log = logging.New("queuecore", "info", false)
	}
	log.Error().Err(err).Msg("command failed")
}
