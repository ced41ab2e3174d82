package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rl1809/pos/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:           "pos",
		Short:         "Point-of-sale checkout service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			level, err := loaded.Level()
			if err != nil {
				return err
			}
			log.SetFormatter(&log.JSONFormatter{})
			log.SetLevel(level)
			*cfg = *loaded
			return nil
		},
	}

	cmd.AddCommand(newServeCommand(cfg))
	cmd.AddCommand(newMigrateCommand(cfg))

	return cmd
}
