package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rl1809/pos/internal/adapter/storage"
	"github.com/rl1809/pos/internal/config"
)

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply the embedded schema migrations to the MySQL database.

Example:
  pos migrate
  pos migrate --down 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqlx.Connect("mysql", cfg.MySQLDSN)
			if err != nil {
				return fmt.Errorf("connect mysql: %w", err)
			}
			defer db.Close()

			if down > 0 {
				if err := storage.RollbackMigrations(db.DB, down); err != nil {
					return err
				}
			} else if err := storage.RunMigrations(db.DB); err != nil {
				return err
			}

			version, dirty, err := storage.MigrationVersion(db.DB)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("schema migrated")
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")

	return cmd
}
