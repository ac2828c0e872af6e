package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"momentum/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return err
		}
		if err := config.Migrate(config.DB); err != nil {
			return err
		}
		logrus.Info("Database migrated")
		return nil
	},
}
