package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"momentum/config"
)

var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Workforce time-tracking API",
	Long: `momentum serves the time-tracking API for organizations, their employees,
projects and tasks, and ships maintenance commands for the database.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and opens the database.
func setup() error {
	if err := config.LoadConfig(); err != nil {
		return err
	}
	if err := config.ConnectDB(); err != nil {
		return err
	}
	logrus.Debug("Database connection ready")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}
