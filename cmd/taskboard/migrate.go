package main

import (
	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(gdb); err != nil {
			return err
		}

		logutils.WithComponent("migrate").Info("Database schema is up to date")
		return nil
	},
}
