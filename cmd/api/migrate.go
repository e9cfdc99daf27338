package main

import (
	"tidsregistrering/internal/config"
	"tidsregistrering/internal/db"
	"tidsregistrering/internal/logger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply migrations and seed the store, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg := logger.New(cfg.LogLevel)
			defer lg.Sync()

			gdb, err := openStore(cmd.Context(), cfg, lg)
			if err != nil {
				return err
			}
			return db.Close(gdb)
		},
	}
}
