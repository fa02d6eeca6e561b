package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	historySQL "github.com/sharetube/watchtogether/internal/repository/history/sql"
	"github.com/sharetube/watchtogether/pkg/dbclient"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <command> [args]",
	Short: "Run history database migrations (up, down, status, version, ...)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newViper(cmd.Flags(), migrateVars)
		if err != nil {
			return err
		}
		driver := v.GetString(historyDriver.flagKey)

		dialect, _, err := historySQL.Dialect(driver)
		if err != nil {
			return err
		}
		fsys, err := historySQL.MigrationsFS(driver)
		if err != nil {
			return err
		}

		db, err := dbclient.NewDB(cmd.Context(), &dbclient.Config{
			Driver: driver,
			DSN:    v.GetString(historyDSN.flagKey),
		})
		if err != nil {
			return err
		}
		defer db.Close()

		goose.SetBaseFS(fsys)
		if err := goose.SetDialect(string(dialect)); err != nil {
			return fmt.Errorf("goose: %w", err)
		}

		if err := goose.RunContext(cmd.Context(), args[0], db.DB, ".", args[1:]...); err != nil {
			return fmt.Errorf("goose: %s failed: %w", args[0], err)
		}

		return nil
	},
}

func init() {
	registerFlags(migrateCmd.Flags(), migrateVars)
	rootCmd.AddCommand(migrateCmd)
}
