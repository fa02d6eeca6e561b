package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharetube/watchtogether/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay and API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := loadAppConfig(cmd.Flags())
		if err != nil {
			return err
		}
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
		fmt.Printf("starting app with config: %s\n", jsonConfig)

		return app.Run(cmd.Context(), appConfig)
	},
}

func init() {
	registerFlags(serveCmd.Flags(), serveVars)
	rootCmd.AddCommand(serveCmd)
}
