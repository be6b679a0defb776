package main

import (
	"fmt"
	"nytimes/internal/app"
	"nytimes/internal/config"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "nytimes",
		Short:         "NYTimes top stories and article search proxy",
		Long:          "nytimes serves top stories per category and article search on top of the New York Times APIs.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			application, err := app.New(cfg)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to JSON config file (defaults and environment are used when empty)")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nytimes %s\n", version)
		},
	})
	return rootCmd
}
