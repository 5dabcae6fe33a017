// Command transcribot replies to voice messages with their transcript.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/transcribot/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Chat bot that transcribes voice messages with Gladia",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), versionCmd())
	return root
}

func runCmd() *cobra.Command {
	var configFile, envFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat platform and start transcribing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config.yml")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to a .env file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, built %s)\n", serviceName, v.String(), v.GoVersion, v.BuildTime)
		},
	}
}
