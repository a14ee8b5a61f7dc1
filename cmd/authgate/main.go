package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "authgate",
		Short:         "Authentication and role authorization gateway",
		Long:          `authgate verifies caller credentials and role claims before forwarding requests to an upstream API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("AUTHGATE_CONFIG")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to configuration file (env: AUTHGATE_CONFIG)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}
