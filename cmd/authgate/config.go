package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/NavarchProject/authgate/pkg/auth"
	"github.com/NavarchProject/authgate/pkg/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(configValidateCmd())
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load, validate and summarize the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			for _, r := range cfg.Routes {
				if r.Policy == "" {
					continue
				}
				if _, err := auth.CompilePolicy(r.Policy); err != nil {
					return fmt.Errorf("route %q: %w", r.Prefix, err)
				}
			}
			return outputConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func outputConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintf(w, "configuration is valid\n")
	fmt.Fprintf(w, "  address:    %s\n", cfg.Server.Address)
	fmt.Fprintf(w, "  algorithm:  %s\n", cfg.Auth.Algorithm)
	fmt.Fprintf(w, "  secret:     %s\n", cfg.Auth.Secret)
	fmt.Fprintf(w, "  cookie:     %s\n", cfg.Auth.CookieName)
	fmt.Fprintf(w, "  exempt:     %s\n", strings.Join(cfg.Auth.ExemptPaths, ", "))
	if cfg.Authority.BaseURL != "" {
		fmt.Fprintf(w, "  authority:  %s (timeout %s)\n", cfg.Authority.BaseURL, cfg.Authority.Timeout)
	}

	if len(cfg.Routes) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Append([]string{"Prefix", "Strategy", "Roles", "Policy"})
	for _, r := range cfg.Routes {
		table.Append([]string{r.Prefix, r.Strategy, strings.Join(r.Roles, ","), r.Policy})
	}
	return table.Render()
}
