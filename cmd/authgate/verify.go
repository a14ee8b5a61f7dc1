package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/NavarchProject/authgate/pkg/auth"
	"github.com/NavarchProject/authgate/pkg/config"
	"github.com/NavarchProject/authgate/pkg/gateway"
)

func verifyCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "verify <token|->",
		Short: "Verify a token with the configured secret and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			token := args[0]
			if token == "-" {
				token, err = readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			codec, err := gateway.NewCodec(ctx, cfg.Auth, nil, nil)
			if err != nil {
				return err
			}

			claims, err := codec.Verify(token)
			if err != nil {
				var verr *auth.VerificationError
				if errors.As(err, &verr) {
					return fmt.Errorf("%s (%s): %w", verr.Message(), verr.Kind, err)
				}
				return err
			}

			switch outputFormat {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(claims)
			case "table":
				return outputClaims(cmd.OutOrStdout(), claims)
			default:
				return fmt.Errorf("unsupported output format: %s", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")

	return cmd
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading token: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token on stdin")
	}
	return line, nil
}

func outputClaims(w io.Writer, claims auth.Claims) error {
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Append([]string{"Claim", "Value"})
	for _, k := range keys {
		table.Append([]string{k, formatClaim(claims[k])})
	}
	return table.Render()
}

func formatClaim(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
