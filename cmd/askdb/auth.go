package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/guillermoBallester/askdb/internal/secrets"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the LLM API key stored in the OS keychain",
	}
	cmd.AddCommand(newAuthSetKeyCmd(), newAuthClearKeyCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the LLM API key (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				pterm.Fprint(cmd.OutOrStdout(), "API key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading key: %w", err)
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("API key is empty")
			}

			store, err := secrets.Open()
			if err != nil {
				return err
			}
			if err := store.SetLLMAPIKey(key); err != nil {
				return err
			}
			pterm.Fprintln(cmd.OutOrStdout(), pterm.NewStyle(pterm.FgGreen).Sprint("API key saved to the system keychain."))
			return nil
		},
	}
}

func newAuthClearKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored LLM API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := secrets.Open()
			if err != nil {
				return err
			}
			if err := store.ClearLLMAPIKey(); err != nil {
				return err
			}
			pterm.Fprintln(cmd.OutOrStdout(), "API key removed.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the LLM API key comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if os.Getenv("LLM_API_KEY") != "" {
				pterm.Fprintln(out, "LLM API key: set via LLM_API_KEY")
				return nil
			}
			store, err := secrets.Open()
			if err != nil {
				return err
			}
			key, err := store.LLMAPIKey()
			if err != nil {
				return err
			}
			if key == "" {
				pterm.Fprintln(out, pterm.NewStyle(pterm.FgYellow).Sprint("LLM API key: not configured"))
				return nil
			}
			pterm.Fprintln(out, "LLM API key: stored in the system keychain")
			return nil
		},
	}
}
