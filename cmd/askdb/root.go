package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var flags flagValues

	root := &cobra.Command{
		Use:   "askdb",
		Short: "Ask questions about a database in plain language",
		Long: `askdb translates questions into SQL, classifies every statement as READ_ONLY,
MUTATING or DESTRUCTIVE_DDL, and only runs statements that change data or
schema after explicit confirmation. Read-only queries get a row limit.

It runs as an interactive chat, a one-shot command, or an MCP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	registerFlags(root.PersistentFlags(), &flags)

	root.AddCommand(
		newServeCmd(&flags),
		newChatCmd(&flags),
		newAskCmd(&flags),
		newAuthCmd(),
	)
	return root
}
