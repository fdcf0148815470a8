package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/guillermoBallester/askdb/internal/chat"
	"github.com/guillermoBallester/askdb/internal/core/service"
	"github.com/spf13/cobra"
)

func newChatCmd(flags *flagValues) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session: ask questions, review SQL, confirm changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), overridesFrom(cmd.Flags(), flags), slog.LevelWarn)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(cmd.Context()) }()

			return newSession(a, cmd, yes, "chat").Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "run statements that need confirmation without asking")
	return cmd
}

func newAskCmd(flags *flagValues) *cobra.Command {
	var (
		yes     bool
		csvPath string
		rawSQL  string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question (or run one statement with --sql) and exit",
		Example: `  askdb ask "how many orders were placed last week?"
  askdb ask --sql "SELECT * FROM orders" --csv orders.csv
  askdb ask --yes "delete the test customers"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && rawSQL == "" {
				return errors.New("provide a question or --sql")
			}
			if question != "" && rawSQL != "" {
				return errors.New("provide either a question or --sql, not both")
			}

			a, err := newApp(cmd.Context(), overridesFrom(cmd.Flags(), flags), slog.LevelWarn)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(cmd.Context()) }()

			session := newSession(a, cmd, yes, "ask")
			ctx := service.WithToolName(cmd.Context(), "ask")
			if rawSQL != "" {
				err = session.Exec(ctx, rawSQL)
			} else {
				err = session.Ask(ctx, question)
			}
			if err != nil {
				return err
			}
			if csvPath != "" {
				return session.ExportCSV(csvPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "run the statement even when it needs confirmation")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the result set to this CSV file")
	cmd.Flags().StringVar(&rawSQL, "sql", "", "run this SQL statement instead of asking a question")
	return cmd
}

func newSession(a *app, cmd *cobra.Command, autoConfirm bool, source string) *chat.Session {
	cfg := chat.Config{
		Runner:      a.query,
		History:     a.memory,
		In:          os.Stdin,
		Out:         cmd.OutOrStdout(),
		Logger:      a.logger,
		AutoConfirm: autoConfirm,
		Source:      source,
	}
	if a.ask != nil {
		cfg.Asker = a.ask
	}
	return chat.NewSession(cfg)
}
