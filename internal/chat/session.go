// Package chat implements the interactive question/answer loop: questions go
// through the translator, SQL through the safety gate, and anything that is
// not read-only needs an explicit "yes" before it runs.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/guillermoBallester/askdb/internal/core/service"
	"github.com/guillermoBallester/askdb/internal/export"
	"github.com/pterm/pterm"
)

// Asker turns a question into candidate SQL.
type Asker interface {
	Generate(ctx context.Context, question string) (*service.Candidate, error)
}

// Runner executes SQL through the gate.
type Runner interface {
	Execute(ctx context.Context, sql string, confirmed bool) (*service.Outcome, error)
}

// HistoryLister returns the session's recorded queries, oldest first.
type HistoryLister interface {
	Entries() []port.HistoryEntry
}

type Config struct {
	Asker   Asker // nil disables natural-language questions; :sql still works
	Runner  Runner
	History HistoryLister
	In      io.Reader
	Out     io.Writer
	Logger  *slog.Logger
	// AutoConfirm answers the confirmation prompt with "yes" without asking.
	AutoConfirm bool
	// Source tags history entries; defaults to "chat".
	Source string
}

// Session is one REPL run. Not safe for concurrent use.
type Session struct {
	asker       Asker
	runner      Runner
	history     HistoryLister
	in          *bufio.Scanner
	out         io.Writer
	logger      *slog.Logger
	autoConfirm bool
	source      string

	last *port.Result
}

func NewSession(cfg Config) *Session {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Source == "" {
		cfg.Source = "chat"
	}
	return &Session{
		asker:       cfg.Asker,
		runner:      cfg.Runner,
		history:     cfg.History,
		in:          bufio.NewScanner(cfg.In),
		out:         cfg.Out,
		logger:      cfg.Logger,
		autoConfirm: cfg.AutoConfirm,
		source:      cfg.Source,
	}
}

// Run reads commands until exit, end of input or context cancellation.
func (s *Session) Run(ctx context.Context) error {
	pterm.Fprintln(s.out, fmt.Sprintf("%s - ask a question, :sql <statement>, :history, :csv <path>, exit",
		pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("askdb")))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pterm.Fprint(s.out, "\n> ")
		line, ok := s.readLine()
		if !ok {
			pterm.Fprintln(s.out)
			return s.in.Err()
		}
		quit, err := s.Handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.printError(err)
		}
		if quit {
			return nil
		}
	}
}

// Handle processes one input line. quit is true for exit/quit.
func (s *Session) Handle(ctx context.Context, line string) (quit bool, err error) {
	ctx = service.WithToolName(ctx, s.source)
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	case ":history":
		s.printHistory()
		return false, nil
	case ":csv":
		return false, s.ExportCSV(arg)
	case ":sql":
		if arg == "" {
			return false, errors.New("usage: :sql <statement>")
		}
		return false, s.Exec(ctx, arg)
	default:
		return false, s.Ask(ctx, line)
	}
}

// Ask generates SQL for question, shows it, then runs it through the gate.
func (s *Session) Ask(ctx context.Context, question string) error {
	if s.asker == nil {
		return errors.New("no LLM configured; set LLM_API_KEY or use :sql <statement>")
	}

	ctx = service.WithQuestion(ctx, question)
	cand, err := s.asker.Generate(ctx, question)
	if err != nil {
		return err
	}

	pterm.Fprintln(s.out, fmt.Sprintf("%s %s", pterm.NewStyle(pterm.FgLightCyan).Sprint("SQL:"), cand.SQL))
	if cand.Uncertain() {
		pterm.Fprintln(s.out, pterm.NewStyle(pterm.FgYellow).Sprintf(
			"Warning: could not validate this SQL after %d attempt(s): %s",
			cand.Attempts, cand.ValidationError))
	}
	return s.Exec(ctx, cand.SQL)
}

// Exec executes one statement, asking for confirmation when the gate blocks it.
func (s *Session) Exec(ctx context.Context, sql string) error {
	out, err := s.runner.Execute(ctx, sql, false)
	if err != nil {
		return err
	}

	if out.Blocked() {
		pterm.Fprintln(s.out, pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprintf(
			"This statement is %s and needs confirmation before it runs.", out.Verdict.Classification))
		if !s.confirm() {
			pterm.Fprintln(s.out, "Skipped execution.")
			return nil
		}
		out, err = s.runner.Execute(ctx, sql, true)
		if err != nil {
			return err
		}
	}

	s.printOutcome(out)
	return nil
}

// ExportCSV writes the last result set to path.
func (s *Session) ExportCSV(path string) error {
	if path == "" {
		return errors.New("usage: :csv <path>")
	}
	if s.last == nil {
		return errors.New("no result to export yet")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteCSV(f, s.last); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	pterm.Fprintln(s.out, fmt.Sprintf("Wrote %d row(s) to %s", len(s.last.Rows), path))
	return nil
}

// LastResult is the most recent read-only result set, or nil.
func (s *Session) LastResult() *port.Result {
	return s.last
}

func (s *Session) confirm() bool {
	if s.autoConfirm {
		return true
	}
	pterm.Fprint(s.out, "Type 'yes' to proceed: ")
	answer, ok := s.readLine()
	return ok && strings.EqualFold(strings.TrimSpace(answer), "yes")
}

func (s *Session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *Session) printOutcome(out *service.Outcome) {
	res := out.Result
	if res == nil {
		return
	}
	if out.Verdict.Classification != domain.ReadOnly {
		pterm.Fprintln(s.out, fmt.Sprintf("%d row(s) affected", res.RowsAffected))
		return
	}

	s.last = res
	if len(res.Rows) == 0 {
		pterm.Fprintln(s.out, "No rows.")
	} else {
		s.printTable(res)
		pterm.Fprintln(s.out, fmt.Sprintf("%d row(s)", len(res.Rows)))
	}
	if out.Verdict.Limited {
		pterm.Fprintln(s.out, pterm.NewStyle(pterm.FgGray).Sprint("Note: a LIMIT was added to this query."))
	}
}

func (s *Session) printTable(res *port.Result) {
	data := make(pterm.TableData, 0, len(res.Rows)+1)
	data = append(data, res.Columns)
	for _, row := range res.Rows {
		rec := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			rec[i] = export.FormatValue(row[col])
		}
		data = append(data, rec)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(s.out).Render(); err != nil {
		s.logger.Warn("rendering table", slog.String("error", err.Error()))
	}
}

func (s *Session) printHistory() {
	if s.history == nil {
		return
	}
	entries := s.history.Entries()
	if len(entries) == 0 {
		pterm.Fprintln(s.out, "No queries yet.")
		return
	}
	for i, e := range entries {
		line := fmt.Sprintf("%3d  %s  %-7s %-15s %s", i+1, e.Time.Format("15:04:05"), e.Status, e.Classification, e.SQL)
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		pterm.Fprintln(s.out, line)
	}
}

func (s *Session) printError(err error) {
	pterm.Fprintln(s.out, pterm.NewStyle(pterm.FgRed).Sprint("Error: "+err.Error()))
}
