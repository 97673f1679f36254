// Package shell implements the litebind interactive SQL shell.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/internal/sqlfuncs"
	"github.com/nsqlite/litebind/internal/stats"
	"github.com/nsqlite/litebind/internal/util/syncutil"
	"github.com/nsqlite/litebind/sqlitec"
)

// errQuit is returned by Execute when the input asks the shell to exit.
var errQuit = errors.New("quit")

// Shell executes SQL and dot commands against a connection and renders
// the results.
type Shell struct {
	conn   *sqlitec.Conn
	out    io.Writer
	logger log.Logger
	stats  *stats.ConnStats

	timer   bool
	running *syncutil.Value[bool]
}

// New creates a shell over conn. It registers the extension SQL functions
// and installs the hooks that feed the .stats command.
func New(conn *sqlitec.Conn, out io.Writer, logger log.Logger) (*Shell, error) {
	if err := sqlfuncs.Register(conn); err != nil {
		return nil, fmt.Errorf("failed to register functions: %w", err)
	}

	st := stats.New()
	if err := st.Attach(conn); err != nil {
		return nil, fmt.Errorf("failed to attach stats: %w", err)
	}

	return &Shell{
		conn:    conn,
		out:     out,
		logger:  logger,
		stats:   st,
		running: syncutil.NewValue(false),
	}, nil
}

// Interrupt stops the statement being executed, if any. It may be called
// from any goroutine and reports whether a statement was running.
func (s *Shell) Interrupt() bool {
	if !s.running.Load() {
		return false
	}
	s.conn.Interrupt()
	return true
}

// prompt returns the prompt for the first line of a new input.
func (s *Shell) prompt() string {
	if s.conn.InTransaction() {
		return "litebind(tx)> "
	}
	return "litebind> "
}

// Execute runs one input, either a dot command or SQL text with any number
// of statements. Results and errors are written to the output; the returned
// error reports whether the input failed.
func (s *Shell) Execute(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if strings.HasPrefix(input, ".") {
		err := s.runDotCmd(input)
		if err != nil && !errors.Is(err, errQuit) {
			s.printError(err)
		}
		return err
	}

	if err := s.executeSQL(input); err != nil {
		s.printError(err)
		return err
	}
	return nil
}

// ExecuteScript runs a script made of SQL and dot commands, one dot command
// per line. It stops at the first failure.
func (s *Shell) ExecuteScript(script string) error {
	var pending strings.Builder

	for _, line := range strings.SplitAfter(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.TrimSpace(pending.String()) == "" && strings.HasPrefix(trimmed, ".") {
			pending.Reset()
			if err := s.Execute(trimmed); err != nil {
				return err
			}
			continue
		}

		pending.WriteString(line)
		if sqlitec.IsComplete(pending.String()) {
			if err := s.Execute(pending.String()); err != nil {
				return err
			}
			pending.Reset()
		}
	}

	return s.Execute(pending.String())
}

// executeSQL runs every statement of input, rendering each result. It stops
// at the first failing statement.
func (s *Shell) executeSQL(input string) error {
	s.running.Store(true)
	defer s.running.Store(false)

	batch := sqlitec.NewBatch(s.conn, input)
	for {
		before := batch.State()
		wasInTx := s.conn.InTransaction()

		res, ok, err := batch.NextResult()
		if err != nil {
			s.logger.DebugNs(log.NsShell, "statement failed", log.KV{
				"error": err.Error(),
			})
			return err
		}
		if !ok {
			return nil
		}

		s.stats.IncStatement(res.IsRead())
		executed := strings.TrimSpace(strings.TrimSuffix(before, batch.State()))
		s.renderResult(res, executed, wasInTx)
	}
}

// renderResult prints the result of one statement.
func (s *Shell) renderResult(res *sqlitec.QueryOrExecResult, executed string, wasInTx bool) {
	tw := newTableWriter()
	inTx := s.conn.InTransaction()

	switch {
	case !wasInTx && inTx:
		tw.AppendHeader(row("OK"))
		tw.AppendRow(row("Transaction started"))
	case wasInTx && !inTx && firstKeyword(executed) == "ROLLBACK":
		tw.AppendHeader(row("OK"))
		tw.AppendRow(row("Transaction rolled back"))
	case wasInTx && !inTx:
		tw.AppendHeader(row("OK"))
		tw.AppendRow(row("Transaction committed"))
	case res.IsRead():
		header := make([]any, len(res.Columns))
		for i, col := range res.Columns {
			header[i] = col
		}
		tw.AppendHeader(header)
		for _, values := range res.Rows {
			r := make([]any, len(values))
			for i, v := range values {
				r[i] = formatValue(v)
			}
			tw.AppendRow(r)
		}
	default:
		tw.AppendHeader(row("-", "Rows Affected", "Last Insert ID"))
		tw.AppendRow(row("OK", res.RowsAffected, res.LastInsertID))
	}

	fmt.Fprintln(s.out, tw.Render())
	if s.timer {
		dimmed.Fprintf(s.out, "Run Time: %s\n", res.Time.Round(time.Microsecond))
	}
}

func (s *Shell) printError(err error) {
	errColor.Fprintf(s.out, "Error: %s\n", err)
}

// firstKeyword returns the upper-cased first word of a statement, skipping
// leading comments.
func firstKeyword(query string) string {
	for {
		query = strings.TrimSpace(query)
		switch {
		case strings.HasPrefix(query, "--"):
			_, rest, found := strings.Cut(query, "\n")
			if !found {
				return ""
			}
			query = rest
		case strings.HasPrefix(query, "/*"):
			_, rest, found := strings.Cut(query, "*/")
			if !found {
				return ""
			}
			query = rest
		default:
			fields := strings.Fields(query)
			if len(fields) == 0 {
				return ""
			}
			word, _, _ := strings.Cut(fields[0], ";")
			return strings.ToUpper(word)
		}
	}
}

// formatValue renders a column value for a table cell.
func formatValue(v any) any {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if len(v) > 32 {
			return fmt.Sprintf("[blob %d bytes]", len(v))
		}
		return fmt.Sprintf("x'%x'", v)
	default:
		return v
	}
}

func row(values ...any) []any {
	return values
}
