package shell

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nsqlite/litebind/internal/sqlfuncs"
	"github.com/nsqlite/litebind/internal/util/numutil"
	"github.com/nsqlite/litebind/internal/util/sysutil"
	"github.com/nsqlite/litebind/sqlitec"
)

type dotCmd struct {
	name         string
	autocomplete string
	help         string
	args         string
	run          func(s *Shell, args []string) error
}

// dotCmds returns the dot commands sorted by name.
func dotCmds() []dotCmd {
	cmds := []dotCmd{
		{name: ".count <table>", autocomplete: ".count ", help: "Count the number of rows in a table", args: "table (required)", run: cmdCount},
		{name: ".columns <table>", autocomplete: ".columns ", help: "List all columns in a table", args: "table (required)", run: cmdColumns},
		{name: ".stats [minutes]", autocomplete: ".stats", help: "Show the activity of the last minutes", args: "minutes (optional, default 5)", run: cmdStats},
		{name: ".schema [table]", autocomplete: ".schema", help: "Show the CREATE statements", args: "table (optional)", run: cmdSchema},
		{name: ".indexes [table]", autocomplete: ".indexes", help: "List all indexes", args: "table (optional)", run: cmdIndexes},
		{name: ".attach <file> <name>", autocomplete: ".attach ", help: "Attach a database file", args: "file, name (required)", run: cmdAttach},
		{name: ".detach <name>", autocomplete: ".detach ", help: "Detach a database", args: "name (required)", run: cmdDetach},
		{name: ".timer on|off", autocomplete: ".timer ", help: "Show the run time of every statement", args: "on or off (required)", run: cmdTimer},

		{name: ".tables", autocomplete: ".tables", help: "List all tables", run: cmdTables},
		{name: ".databases", autocomplete: ".databases", help: "List attached databases", run: cmdDatabases},
		{name: ".functions", autocomplete: ".functions", help: "List the extension functions", run: cmdFunctions},
		{name: ".clear", autocomplete: ".clear", help: "Clear the terminal screen", run: cmdClear},
		{name: ".help", autocomplete: ".help", help: "Show the help message", run: cmdHelp},
		{name: ".quit", autocomplete: ".quit", help: "Exit the shell", run: cmdQuit},
		{name: ".exit", autocomplete: ".exit", help: "Exit the shell", run: cmdQuit},
	}

	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].name < cmds[j].name
	})

	return cmds
}

// runDotCmd parses and runs a dot command line.
func (s *Shell) runDotCmd(input string) error {
	fields, err := splitArgs(input)
	if err != nil {
		return err
	}

	for _, cmd := range dotCmds() {
		if strings.TrimSpace(cmd.autocomplete) == fields[0] {
			return cmd.run(s, fields[1:])
		}
	}
	return fmt.Errorf("unknown command %s, type .help for usage hints", fields[0])
}

// splitArgs splits a dot command line on whitespace. Single or double
// quotes group words into one argument.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, errors.New("unterminated quoted argument")
	}
	if inArg {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

func wantArgs(args []string, lo, hi int, usage string) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// query runs a read-only helper query and renders it as a table.
func (s *Shell) query(query string, params ...any) error {
	qp := make([]sqlitec.QueryParam, len(params))
	for i, p := range params {
		qp[i] = sqlitec.QueryParam{Value: p}
	}

	res, err := s.conn.QueryOrExec(query, qp)
	if err != nil {
		return err
	}
	s.renderResult(res, query, s.conn.InTransaction())
	return nil
}

func cmdTables(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 0, ".tables"); err != nil {
		return err
	}
	return s.query(`
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
}

func cmdIndexes(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 1, ".indexes [table]"); err != nil {
		return err
	}
	if len(args) == 1 {
		return s.query(`
			SELECT name, tbl_name FROM sqlite_master
			WHERE type = 'index' AND tbl_name = ?
			ORDER BY name
		`, args[0])
	}
	return s.query(`
		SELECT name, tbl_name FROM sqlite_master
		WHERE type = 'index'
		ORDER BY tbl_name, name
	`)
}

func cmdSchema(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 1, ".schema [table]"); err != nil {
		return err
	}
	if len(args) == 1 {
		return s.query(`
			SELECT sql FROM sqlite_master
			WHERE sql IS NOT NULL AND tbl_name = ?
			ORDER BY type DESC, name
		`, args[0])
	}
	return s.query(`
		SELECT sql FROM sqlite_master
		WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY tbl_name, type DESC, name
	`)
}

func cmdColumns(s *Shell, args []string) error {
	if err := wantArgs(args, 1, 1, ".columns <table>"); err != nil {
		return err
	}
	return s.query(`
		SELECT cid, name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
	`, args[0])
}

func cmdCount(s *Shell, args []string) error {
	if err := wantArgs(args, 1, 1, ".count <table>"); err != nil {
		return err
	}
	return s.query("SELECT COUNT(*) AS count FROM " + quoteIdent(args[0]))
}

func cmdAttach(s *Shell, args []string) error {
	if err := wantArgs(args, 2, 2, ".attach <file> <name>"); err != nil {
		return err
	}
	if err := s.conn.Attach(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Attached %s as %s\n", args[0], args[1])
	return nil
}

func cmdDetach(s *Shell, args []string) error {
	if err := wantArgs(args, 1, 1, ".detach <name>"); err != nil {
		return err
	}
	if err := s.conn.Detach(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Detached %s\n", args[0])
	return nil
}

func cmdDatabases(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 0, ".databases"); err != nil {
		return err
	}
	return s.query("SELECT name, file FROM pragma_database_list ORDER BY seq")
}

func cmdTimer(s *Shell, args []string) error {
	if err := wantArgs(args, 1, 1, ".timer on|off"); err != nil {
		return err
	}
	switch strings.ToLower(args[0]) {
	case "on":
		s.timer = true
	case "off":
		s.timer = false
	default:
		return errors.New("usage: .timer on|off")
	}
	return nil
}

func cmdFunctions(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 0, ".functions"); err != nil {
		return err
	}
	tw := newTableWriter()
	tw.AppendHeader(row("Function"))
	for _, name := range sqlfuncs.Names() {
		tw.AppendRow(row(name))
	}
	fmt.Fprintln(s.out, tw.Render())
	return nil
}

func cmdStats(s *Shell, args []string) error {
	if err := wantArgs(args, 0, 1, ".stats [minutes]"); err != nil {
		return err
	}
	minutes := 5
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid minutes %q", args[0])
		}
		minutes = n
	}

	snap := s.stats.Snapshot()

	tw := newTableWriter()
	tw.AppendHeader(row("Minute (UTC)", "Statements", "Reads", "Writes", "Rows Changed", "Commits", "Rollbacks"))

	shown := snap.Minutes[:min(minutes, len(snap.Minutes))]
	for i := len(shown) - 1; i >= 0; i-- {
		m := shown[i]
		label := m.Minute
		if t, err := time.Parse(time.RFC3339, m.Minute); err == nil {
			label = t.Format("2006-01-02 15:04")
		}
		tw.AppendRow(row(
			label,
			numutil.WithCommas(m.Statements),
			numutil.WithCommas(m.Reads),
			numutil.WithCommas(m.Writes),
			numutil.WithCommas(m.RowsChanged()),
			numutil.WithCommas(m.Commits),
			numutil.WithCommas(m.Rollbacks),
		))
	}

	tw.AppendFooter(row(
		"Total",
		numutil.WithCommas(snap.Totals.Statements),
		numutil.WithCommas(snap.Totals.Reads),
		numutil.WithCommas(snap.Totals.Writes),
		numutil.WithCommas(snap.Totals.RowsChanged()),
		numutil.WithCommas(snap.Totals.Commits),
		numutil.WithCommas(snap.Totals.Rollbacks),
	))

	fmt.Fprintln(s.out, tw.Render())
	dimmed.Fprintf(s.out, "Showing the last %d minutes of stats\n", minutes)
	dimmed.Fprintf(s.out, "Uptime: %s\n", snap.Uptime)
	return nil
}

func cmdClear(s *Shell, _ []string) error {
	return sysutil.ClearTerminal(s.out)
}

func cmdHelp(s *Shell, _ []string) error {
	fmt.Fprintln(s.out, "Available commands:")

	tw := newTableWriter()
	tw.AppendHeader(row("Command", "Description", "Arguments"))
	for _, cmd := range dotCmds() {
		tw.AppendRow(row(cmd.name, cmd.help, cmd.args))
	}
	tw.AppendRow(row("CTRL+C", "Interrupt the running statement or exit", ""))

	fmt.Fprintln(s.out, tw.Render())
	return nil
}

func cmdQuit(*Shell, []string) error {
	return errQuit
}

var sqlKeywords = []string{
	"SELECT ",
	"SELECT * FROM ",
	"SELECT COUNT(*) FROM ",
	"INSERT INTO ",
	"UPDATE ",
	"DELETE FROM ",
	"CREATE TABLE ",
	"CREATE INDEX ",
	"DROP TABLE ",
	"ALTER TABLE ",
	"BEGIN",
	"BEGIN IMMEDIATE",
	"COMMIT",
	"ROLLBACK",
	"PRAGMA ",
	"EXPLAIN QUERY PLAN ",
}

// complete returns the suggestions for the line typed so far.
func complete(line string) []string {
	suggestions := append([]string{}, sqlKeywords...)
	for _, cmd := range dotCmds() {
		suggestions = append(suggestions, cmd.autocomplete)
	}

	results := []string{}
	lower := strings.ToLower(line)
	for _, suggestion := range suggestions {
		if strings.HasPrefix(strings.ToLower(suggestion), lower) {
			results = append(results, suggestion)
		}
	}
	return results
}
