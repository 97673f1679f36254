package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/sqlitec"
	"github.com/peterh/liner"
)

const continuationPrompt = "       ...> "

// Repl reads statements from the terminal and runs them on a Shell.
type Repl struct {
	shell       *Shell
	line        *liner.State
	historyPath string
}

// NewRepl creates a Repl and loads the history from the temp directory.
func NewRepl(shell *Shell) *Repl {
	r := &Repl{
		shell:       shell,
		line:        liner.NewLiner(),
		historyPath: filepath.Join(os.TempDir(), ".litebind_history"),
	}
	r.line.SetCtrlCAborts(true)
	r.line.SetMultiLineMode(true)
	r.line.SetCompleter(complete)

	if file, err := os.Open(r.historyPath); err == nil {
		_, _ = r.line.ReadHistory(file)
		_ = file.Close()
	}

	return r
}

// Start runs the read-eval-print loop until the user quits or ctx is done.
func (r *Repl) Start(ctx context.Context) error {
	for ctx.Err() == nil {
		input, err := r.read()
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		r.line.AppendHistory(strings.Join(strings.Fields(input), " "))
		if err := r.shell.Execute(input); errors.Is(err, errQuit) {
			return nil
		}
	}
	return nil
}

// read reads one input: a single dot command line, or lines of SQL until
// the text ends with a complete statement.
func (r *Repl) read() (string, error) {
	var input strings.Builder
	prompt := r.shell.prompt()

	for {
		line, err := r.line.Prompt(prompt)
		if err != nil {
			return "", err
		}

		if input.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				return trimmed, nil
			}
		}

		input.WriteString(line)
		input.WriteString("\n")
		if sqlitec.IsComplete(input.String()) {
			return input.String(), nil
		}
		prompt = continuationPrompt
	}
}

// Close saves the history and restores the terminal.
func (r *Repl) Close() error {
	var errs []error
	if file, err := os.Create(r.historyPath); err == nil {
		_, werr := r.line.WriteHistory(file)
		errs = append(errs, werr, file.Close())
	} else {
		r.shell.logger.DebugNs(log.NsShell, "failed to save history", log.KV{
			"path":  r.historyPath,
			"error": err.Error(),
		})
	}
	errs = append(errs, r.line.Close())
	return errors.Join(errs...)
}

func (r *Repl) greet(out io.Writer, database string) {
	fmt.Fprintf(out, "Connected to %s\n", database)
	fmt.Fprintln(out, `Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Fprintln(out, "Statements must end with a semicolon")
	fmt.Fprintln(out)
}
