package shell

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/nsqlite/litebind/internal/version"
	"github.com/nsqlite/litebind/sqlitec"
)

// Config represents the configuration for litebind.
type Config struct {
	Database    string        `arg:"positional,env:LITEBIND_DATABASE" help:"Path or file: URI of the database to open" default:":memory:"`
	ReadOnly    bool          `arg:"--readonly,env:LITEBIND_READONLY" help:"Open the database in read-only mode" default:"false"`
	NoCreate    bool          `arg:"--no-create,env:LITEBIND_NO_CREATE" help:"Fail instead of creating the database when it does not exist" default:"false"`
	VFS         string        `arg:"--vfs,env:LITEBIND_VFS" help:"Name of the SQLite VFS to use (default to the platform VFS)"`
	BusyTimeout time.Duration `arg:"--busy-timeout,env:LITEBIND_BUSY_TIMEOUT" help:"How long to wait for a locked database. Valid time units are ns, us (or µs), ms, s, m, h" default:"5s"`
	Command     string        `arg:"-c,--command" help:"Run the given SQL and dot commands and exit"`
	File        string        `arg:"-f,--file" help:"Run the SQL and dot commands of the given file and exit"`
	LogLevel    string        `arg:"--log-level,env:LITEBIND_LOG_LEVEL" help:"Log level (debug, info, warn, error)" default:"warn"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.ShellVersion())
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := arg.NewParser(arg.Config{}, &cfg)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

func (cfg Config) validate() error {
	if cfg.Database == "" {
		return errors.New("database must not be empty")
	}
	if cfg.BusyTimeout < 0 {
		return errors.New("busy timeout must not be negative")
	}
	if cfg.Command != "" && cfg.File != "" {
		return errors.New("--command and --file cannot be used together")
	}
	return nil
}

// openFlags returns the flags used to open the database.
func (cfg Config) openFlags() sqlitec.OpenFlags {
	flags := sqlitec.OpenURI
	switch {
	case cfg.ReadOnly:
		flags |= sqlitec.OpenReadOnly
	case cfg.NoCreate:
		flags |= sqlitec.OpenReadWrite
	default:
		flags |= sqlitec.OpenReadWrite | sqlitec.OpenCreate
	}
	return flags
}

// interactive reports whether the shell reads statements from the terminal.
func (cfg Config) interactive() bool {
	return cfg.Command == "" && cfg.File == ""
}
