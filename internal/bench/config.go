package bench

import (
	"fmt"
	"log"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/nsqlite/litebind/internal/version"
	"github.com/orsinium-labs/enum"
)

// Target is a SQLite implementation the benchmarks run against.
type Target enum.Member[string]

var (
	TargetMattn    = Target{Value: "mattn"}
	TargetModernc  = Target{Value: "modernc"}
	TargetLitebind = Target{Value: "litebind"}
	TargetSqlitec  = Target{Value: "sqlitec"}

	Targets = enum.New(TargetMattn, TargetModernc, TargetLitebind, TargetSqlitec)
)

// Config represents the configuration for litebindbench.
type Config struct {
	Dir        string   `arg:"--dir,env:LITEBIND_BENCH_DIR" help:"Directory for the benchmark databases (default to a new temporary directory)"`
	Targets    []string `arg:"--target,separate" help:"Implementations to benchmark (mattn, modernc, litebind, sqlitec), can be repeated (default to all)"`
	Scale      float64  `arg:"--scale,env:LITEBIND_BENCH_SCALE" help:"Multiplier applied to the number of rows of every benchmark" default:"1"`
	Goroutines int      `arg:"--goroutines,env:LITEBIND_BENCH_GOROUTINES" help:"Number of goroutines issuing statements concurrently" default:"10"`
	LogLevel   string   `arg:"--log-level,env:LITEBIND_LOG_LEVEL" help:"Log level (debug, info, warn, error)" default:"info"`

	// ParsedTargets is filled by validate from Targets.
	ParsedTargets []Target `arg:"-"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.BenchVersion())
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

func (cfg *Config) validate() error {
	if cfg.Scale <= 0 {
		return fmt.Errorf("invalid scale %v, must be greater than zero", cfg.Scale)
	}
	if cfg.Goroutines <= 0 {
		return fmt.Errorf("invalid goroutines %d, must be greater than zero", cfg.Goroutines)
	}

	cfg.ParsedTargets = nil
	if len(cfg.Targets) == 0 {
		cfg.ParsedTargets = Targets.Members()
		return nil
	}

	for _, name := range cfg.Targets {
		target := Targets.Parse(strings.ToLower(strings.TrimSpace(name)))
		if target == nil {
			return fmt.Errorf("invalid target %q, valid values are %s", name, strings.Join(Targets.Values(), ", "))
		}
		cfg.ParsedTargets = append(cfg.ParsedTargets, *target)
	}

	return nil
}
