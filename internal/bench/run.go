package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/internal/util/numutil"
	"github.com/nsqlite/litebind/internal/version"
)

// Run executes the benchmarks configured from the command line.
func Run(ctx context.Context) error {
	conf := MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewLogger(os.Stderr, level)

	fmt.Println(version.BenchVersion())
	return RunWith(ctx, conf, os.Stdout, logger)
}

// RunWith runs the benchmarks of conf for every target, writing progress and
// results to out.
func RunWith(ctx context.Context, conf Config, out io.Writer, logger log.Logger) (err error) {
	if err := conf.validate(); err != nil {
		return err
	}

	dir := conf.Dir
	if dir == "" {
		dir, err = os.MkdirTemp("", "litebindbench_*")
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, os.RemoveAll(dir))
		}()
	}

	r := &runner{
		out:        out,
		goroutines: conf.Goroutines,
		work:       newWorkload(conf.Scale),
	}

	for _, t := range conf.ParsedTargets {
		logger.InfoNs(log.NsBench, "starting benchmarks", log.KV{
			"target":     t.Value,
			"dir":        dir,
			"goroutines": conf.Goroutines,
		})

		results, err := runTarget(ctx, r, t, dir, logger.Slog())
		if err != nil {
			return fmt.Errorf("error benchmarking %s: %w", t.Value, err)
		}

		fmt.Fprintf(out, "\n--- Benchmarks for %s ---\n", t.Value)
		printResults(out, results)
	}

	return nil
}

func runTarget(ctx context.Context, r *runner, t Target, dir string, logger *slog.Logger) (results []result, err error) {
	tg, err := openTarget(ctx, t, dir, r.goroutines, logger)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	defer func() {
		err = errors.Join(err, tg.close())
	}()

	return r.runAll(ctx, tg)
}

func printResults(out io.Writer, results []result) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.AppendHeader(table.Row{"Name", "Reads", "Writes", "Duration", "Rows/s"})

	for _, r := range results {
		tw.AppendRow(table.Row{
			r.Name,
			numutil.WithCommas(r.Reads),
			numutil.WithCommas(r.Writes),
			r.Duration.Round(time.Millisecond),
			numutil.WithCommas(int64(numutil.PerSecond(r.Reads+r.Writes, r.Duration))),
		})
	}

	fmt.Fprintln(out, tw.Render())
}
