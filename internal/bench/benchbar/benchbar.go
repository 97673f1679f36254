// Package benchbar provides a really simple progress bar for the benchmarking
// process.
package benchbar

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	pb *progressbar.ProgressBar
}

// New creates a bar for maxItems steps that renders to w.
func New(w io.Writer, description string, maxItems int) *Bar {
	pb := progressbar.NewOptions(
		maxItems,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)
	_ = pb.Set(0)

	return &Bar{pb: pb}
}

// Inc advances the bar by one step. It is safe for concurrent use.
func (b *Bar) Inc() {
	_ = b.pb.Add(1)
}

// Finish fills the bar and releases it.
func (b *Bar) Finish() {
	_ = b.pb.Finish()
	_ = b.pb.Close()
}
