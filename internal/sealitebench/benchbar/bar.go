// Package benchbar provides a really simple progress bar for the benchmarking
// process.
package benchbar

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	pb *progressbar.ProgressBar
}

// New returns a bar counting up to maxItems, drawn on w.
func New(w io.Writer, description string, maxItems int) *Bar {
	pb := progressbar.NewOptions(maxItems,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	_ = pb.Set(0)

	return &Bar{pb: pb}
}

// Inc advances the bar by one. It is safe for concurrent use.
func (b *Bar) Inc() {
	_ = b.pb.Add(1)
}

func (b *Bar) Finish() {
	_ = b.pb.Finish()
	_ = b.pb.Close()
}
