package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is an mpb bar that tracks files processed by a command. A
// disabled Progress accepts every call and draws nothing.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
	enabled   bool

	mu          sync.Mutex
	description string
	current     int
}

var descLength = 24

// NewProgress creates a bar on stderr with the given total. It stays
// disabled unless enabled is set and stderr is a terminal.
func NewProgress(total int, enabled bool) *Progress {
	return newProgress(os.Stderr, total, enabled && isTerminal())
}

func newProgress(out io.Writer, total int, enabled bool) *Progress {
	p := &Progress{enabled: enabled}
	if !enabled {
		return p
	}

	fmt.Fprintln(out)

	p.container = mpb.New(
		mpb.WithOutput(out),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return truncate(p.Description(), descLength)
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name("  "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)

	return p
}

// Enabled reports whether the bar is drawn
func (p *Progress) Enabled() bool {
	return p.enabled
}

// Description returns the label shown next to the bar
func (p *Progress) Description() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.description
}

// Current returns the last recorded position
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Update moves the bar to current and relabels it
func (p *Progress) Update(current int, description string) {
	p.mu.Lock()
	p.current = current
	p.description = description
	p.mu.Unlock()

	if p.bar != nil {
		p.bar.SetCurrent(int64(current))
	}
}

// Increment advances the bar by one and relabels it
func (p *Progress) Increment(description string) {
	p.Update(p.Current()+1, description)
}

// Finish completes the bar and waits for the final render
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}
	if p.bar != nil && !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
	p.container = nil
	p.bar = nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
