package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const barWidth = 30

// SimpleProgress redraws a single status line on a terminal-like writer.
type SimpleProgress struct {
	w    io.Writer
	unit string
	now  func() time.Time

	mu       sync.Mutex
	done     int64
	total    int64
	since    time.Time
	lastLine int
}

// NewProgressReporter returns a reporter counting unit ("files") on w, or
// on stderr when w is nil.
func NewProgressReporter(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if unit == "" {
		unit = "items"
	}
	return &SimpleProgress{w: w, unit: unit, now: time.Now}
}

func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.done, p.since = total, 0, p.now()
	p.draw()
}

// Update sets the number of completed units, capped at the total.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(current, p.total)
	p.draw()
}

// Finish draws the completed line and moves to a new one.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
}

func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n✗ Error: %v\n", err)
	p.lastLine = 0
}

// draw must be called with mu held. Nothing is drawn without a total.
func (p *SimpleProgress) draw() {
	if p.total <= 0 {
		return
	}
	line := p.line()
	pad := ""
	if n := p.lastLine - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lastLine = len(line)
	fmt.Fprintf(p.w, "\r%s%s", line, pad)
}

func (p *SimpleProgress) line() string {
	frac := float64(p.done) / float64(p.total)
	filled := int(frac * barWidth)

	var rate float64
	if secs := p.now().Sub(p.since).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}

	return fmt.Sprintf("[%s%s] %.1f%% (%d/%d) %.1f %s/s",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		frac*100, p.done, p.total, rate, p.unit)
}
