package ux

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jorge-barreto/reportd/internal/progress"
	"github.com/jorge-barreto/reportd/internal/state"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Console prints a run's progress for a terminal. It satisfies the
// engine's Reporter interface.
type Console struct {
	Out io.Writer
	Now func() time.Time

	mu sync.Mutex
}

// NewConsole writes to stdout.
func NewConsole() *Console {
	return &Console{Out: os.Stdout, Now: time.Now}
}

func (c *Console) timestamp() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().Format("15:04:05")
}

func (c *Console) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Step prints a timestamped step header.
func (c *Console) Step(_ string, stage int, name, details string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.timestamp()
	w := c.out()
	fmt.Fprintf(w, "\n%s[%s]%s %s══════════════════════════════════════%s\n", Dim, ts, Reset, Cyan, Reset)
	desc := ""
	if details != "" {
		desc = fmt.Sprintf(" (%s)", details)
	}
	fmt.Fprintf(w, "%s[%s]%s  %sStep %d/%d: %s%s%s\n", Dim, ts, Reset, Bold, stage, progress.TotalSteps, name, desc, Reset)
	fmt.Fprintf(w, "%s[%s]%s %s══════════════════════════════════════%s\n", Dim, ts, Reset, Cyan, Reset)
}

// LoopBack prints a retry notice for one of the two retry loops.
func (c *Console) LoopBack(_, loop string, attempt, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out(), "%s[%s]%s  %s↺ Retrying %s (attempt %d/%d)%s\n",
		Dim, c.timestamp(), Reset, Yellow, loop, attempt, max, Reset)
}

// Done prints the final outcome line.
func (c *Console) Done(st state.WorkflowState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.out()
	ts := c.timestamp()
	switch st.Outcome() {
	case "succeeded":
		fmt.Fprintf(w, "\n%s[%s]%s  %s%s══ Report #%d saved ══%s\n\n", Dim, ts, Reset, Bold, Green, *st.ReportID, Reset)
	case string(state.StatusRateLimited):
		fmt.Fprintf(w, "\n%s[%s]%s  %s⚠ Run stopped by rate limit, nothing saved%s\n\n", Dim, ts, Reset, Yellow, Reset)
	default:
		fmt.Fprintf(w, "\n%s[%s]%s  %s✗ Run failed%s\n\n", Dim, ts, Reset, Red, Reset)
	}
}
