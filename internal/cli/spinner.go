package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a one-line progress message on a status writer until it
// is stopped or its context ends.
type spinner struct {
	out    status
	msg    string
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

// spin starts a spinner showing msg. The caller must stop it.
func (s status) spin(ctx context.Context, msg string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	sp := &spinner{
		out:    s,
		msg:    msg,
		parent: ctx,
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sp.run()
	return sp
}

func (sp *spinner) run() {
	defer close(sp.done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-sp.ctx.Done():
			sp.clear()
			return
		case <-ticker.C:
			frame := styleFrame.Render(spinnerFrames[i%len(spinnerFrames)])
			sp.mu.Lock()
			fmt.Fprintf(sp.out.w, "\r%s %s", frame, StyleDim.Render(sp.msg))
			sp.mu.Unlock()
		}
	}
}

// stop halts the animation and clears the line. It is safe to call more
// than once.
func (sp *spinner) stop() {
	sp.once.Do(sp.cancel)
	<-sp.done
}

// fail stops the spinner and reports msg as an error line.
func (sp *spinner) fail(msg string) {
	sp.stop()
	sp.out.fail("%s", msg)
}

// cancelled reports whether the spinner ended because its parent context
// did, rather than through stop.
func (sp *spinner) cancelled() bool {
	return sp.parent.Err() != nil
}

func (sp *spinner) clear() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	// message width in cells; CJK runes take two.
	blank := strings.Repeat(" ", lipgloss.Width(sp.msg)+2)
	fmt.Fprintf(sp.out.w, "\r%s\r", blank)
}
