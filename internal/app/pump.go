package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rill/internal/ui"
)

// notifier coalesces growth notifications from the ingestor into at most
// one pending GrowthMsg. Notify never blocks, so a slow UI cannot stall a
// session's flush loop.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

// Notify is the ingest.Options.Notify hook.
func (n *notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// run forwards notifications to send until ctx is cancelled.
func (n *notifier) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.ch:
			send(ui.GrowthMsg{})
		}
	}
}
