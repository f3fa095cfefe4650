package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// SendTimeout bounds each channel delivery.
const SendTimeout = 5 * time.Second

// Hook is the post-run notification step.
type Hook struct {
	Notifiers []Notifier
	Force     bool
	Lang      language.Tag
	Logger    zerolog.Logger
}

// Run notifies every channel when forced or when the run changed anything.
// It returns how many channels accepted the message.
func (h *Hook) Run(ctx context.Context, s Summary) int {
	if len(h.Notifiers) == 0 {
		return 0
	}
	if !h.Force && !s.Changed() {
		h.Logger.Debug().Msg("nothing changed, skipping notifications")
		return 0
	}

	msg := Render(s, h.Lang)
	sent := 0
	for _, n := range h.Notifiers {
		sendCtx, cancel := context.WithTimeout(ctx, SendTimeout)
		err := n.Send(sendCtx, msg)
		cancel()
		if err != nil {
			h.Logger.Error().Err(err).Str("channel", n.Name()).Msg("notification failed")
			continue
		}
		sent++
		h.Logger.Info().Str("channel", n.Name()).Msg("notification sent")
	}
	return sent
}
