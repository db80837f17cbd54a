package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// Recorder observes the outcome of each channel send.
type Recorder interface {
	ObserveNotification(channel string, success bool, d time.Duration)
}

// Dispatcher delivers a message to every enabled channel, one after another.
type Dispatcher struct {
	channels    []Channel
	sendTimeout time.Duration
	recorder    Recorder
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher. Channels are attempted in the given order.
func NewDispatcher(channels []Channel, sendTimeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		channels:    channels,
		sendTimeout: sendTimeout,
		logger:      logger.With().Str("component", "Dispatcher").Logger(),
	}
}

// WithRecorder reports every send to r.
func (d *Dispatcher) WithRecorder(r Recorder) *Dispatcher {
	d.recorder = r
	return d
}

// HasEnabledChannels reports whether at least one channel would be attempted.
func (d *Dispatcher) HasEnabledChannels() bool {
	return len(d.EnabledChannelNames()) > 0
}

// EnabledChannelNames lists enabled channels in dispatch order.
func (d *Dispatcher) EnabledChannelNames() []string {
	var names []string
	for _, ch := range d.channels {
		if ch.Enabled() {
			names = append(names, ch.Name())
		}
	}
	return names
}

// Notify sends title and body through every enabled channel and returns the set of
// channel names that reported success. Failures are logged and never returned.
func (d *Dispatcher) Notify(ctx context.Context, title, body string) map[string]bool {
	msg := Message{Title: title, Body: body}
	sent := make(map[string]bool)
	attempted := 0

	for _, ch := range d.channels {
		if !ch.Enabled() {
			continue
		}
		attempted++

		start := time.Now()
		err := d.send(ctx, ch, msg)
		elapsed := time.Since(start)
		if d.recorder != nil {
			d.recorder.ObserveNotification(ch.Name(), err == nil, elapsed)
		}
		if err != nil {
			d.logger.Error().Err(err).Str("channel", ch.Name()).Dur("duration", elapsed).Msg("Notification failed")
			continue
		}
		sent[ch.Name()] = true
		d.logger.Info().Str("channel", ch.Name()).Dur("duration", elapsed).Msg("Notification sent")
	}

	if attempted > 0 && len(sent) == 0 {
		d.logger.Warn().Int("attempted", attempted).Str("title", title).Msg("No notification channel succeeded")
	}
	return sent
}

// send runs one channel under its own timeout and turns a panic into an error.
func (d *Dispatcher) send(ctx context.Context, ch Channel, msg Message) (err error) {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errorwrapper.NewError("channel %s panicked: %v", ch.Name(), r)
		}
	}()

	if err := ch.Send(ctx, msg); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", errorwrapper.ErrTimeout, d.sendTimeout, err)
		}
		return err
	}
	return nil
}
