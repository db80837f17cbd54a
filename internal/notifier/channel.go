// Package notifier formats inventory notifications and fans them out to channels.
package notifier

import "context"

// Message is one notification: a short title and an HTML-ish body joined with <br>.
type Message struct {
	Title string
	Body  string
}

// Channel is one independently configured transport.
// A disabled channel is skipped by the Dispatcher without error.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}
