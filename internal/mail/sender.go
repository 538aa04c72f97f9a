package mail

import "context"

// Message is a rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a single rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
