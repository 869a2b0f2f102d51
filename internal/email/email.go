package email

import "context"

// Email is a single outgoing message.
type Email struct {
	To       []string
	From     string // falls back to the sender's configured address
	Subject  string
	TextBody string
	HTMLBody string // optional
	Headers  map[string]string
}

// Sender delivers an Email. Send returns a message id when the transport
// provides one.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}
