package mailer

import "context"

// Channel delivers a rendered message to one address. A nil error means the
// transport accepted the message. Implementations must respect ctx cancellation.
type Channel interface {
	Send(ctx context.Context, address, subject, body string) error
}
