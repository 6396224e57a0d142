// internal/infra/mail/smtp_channel.go
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPOptions configure the SMTP channel.
type SMTPOptions struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Timeout   time.Duration
	TLSPolicy string // mandatory, opportunistic or none
}

// SMTPChannel delivers plain-text mail through one SMTP relay.
type SMTPChannel struct {
	client *gomail.Client
	from   string
}

func NewSMTPChannel(opts SMTPOptions) (*SMTPChannel, error) {
	clientOpts := []gomail.Option{
		gomail.WithPort(opts.Port),
		gomail.WithTLSPortPolicy(tlsPolicy(opts.TLSPolicy)),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, gomail.WithTimeout(opts.Timeout))
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}

	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client for %s: %w", opts.Host, err)
	}
	return &SMTPChannel{client: client, from: opts.From}, nil
}

// Send builds and sends a single message. The dial honours ctx.
func (c *SMTPChannel) Send(ctx context.Context, address, subject, body string) error {
	msg, err := BuildMessage(c.from, address, subject, body)
	if err != nil {
		return err
	}
	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", address, err)
	}
	return nil
}

// BuildMessage assembles a plain-text message and validates both addresses.
func BuildMessage(from, to, subject, body string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

func tlsPolicy(s string) gomail.TLSPolicy {
	switch s {
	case "none":
		return gomail.NoTLS
	case "opportunistic":
		return gomail.TLSOpportunistic
	default:
		return gomail.TLSMandatory
	}
}
