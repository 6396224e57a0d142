package mail

import (
	"context"
	"fmt"

	"course_trigger_engine/internal/domain/mailer"

	"golang.org/x/time/rate"
)

// RateLimitedChannel throttles sends of the wrapped channel to a steady rate.
type RateLimitedChannel struct {
	next    mailer.Channel
	limiter *rate.Limiter
}

// NewRateLimitedChannel returns next unchanged when perSecond is not positive.
func NewRateLimitedChannel(next mailer.Channel, perSecond float64) mailer.Channel {
	if perSecond <= 0 {
		return next
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedChannel{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (c *RateLimitedChannel) Send(ctx context.Context, address, subject, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return c.next.Send(ctx, address, subject, body)
}
