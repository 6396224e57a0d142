package enrollment

import (
	"context"
)

// Repository reads enrollment data. Results are never cached by implementations.
type Repository interface {
	// ListActiveRecipients returns learners with an ACTIVE enrollment in the course, ordered by user id.
	ListActiveRecipients(ctx context.Context, courseID int64) ([]*Recipient, error)
}
