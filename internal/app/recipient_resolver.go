// internal/app/recipient_resolver.go
package app

import (
	"context"
	"fmt"
	"strings"

	"course_trigger_engine/internal/domain/enrollment"
	"course_trigger_engine/internal/domain/schedule"
)

// RecipientResolver computes the learners a schedule targets. It queries the
// enrollment store on every call and returns either the full list or an error.
type RecipientResolver struct {
	enrollments enrollment.Repository
}

func NewRecipientResolver(repo enrollment.Repository) *RecipientResolver {
	return &RecipientResolver{enrollments: repo}
}

// Resolve returns the active recipients of the schedule's course, skipping
// blank addresses and collapsing duplicate addresses (first occurrence wins).
// An empty result is not an error.
func (r *RecipientResolver) Resolve(ctx context.Context, def *schedule.Definition) ([]*enrollment.Recipient, error) {
	rows, err := r.enrollments.ListActiveRecipients(ctx, def.Course.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve recipients for course %d: %w", def.Course.ID, err)
	}

	seen := make(map[string]struct{}, len(rows))
	recipients := make([]*enrollment.Recipient, 0, len(rows))
	for _, rcpt := range rows {
		addr := strings.ToLower(strings.TrimSpace(rcpt.Email))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		recipients = append(recipients, rcpt)
	}
	return recipients, nil
}
