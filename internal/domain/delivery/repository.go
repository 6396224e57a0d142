package delivery

import "context"

type Repository interface {
	Append(ctx context.Context, entry *LogEntry) error
}
