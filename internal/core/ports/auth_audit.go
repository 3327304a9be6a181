package ports

import (
	"context"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

// AuthAuditor accepts audit events without blocking the caller.
type AuthAuditor interface {
	Record(event domain.AuthEvent)
}

// AuthEventRepository persists audit events.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
