package ports

import (
	"context"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

// TodoRepository hands out repositories bound to a single owner.
type TodoRepository interface {
	ForOwner(ownerID int64) OwnedTodoRepository
}

// OwnedTodoRepository is pre-filtered by owner: every read, update and
// delete is restricted to the owner it was created for, and Create always
// stamps that owner. A todo that exists but belongs to someone else is
// reported as domain.ErrTodoNotFound.
type OwnedTodoRepository interface {
	OwnerID() int64
	List(ctx context.Context) ([]*domain.Todo, error)
	Get(ctx context.Context, id int64) (*domain.Todo, error)
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	// Update loads the todo, applies mutate and persists the result
	// atomically. ID and OwnerID changes made by mutate are ignored.
	Update(ctx context.Context, id int64, mutate func(*domain.Todo) error) (*domain.Todo, error)
	Delete(ctx context.Context, id int64) error
}
