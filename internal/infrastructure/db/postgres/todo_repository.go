package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
)

const (
	todoColumns = `id, title, description, priority, complete, owner_id`

	listTodosQuery   = `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1 ORDER BY id`
	getTodoQuery     = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND owner_id = $2`
	getTodoForUpdate = getTodoQuery + ` FOR UPDATE`
	insertTodoQuery  = `INSERT INTO todos (title, description, priority, complete, owner_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	updateTodoQuery  = `UPDATE todos SET title = $1, description = $2, priority = $3, complete = $4 WHERE id = $5 AND owner_id = $6`
	deleteTodoQuery  = `DELETE FROM todos WHERE id = $1 AND owner_id = $2`
)

// TodoRepository hands out owner-scoped todo repositories over one pool.
type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) ForOwner(ownerID int64) ports.OwnedTodoRepository {
	return &ownedTodos{db: r.db, owner: ownerID}
}

// ownedTodos adds owner_id to every statement it runs.
type ownedTodos struct {
	db    *sql.DB
	owner int64
}

func (o *ownedTodos) OwnerID() int64 { return o.owner }

func (o *ownedTodos) List(ctx context.Context) ([]*domain.Todo, error) {
	rows, err := o.db.QueryContext(ctx, listTodosQuery, o.owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	todos := make([]*domain.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todos, nil
}

func (o *ownedTodos) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	return getTodo(ctx, o.db, getTodoQuery, id, o.owner)
}

func (o *ownedTodos) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	created := *todo
	created.OwnerID = o.owner

	err := o.db.QueryRowContext(ctx, insertTodoQuery,
		created.Title, created.Description, created.Priority, created.Complete, created.OwnerID,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

// Update locks the row, applies mutate and writes it back in one transaction.
func (o *ownedTodos) Update(ctx context.Context, id int64, mutate func(*domain.Todo) error) (*domain.Todo, error) {
	var updated *domain.Todo

	err := WithTx(ctx, o.db, nil, func(ctx context.Context, tx DBTX) error {
		current, err := getTodo(ctx, tx, getTodoForUpdate, id, o.owner)
		if err != nil {
			return err
		}

		next := *current
		if err := mutate(&next); err != nil {
			return err
		}
		next.ID = current.ID
		next.OwnerID = current.OwnerID

		if _, err := tx.ExecContext(ctx, updateTodoQuery,
			next.Title, next.Description, next.Priority, next.Complete, next.ID, next.OwnerID,
		); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (o *ownedTodos) Delete(ctx context.Context, id int64) error {
	res, err := o.db.ExecContext(ctx, deleteTodoQuery, id, o.owner)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var t domain.Todo
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Complete, &t.OwnerID); err != nil {
		return nil, err
	}
	return &t, nil
}

func getTodo(ctx context.Context, db DBTX, query string, id, owner int64) (*domain.Todo, error) {
	t, err := scanTodo(db.QueryRowContext(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
