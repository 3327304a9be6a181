// Package memory holds process-local user and todo repositories. They back
// the service when no DATABASE_URL is configured and are used by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
)

// Store keeps users and todos in maps guarded by one lock.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*domain.User
	todos      map[int64]*domain.Todo
	nextUserID int64
	nextTodoID int64
}

func NewStore() *Store {
	return &Store{
		users: make(map[int64]*domain.User),
		todos: make(map[int64]*domain.Todo),
	}
}

// Users returns the store's user repository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Todos returns the store's todo repository.
func (s *Store) Todos() *TodoRepository { return &TodoRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrUserExists
		}
	}

	r.s.nextUserID++
	stored := cloneUser(user)
	stored.ID = r.s.nextUserID
	r.s.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

type TodoRepository struct{ s *Store }

func (r *TodoRepository) ForOwner(ownerID int64) ports.OwnedTodoRepository {
	return &ownedTodos{s: r.s, owner: ownerID}
}

type ownedTodos struct {
	s     *Store
	owner int64
}

func (o *ownedTodos) OwnerID() int64 { return o.owner }

func (o *ownedTodos) List(_ context.Context) ([]*domain.Todo, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	out := make([]*domain.Todo, 0)
	for _, t := range o.s.todos {
		if t.OwnerID == o.owner {
			out = append(out, cloneTodo(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (o *ownedTodos) Get(_ context.Context, id int64) (*domain.Todo, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	t, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	return cloneTodo(t), nil
}

func (o *ownedTodos) Create(_ context.Context, todo *domain.Todo) (*domain.Todo, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	o.s.nextTodoID++
	stored := cloneTodo(todo)
	stored.ID = o.s.nextTodoID
	stored.OwnerID = o.owner
	o.s.todos[stored.ID] = stored
	return cloneTodo(stored), nil
}

func (o *ownedTodos) Update(_ context.Context, id int64, mutate func(*domain.Todo) error) (*domain.Todo, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	current, err := o.lookup(id)
	if err != nil {
		return nil, err
	}

	next := cloneTodo(current)
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.OwnerID = current.OwnerID
	o.s.todos[id] = next
	return cloneTodo(next), nil
}

func (o *ownedTodos) Delete(_ context.Context, id int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if _, err := o.lookup(id); err != nil {
		return err
	}
	delete(o.s.todos, id)
	return nil
}

// lookup must be called with the lock held.
func (o *ownedTodos) lookup(id int64) (*domain.Todo, error) {
	t, ok := o.s.todos[id]
	if !ok || t.OwnerID != o.owner {
		return nil, domain.ErrTodoNotFound
	}
	return t, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Address != nil {
		addr := *u.Address
		c.Address = &addr
	}
	return &c
}

func cloneTodo(t *domain.Todo) *domain.Todo {
	c := *t
	return &c
}
