package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_UniqueUsernameAndEmail(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	_, err = repo.Create(ctx, &domain.User{Username: "alice2", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestOwnedTodos_IsolatesOwners(t *testing.T) {
	todos := NewStore().Todos()
	ctx := context.Background()
	alice, bob := todos.ForOwner(1), todos.ForOwner(2)

	created, err := alice.Create(ctx, &domain.Todo{Title: "buy milk", Priority: 3, OwnerID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.OwnerID, "owner is stamped by the scoped repository")

	_, err = bob.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	err = bob.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	_, err = bob.Update(ctx, created.ID, func(td *domain.Todo) error {
		td.Title = "hijacked"
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	list, err := bob.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	still, err := alice.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", still.Title)
}

func TestOwnedTodos_UpdateKeepsIdentity(t *testing.T) {
	alice := NewStore().Todos().ForOwner(1)
	ctx := context.Background()

	created, err := alice.Create(ctx, &domain.Todo{Title: "a", Priority: 1})
	require.NoError(t, err)

	updated, err := alice.Update(ctx, created.ID, func(td *domain.Todo) error {
		td.Title = "b"
		td.ID = 99
		td.OwnerID = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(1), updated.OwnerID)
	assert.Equal(t, "b", updated.Title)
}

func TestOwnedTodos_UpdateMutateErrorLeavesTodo(t *testing.T) {
	alice := NewStore().Todos().ForOwner(1)
	ctx := context.Background()

	created, err := alice.Create(ctx, &domain.Todo{Title: "a", Priority: 1})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = alice.Update(ctx, created.ID, func(td *domain.Todo) error {
		td.Title = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := alice.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
}

func TestOwnedTodos_ConcurrentToggle(t *testing.T) {
	alice := NewStore().Todos().ForOwner(1)
	ctx := context.Background()

	created, err := alice.Create(ctx, &domain.Todo{Title: "a", Priority: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = alice.Update(ctx, created.ID, func(td *domain.Todo) error {
				td.Complete = !td.Complete
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := alice.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Complete, "an even number of toggles must cancel out")
}
