package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

var todoRowColumns = []string{"id", "title", "description", "priority", "complete", "owner_id"}

func TestOwnedTodos_List_FiltersByOwner(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)

	mock.ExpectQuery(q(listTodosQuery)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(todoRowColumns).
			AddRow(int64(1), "a", "", int64(1), false, int64(7)).
			AddRow(int64(2), "b", "desc", int64(5), true, int64(7)))

	got, err := todos.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[1].Priority != 5 || !got[1].Complete {
		t.Fatalf("unexpected todos: %+v", got)
	}
}

func TestOwnedTodos_Get_NotOwned(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)

	mock.ExpectQuery(q(getTodoQuery)).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows(todoRowColumns))

	_, err := todos.Get(context.Background(), 3)
	if !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestOwnedTodos_Create_StampsOwner(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)

	mock.ExpectQuery(q(insertTodoQuery)).
		WithArgs("buy milk", "", 3, false, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	got, err := todos.Create(context.Background(), &domain.Todo{Title: "buy milk", Priority: 3, OwnerID: 99})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 11 || got.OwnerID != 7 {
		t.Fatalf("unexpected todo: %+v", got)
	}
}

func TestOwnedTodos_Update_CommitsInTransaction(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)

	mock.ExpectBegin()
	mock.ExpectQuery(q(getTodoForUpdate)).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows(todoRowColumns).AddRow(int64(3), "a", "", int64(2), false, int64(7)))
	mock.ExpectExec(q(updateTodoQuery)).
		WithArgs("a", "", 2, true, int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := todos.Update(context.Background(), 3, func(td *domain.Todo) error {
		td.Complete = !td.Complete
		td.OwnerID = 99
		return nil
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.Complete || got.OwnerID != 7 {
		t.Fatalf("unexpected todo: %+v", got)
	}
}

func TestOwnedTodos_Update_NotOwnedRollsBack(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(8)

	mock.ExpectBegin()
	mock.ExpectQuery(q(getTodoForUpdate)).
		WithArgs(int64(3), int64(8)).
		WillReturnRows(sqlmock.NewRows(todoRowColumns))
	mock.ExpectRollback()

	_, err := todos.Update(context.Background(), 3, func(*domain.Todo) error {
		t.Fatalf("mutate must not run for a foreign todo")
		return nil
	})
	if !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestOwnedTodos_Update_MutateErrorRollsBack(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(q(getTodoForUpdate)).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows(todoRowColumns).AddRow(int64(3), "a", "", int64(2), false, int64(7)))
	mock.ExpectRollback()

	_, err := todos.Update(context.Background(), 3, func(*domain.Todo) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}
}

func TestOwnedTodos_Delete(t *testing.T) {
	db, mock := newMock(t)
	todos := NewTodoRepository(db).ForOwner(7)

	mock.ExpectExec(q(deleteTodoQuery)).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(deleteTodoQuery)).
		WithArgs(int64(4), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := todos.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := todos.Delete(context.Background(), 4); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}
