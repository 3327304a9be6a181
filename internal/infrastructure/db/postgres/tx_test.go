package postgres

import (
	"context"
	"errors"
	"testing"
)

func TestWithTx_PanicRollsBackAndRethrows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		if p := recover(); p != "boom" {
			t.Fatalf("expected panic to be rethrown, got %v", p)
		}
	}()

	_ = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		panic("boom")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected begin error without running fn, err=%v called=%v", err, called)
	}
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	if err == nil {
		t.Fatalf("expected commit error")
	}
}
