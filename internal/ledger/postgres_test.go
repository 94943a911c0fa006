package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresFindUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryFindUser)).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "chat_id"}).AddRow(1, "Alice", 100))

	u, err := store.FindUser(context.Background(), 100)
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if u != (User{ID: 1, Name: "Alice", ChatID: 100}) {
		t.Fatalf("user = %+v", u)
	}
}

func TestPostgresFindUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryFindUser)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "chat_id"}))

	if _, err := store.FindUser(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresInsertUserReturnsID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertUser)).
		WithArgs("Alice", int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	u, err := store.InsertUser(context.Background(), "Alice", 100)
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	if u.ID != 5 || u.Name != "Alice" || u.ChatID != 100 {
		t.Fatalf("user = %+v", u)
	}
}

func TestPostgresInsertOperation(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(queryInsertOperation)).
		WithArgs(date, 500.0, int64(100), "РАСХОД").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.InsertOperation(context.Background(), date, 500, 100, KindExpense); err != nil {
		t.Fatalf("InsertOperation: %v", err)
	}
}

func TestPostgresInsertOperationWrapsError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(queryInsertOperation)).WillReturnError(boom)

	err := store.InsertOperation(context.Background(), time.Now(), 1, 1, KindIncome)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestPostgresListOperations(t *testing.T) {
	store, mock := newMockStore(t)
	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryListOperations)).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "sum", "chat_id", "type_operation"}).
			AddRow(1, d1, 500.0, 100, "РАСХОД").
			AddRow(2, d2, 2000.0, 100, "ДОХОД"))

	ops, err := store.ListOperations(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(ops) != 2 || ops[0].Kind != KindExpense || ops[1].Amount != 2000 || !ops[1].Date.Equal(d2) {
		t.Fatalf("ops = %+v", ops)
	}
}

func TestPostgresFindBudgetPicksLatestRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryFindBudget)).
		WithArgs(int64(100), 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "month", "budget", "chat_id"}).AddRow(9, 3, 1500.0, 100))

	b, err := store.FindBudget(context.Background(), 100, 3)
	if err != nil {
		t.Fatalf("FindBudget: %v", err)
	}
	if b.ID != 9 || b.Amount != 1500 {
		t.Fatalf("budget = %+v", b)
	}
}

func TestPostgresInsertBudget(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(queryInsertBudget)).
		WithArgs(3, 1000.0, int64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.InsertBudget(context.Background(), 3, 1000, 100); err != nil {
		t.Fatalf("InsertBudget: %v", err)
	}
}
