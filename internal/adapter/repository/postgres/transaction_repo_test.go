package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
)

func TestTransactionRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO party_transactions").
		WithArgs("t1", "p1", pgDate("2024-02-01"), "payment", "ACME",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "cash", "RV-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = NewTransactionRepository().Create(context.Background(), tx, "p1", &domain.Transaction{
		ID:          "t1",
		Date:        time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC),
		Type:        domain.TransactionTypePayment,
		CompanyName: "ACME",
		Amount:      decimal.NewFromInt(25),
		Description: "cash",
		VoucherRef:  "RV-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTransactionRepositoryDeleteNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("DELETE FROM party_transactions").
		WithArgs("p1", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec("DELETE FROM party_transactions").
		WithArgs("p1", "t1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := NewTransactionRepository()
	if err := repo.Delete(context.Background(), tx, "p1", "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), tx, "p1", "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}
