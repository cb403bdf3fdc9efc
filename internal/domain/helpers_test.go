package domain_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iho/partyledger/internal/domain"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), fmt.Sprint(msgAndArgs...))
}

func sale(id, date, company, amount, received string) domain.Transaction {
	return domain.Transaction{
		ID:              id,
		Date:            day(date),
		Type:            domain.TransactionTypeSale,
		CompanyName:     company,
		Amount:          dec(amount),
		PaymentReceived: dec(received),
	}
}

func purchase(id, date, company, amount, paid string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Date:        day(date),
		Type:        domain.TransactionTypePurchase,
		CompanyName: company,
		Amount:      dec(amount),
		PaidAmount:  dec(paid),
	}
}

func payment(id, date, company, amount string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Date:        day(date),
		Type:        domain.TransactionTypePayment,
		CompanyName: company,
		Amount:      dec(amount),
	}
}

func refund(id, date, company, amount string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Date:        day(date),
		Type:        domain.TransactionTypeReturn,
		CompanyName: company,
		Amount:      dec(amount),
	}
}

var companies = []string{"ACME", "Globex"}

// randomHistory builds n unordered transactions over 2024 for both companies.
func randomHistory(r *rand.Rand, n int) []domain.Transaction {
	start := day("2024-01-01")
	types := []domain.TransactionType{
		domain.TransactionTypeSale,
		domain.TransactionTypePurchase,
		domain.TransactionTypePayment,
		domain.TransactionTypeReturn,
	}

	txs := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		amount := decimal.New(r.Int63n(500000)+1, -2)
		settled := decimal.New(r.Int63n(amount.Mul(decimal.NewFromInt(100)).IntPart()+1), -2)

		t := domain.Transaction{
			ID:          fmt.Sprintf("tx-%03d", i),
			Date:        start.AddDate(0, 0, r.Intn(365)),
			Type:        types[r.Intn(len(types))],
			CompanyName: companies[r.Intn(len(companies))],
			Amount:      amount,
		}
		switch t.Type {
		case domain.TransactionTypeSale:
			t.PaymentReceived = settled
		case domain.TransactionTypePurchase:
			t.PaidAmount = settled
		}
		txs = append(txs, t)
	}

	return txs
}
