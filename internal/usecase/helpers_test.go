package usecase_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// customerFixture trades with ACME and Globex. Its cached balance is the
// ACME balance: 100 opening + 1000 sale - 200 received = 900.
func customerFixture() *domain.Party {
	last := day("2024-01-20")
	return &domain.Party{
		ID:                  "p1",
		PartyNumber:         1,
		Name:                "Northwind",
		Type:                domain.PartyTypeCustomer,
		Status:              domain.PartyStatusActive,
		OpeningBalance:      dec("100"),
		CurrentBalance:      dec("900"),
		BalanceCompany:      "ACME",
		TotalPurchases:      dec("1500"),
		TotalPayments:       dec("200"),
		CreatedDate:         day("2024-01-01"),
		LastTransactionDate: &last,
		Transactions: []domain.Transaction{
			{
				ID:              "s1",
				Date:            day("2024-01-10"),
				Type:            domain.TransactionTypeSale,
				CompanyName:     "ACME",
				Amount:          dec("1000"),
				PaymentReceived: dec("200"),
			},
			{
				ID:          "s2",
				Date:        day("2024-01-20"),
				Type:        domain.TransactionTypeSale,
				CompanyName: "Globex",
				Amount:      dec("500"),
			},
		},
	}
}
