package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/postgres/generated"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func dateToPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: domain.Day(*t), Valid: true}
}

func pgDateToTime(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := domain.Day(d.Time)
	return &t
}

func rowToParty(row generated.Party) *domain.Party {
	return &domain.Party{
		ID:                  row.ID,
		PartyNumber:         row.PartyNumber,
		Name:                row.Name,
		Type:                domain.PartyType(row.PartyType),
		Phone:               row.Phone,
		Address:             row.Address,
		Status:              domain.PartyStatus(row.Status),
		OpeningBalance:      numericToDecimal(row.OpeningBalance),
		CurrentBalance:      numericToDecimal(row.CurrentBalance),
		BalanceCompany:      row.BalanceCompany,
		TotalPurchases:      numericToDecimal(row.TotalPurchases),
		TotalPayments:       numericToDecimal(row.TotalPayments),
		CreatedDate:         row.CreatedAt.Time,
		LastTransactionDate: pgDateToTime(row.LastTransactionDate),
	}
}

func rowToTransaction(row generated.PartyTransaction) domain.Transaction {
	return domain.Transaction{
		ID:              row.ID,
		Date:            domain.Day(row.TxDate.Time),
		Type:            domain.TransactionType(row.TxType),
		CompanyName:     row.CompanyName,
		Amount:          numericToDecimal(row.Amount),
		PaymentReceived: numericToDecimal(row.PaymentReceived),
		PaidAmount:      numericToDecimal(row.PaidAmount),
		Description:     row.Description,
		VoucherRef:      row.VoucherRef,
	}
}
