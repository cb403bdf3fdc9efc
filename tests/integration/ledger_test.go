package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/iho/partyledger/internal/adapter/http"
	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/partyledger/internal/adapter/repository/redis"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/idgen"
	"github.com/iho/partyledger/internal/usecase"
	"github.com/iho/partyledger/tests/testutil"
)

func newPostgresRouter(t *testing.T, testDB *testutil.TestDB) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	pool := testDB.Pool
	log := zerolog.Nop()
	partyRepo := postgres.NewPartyRepository(pool)
	txRepo := postgres.NewTransactionRepository()
	txManager := postgres.NewTxManager(pool)
	retrier := postgres.NewRetrier(log)
	ids := idgen.NewULIDGenerator()
	cache := redisrepo.NewCache(redisClient)

	partyUC := usecase.NewPartyUseCase(partyRepo, ids, nil, cache, nil, log).WithRetrier(retrier)

	return adaptershttp.NewRouter(adaptershttp.RouterConfig{
		PartyHandler:          handler.NewPartyHandler(partyUC),
		LedgerHandler:         handler.NewLedgerHandler(usecase.NewLedgerUseCase(partyRepo, nil, log)),
		StatsHandler:          handler.NewStatsHandler(usecase.NewStatsUseCase(partyRepo, cache, time.Minute, nil, log)),
		PaymentHandler:        handler.NewPaymentHandler(usecase.NewPaymentUseCase(txManager, partyRepo, txRepo, ids, retrier, nil, cache, nil, log)),
		TransactionHandler:    handler.NewTransactionHandler(usecase.NewTransactionUseCase(txManager, partyRepo, txRepo, ids, retrier, nil, cache, nil, log), partyUC),
		ReconciliationHandler: handler.NewReconciliationHandler(usecase.NewReconciliationUseCase(partyRepo, nil, log)),
		HealthHandler:         handler.NewHealthHandler(pool, nil),
		Logger:                log,
		IdempotencyStore:      redisrepo.NewIdempotencyStore(redisClient),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any, key string, wantStatus int, out any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if key != "" {
		r.Header.Set(apimiddleware.IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, w.Code, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
}

func TestPartyLedgerOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	router := newPostgresRouter(t, testDB)

	do(t, router, http.MethodGet, "/ready", nil, "", http.StatusOK, nil)

	var party dto.PartyResponse
	do(t, router, http.MethodPost, "/api/v1/parties/", dto.CreatePartyRequest{
		Name:           "Acme Traders",
		Type:           "customer",
		OpeningBalance: decimal.NewFromInt(100),
	}, "", http.StatusCreated, &party)
	base := "/api/v1/parties/" + party.ID

	t.Run("sales and payments fold into the balance", func(t *testing.T) {
		do(t, router, http.MethodPost, base+"/transactions", dto.AddTransactionRequest{
			Date: "2024-01-10", Type: "sale", Company: "ACME",
			Amount: decimal.NewFromInt(1000), PaymentReceived: decimal.NewFromInt(200),
		}, "sale-1", http.StatusCreated, nil)

		var paid dto.MutationResponse
		do(t, router, http.MethodPost, base+"/payments", dto.RecordPaymentRequest{
			Amount: decimal.NewFromInt(300), Company: "ACME",
		}, "pay-1", http.StatusCreated, &paid)

		if !paid.Party.CurrentBalance.Equal(decimal.NewFromInt(600)) {
			t.Fatalf("expected balance 600, got %s", paid.Party.CurrentBalance)
		}

		// A retried request with the same key must not pay twice.
		var replay dto.MutationResponse
		do(t, router, http.MethodPost, base+"/payments", dto.RecordPaymentRequest{
			Amount: decimal.NewFromInt(300), Company: "ACME",
		}, "pay-1", http.StatusCreated, &replay)
		if replay.Transaction.ID != paid.Transaction.ID {
			t.Fatalf("expected replay of %s, got %s", paid.Transaction.ID, replay.Transaction.ID)
		}
	})

	t.Run("windowed ledger rebuilds its opening balance", func(t *testing.T) {
		var ledger dto.LedgerResponse
		do(t, router, http.MethodGet, base+"/ledger?company=ACME&from=2024-02-01", nil, "", http.StatusOK, &ledger)

		if !ledger.OpeningBalance.Equal(decimal.NewFromInt(900)) {
			t.Fatalf("expected opening 900, got %s", ledger.OpeningBalance)
		}
		if len(ledger.Entries) != 1 || !ledger.ClosingBalance.Equal(decimal.NewFromInt(600)) {
			t.Fatalf("expected the payment alone closing at 600, got %d entries closing %s", len(ledger.Entries), ledger.ClosingBalance)
		}
	})

	t.Run("list stats follow writes", func(t *testing.T) {
		var stats dto.ListStatsResponse
		do(t, router, http.MethodGet, "/api/v1/parties/stats", nil, "", http.StatusOK, &stats)
		if stats.TotalCount != 1 || !stats.TotalBalance.Equal(decimal.NewFromInt(600)) {
			t.Fatalf("unexpected stats %+v", stats)
		}

		do(t, router, http.MethodPost, base+"/payments", dto.RecordPaymentRequest{
			Amount: decimal.NewFromInt(100), Company: "ACME",
		}, "", http.StatusCreated, nil)

		do(t, router, http.MethodGet, "/api/v1/parties/stats", nil, "", http.StatusOK, &stats)
		if !stats.TotalBalance.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("expected cached stats to be invalidated, got %s", stats.TotalBalance)
		}
	})

	t.Run("reconciliation is clean", func(t *testing.T) {
		var report dto.ReconciliationReportResponse
		do(t, router, http.MethodGet, "/api/v1/reconciliation", nil, "", http.StatusOK, &report)
		if report.TotalParties != 1 || len(report.Discrepancies) != 0 {
			t.Fatalf("expected clean report, got %+v", report)
		}
	})
}

func TestReconciliationFindsDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	party := testDB.CreateTestParty(ctx, "Legacy", domain.PartyTypeCustomer, decimal.Zero)
	testDB.InsertRawTransaction(ctx, party.ID, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "sale", "ACME", decimal.NewFromInt(250))

	uc := usecase.NewReconciliationUseCase(postgres.NewPartyRepository(testDB.Pool), nil, zerolog.Nop())

	result, err := uc.ReconcileParty(ctx, party.ID, "ACME")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if result.IsReconciled {
		t.Fatalf("expected cached totals to disagree with history")
	}
	if !result.RecomputedPurchases.Equal(decimal.NewFromInt(250)) || !result.CachedPurchases.IsZero() {
		t.Fatalf("expected purchases 0 cached vs 250 recomputed, got %s vs %s", result.CachedPurchases, result.RecomputedPurchases)
	}
}

func TestLedgerSkipsUnknownHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	party := testDB.CreateTestParty(ctx, "Legacy", domain.PartyTypeSupplier, decimal.Zero)
	testDB.InsertRawTransaction(ctx, party.ID, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "purchase", "ACME", decimal.NewFromInt(400))
	badID := testDB.InsertRawTransaction(ctx, party.ID, time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), "refund", "ACME", decimal.NewFromInt(50))

	uc := usecase.NewLedgerUseCase(postgres.NewPartyRepository(testDB.Pool), nil, zerolog.Nop())

	report, err := uc.Report(ctx, usecase.ReportInput{PartyID: party.ID, Company: "ACME"})
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if !report.Ledger.Incomplete || len(report.Ledger.Rejected) != 1 || report.Ledger.Rejected[0].ID != badID {
		t.Fatalf("expected %s to be rejected, got %+v", badID, report.Ledger.Rejected)
	}
	if !report.Ledger.ClosingBalance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected closing 400, got %s", report.Ledger.ClosingBalance)
	}
}
