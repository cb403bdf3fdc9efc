package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	redisRepo "github.com/iho/partyledger/internal/adapter/repository/redis"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/auth"
	"github.com/iho/partyledger/internal/infrastructure/redis"
	"github.com/iho/partyledger/internal/usecase"
)

// options are the persistent flags shared by every API command.
type options struct {
	baseURL string
	token   string
	timeout time.Duration
	output  string
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "partyledger-cli",
		Short:         "PartyLedger CLI tool",
		Long:          `A command line interface for customer and supplier ledgers kept by the PartyLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("PARTYLEDGER_URL", "http://localhost:8080"), "Base URL of the PartyLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PARTYLEDGER_TOKEN"), "Bearer token for authenticated servers")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(
		partiesCmd(opts),
		ledgerCmd(opts),
		paymentCmd(opts),
		transactionCmd(opts),
		reconcileCmd(opts),
		tokenCmd(),
		eventsCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func partiesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parties",
		Short: "Party operations",
	}

	var partyType, status string
	var limit, offset int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List parties",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := filterQuery(partyType, status)
			query.Set("limit", fmt.Sprint(limit))
			query.Set("offset", fmt.Sprint(offset))

			resp, err := opts.client().ListParties(cmd.Context(), query)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "NO\tID\tNAME\tTYPE\tSTATUS\tBALANCE\tCOMPANY\t")
			for _, p := range resp.Parties {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
					p.PartyNumber, p.ID, truncate(p.Name, 30), p.Type, p.Status, p.CurrentBalance.StringFixed(2), p.BalanceCompany)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&partyType, "type", "", "customer or supplier")
	listCmd.Flags().StringVar(&status, "status", "", "active or inactive")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	getCmd := &cobra.Command{
		Use:   "get <party-id>",
		Short: "Show a party with its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			party, err := opts.client().GetParty(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), party)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s #%d %s (%s, %s)\n", party.Type, party.PartyNumber, party.Name, party.ID, party.Status)
			fmt.Fprintf(out, "Opening balance: %s\nBalance (%s): %s\n",
				party.OpeningBalance.StringFixed(2), orDash(party.BalanceCompany), party.CurrentBalance.StringFixed(2))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tCOMPANY\tAMOUNT\tID\t")
			for _, t := range party.Transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", t.Date, t.Type, t.Company, t.Amount.StringFixed(2), t.ID)
			}
			return w.Flush()
		},
	}

	var create dto.CreatePartyRequest
	var opening string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a party",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(opening)
			if err != nil {
				return fmt.Errorf("invalid --opening-balance: %w", err)
			}
			create.OpeningBalance = amount

			party, err := opts.client().CreateParty(cmd.Context(), create)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), party)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s #%d %s (%s)\n", party.Type, party.PartyNumber, party.Name, party.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Party name")
	createCmd.Flags().StringVar(&create.Type, "type", "customer", "customer or supplier")
	createCmd.Flags().StringVar(&create.Phone, "phone", "", "Phone number")
	createCmd.Flags().StringVar(&create.Address, "address", "", "Postal address")
	createCmd.Flags().StringVar(&opening, "opening-balance", "0", "Opening balance")
	_ = createCmd.MarkFlagRequired("name")

	var statsType, statsStatus string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show list totals across parties",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.client().ListStats(cmd.Context(), filterQuery(statsType, statsStatus))
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Parties: %d (%d active)\nTotal balance: %s\n",
				stats.TotalCount, stats.ActiveCount, stats.TotalBalance.StringFixed(2))
			return nil
		},
	}
	statsCmd.Flags().StringVar(&statsType, "type", "", "customer or supplier")
	statsCmd.Flags().StringVar(&statsStatus, "status", "", "active or inactive")

	cmd.AddCommand(listCmd, getCmd, createCmd, statsCmd)
	return cmd
}

func filterQuery(partyType, status string) url.Values {
	query := url.Values{}
	if partyType != "" {
		query.Set("type", partyType)
	}
	if status != "" {
		query.Set("status", status)
	}
	return query
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var company, from, to string
	var newest bool
	reportCmd := &cobra.Command{
		Use:   "report <party-id>",
		Short: "Print a party's ledger for one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"company": {company}}
			if from != "" {
				query.Set("from", from)
			}
			if to != "" {
				query.Set("to", to)
			}
			if newest {
				query.Set("order", "newest")
			}

			ledger, err := opts.client().Ledger(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), ledger)
			}
			return printLedger(cmd.OutOrStdout(), ledger)
		},
	}
	reportCmd.Flags().StringVar(&company, "company", "", "Operating company")
	reportCmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	reportCmd.Flags().BoolVar(&newest, "newest", false, "List newest entries first")
	_ = reportCmd.MarkFlagRequired("company")

	cmd.AddCommand(reportCmd, foldCmd(opts))
	return cmd
}

// foldCmd renders a ledger offline from a party export, as written by
// `parties get -o json` or GET /api/v1/parties/{id}.
func foldCmd(opts *options) *cobra.Command {
	var file, company, from, to string

	cmd := &cobra.Command{
		Use:   "fold",
		Short: "Fold an exported party history into a ledger without the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			var export dto.PartyResponse
			if err := json.Unmarshal(raw, &export); err != nil {
				return fmt.Errorf("invalid party export: %w", err)
			}

			ledger, err := foldExport(&export, company, from, to)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), ledger)
			}
			return printLedger(cmd.OutOrStdout(), ledger)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Party export to read, - for stdin")
	cmd.Flags().StringVar(&company, "company", "", "Operating company")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

// foldExport applies the same company scoping, windowing and strict fold
// the server uses.
func foldExport(export *dto.PartyResponse, company, from, to string) (*dto.LedgerResponse, error) {
	partyType := export.Type
	if !partyType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPartyType, partyType)
	}

	window := domain.Window{}
	for _, bound := range []struct {
		value string
		dst   **time.Time
	}{{from, &window.From}, {to, &window.To}} {
		if bound.value == "" {
			continue
		}
		d, err := domain.ParseDate(bound.value)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", bound.value, err)
		}
		*bound.dst = &d
	}

	txs := make([]domain.Transaction, 0, len(export.Transactions))
	for _, t := range export.Transactions {
		date, err := domain.ParseDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: invalid date %q", t.ID, t.Date)
		}
		txs = append(txs, domain.Transaction{
			ID:              t.ID,
			Date:            date,
			Type:            t.Type,
			CompanyName:     t.Company,
			Amount:          t.Amount,
			PaymentReceived: t.PaymentReceived,
			PaidAmount:      t.PaidAmount,
			Description:     t.Description,
			VoucherRef:      t.VoucherRef,
		})
	}

	scoped, err := domain.Scope(txs, company, export.OpeningBalance, partyType.Polarity(), window)
	if err != nil {
		return nil, err
	}

	ledger, err := domain.Fold(scoped.Transactions, scoped.EffectiveOpeningBalance, partyType.Polarity())
	if err != nil {
		return nil, err
	}

	return dto.LedgerFromReport(&usecase.LedgerReport{
		Party:   &domain.Party{ID: export.ID, Name: export.Name, Type: partyType},
		Company: company,
		Window:  window,
		Ledger:  ledger,
	}), nil
}

func paymentCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment operations",
	}

	var amount, key string
	var req dto.RecordPaymentRequest
	recordCmd := &cobra.Command{
		Use:   "record <party-id>",
		Short: "Record a payment dated today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			req.Amount = value

			if key == "" {
				key = uuid.NewString()
			}

			result, err := opts.client().RecordPayment(cmd.Context(), args[0], req, key)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment %s of %s for %s\nBalance (%s): %s\nIdempotency-Key: %s\n",
				result.Transaction.ID, result.Transaction.Amount.StringFixed(2), result.Party.Name,
				result.Party.BalanceCompany, result.Party.CurrentBalance.StringFixed(2), key)
			return nil
		},
	}
	recordCmd.Flags().StringVar(&amount, "amount", "", "Amount paid")
	recordCmd.Flags().StringVar(&req.Company, "company", "", "Operating company")
	recordCmd.Flags().StringVar(&req.Description, "description", "", "Free text")
	recordCmd.Flags().StringVar(&req.VoucherRef, "voucher", "", "Voucher or receipt reference")
	recordCmd.Flags().StringVar(&key, "idempotency-key", "", "Reuse to retry safely; generated when empty")
	_ = recordCmd.MarkFlagRequired("amount")
	_ = recordCmd.MarkFlagRequired("company")

	cmd.AddCommand(recordCmd)
	return cmd
}

func transactionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Enter or delete sales, purchases and returns",
	}

	var req dto.AddTransactionRequest
	var amount, settled, key string
	addCmd := &cobra.Command{
		Use:   "add <party-id>",
		Short: "Enter a sale, purchase or return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			paid, err := decimal.NewFromString(settled)
			if err != nil {
				return fmt.Errorf("invalid --settled: %w", err)
			}
			req.Amount = value

			switch domain.TransactionType(req.Type) {
			case domain.TransactionTypeSale:
				req.PaymentReceived = paid
			case domain.TransactionTypePurchase:
				req.PaidAmount = paid
			}
			if req.Date == "" {
				req.Date = time.Now().Format(domain.DateLayout)
			}
			if key == "" {
				key = uuid.NewString()
			}

			result, err := opts.client().AddTransaction(cmd.Context(), args[0], req, key)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s of %s\nBalance (%s): %s\n",
				result.Transaction.Type, result.Transaction.ID, result.Transaction.Amount.StringFixed(2),
				result.Party.BalanceCompany, result.Party.CurrentBalance.StringFixed(2))
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Type, "type", "sale", "sale, purchase or return")
	addCmd.Flags().StringVar(&req.Date, "date", "", "YYYY-MM-DD, today when empty")
	addCmd.Flags().StringVar(&req.Company, "company", "", "Operating company")
	addCmd.Flags().StringVar(&amount, "amount", "", "Face value")
	addCmd.Flags().StringVar(&settled, "settled", "0", "Amount settled at the time of the sale or purchase")
	addCmd.Flags().StringVar(&req.Description, "description", "", "Free text")
	addCmd.Flags().StringVar(&req.VoucherRef, "voucher", "", "Voucher reference")
	addCmd.Flags().StringVar(&key, "idempotency-key", "", "Reuse to retry safely; generated when empty")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("company")

	deleteCmd := &cobra.Command{
		Use:   "delete <party-id> <transaction-id>",
		Short: "Delete a transaction and refresh the party balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.client().DeleteTransaction(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\nBalance (%s): %s\n",
				result.Transaction.ID, result.Party.BalanceCompany, result.Party.CurrentBalance.StringFixed(2))
			return nil
		},
	}

	cmd.AddCommand(addCmd, deleteCmd)
	return cmd
}

func reconcileCmd(opts *options) *cobra.Command {
	var company string

	cmd := &cobra.Command{
		Use:   "reconcile [party-id]",
		Short: "Compare cached balances with their transaction history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.client()

			if len(args) == 1 {
				result, err := client.ReconcileParty(cmd.Context(), args[0], company)
				if err != nil {
					return err
				}
				if opts.output == "json" {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printReconciliation(cmd.OutOrStdout(), result)
				if !result.IsReconciled {
					return fmt.Errorf("party %s is out of balance", result.PartyID)
				}
				return nil
			}

			report, err := client.ReconciliationReport(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d parties, %d reconciled\n", report.TotalParties, report.ReconciledParties)
			for _, d := range report.Discrepancies {
				printReconciliation(cmd.OutOrStdout(), d)
			}
			if len(report.Discrepancies) > 0 {
				return fmt.Errorf("%d parties out of balance", len(report.Discrepancies))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Company to refold, the cached balance company when empty")

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Operator token operations",
	}

	var secret, operatorID, name string
	var companies []string
	var ttl time.Duration
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an operator token with the server's JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.Operator{
				ID:        operatorID,
				Name:      name,
				Companies: companies,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret")
	issueCmd.Flags().StringVar(&operatorID, "operator", "", "Operator ID")
	issueCmd.Flags().StringVar(&name, "name", "", "Operator display name")
	issueCmd.Flags().StringSliceVar(&companies, "companies", []string{domain.AllCompanies}, "Companies the operator may use, * for all")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("operator")

	cmd.AddCommand(issueCmd)
	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Party change notifications",
	}

	var redisURL, channel string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print party events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := redis.NewClient(cmd.Context(), redisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			return watchEvents(cmd.Context(), client, channel, cmd.OutOrStdout())
		},
	}
	watchCmd.Flags().StringVar(&redisURL, "redis", envOr("REDIS_URL", "redis://localhost:6379"), "Redis URL")
	watchCmd.Flags().StringVar(&channel, "channel", envOr("EVENTS_CHANNEL", "partyledger.events"), "Pub/sub channel")

	cmd.AddCommand(watchCmd)
	return cmd
}

// watchEvents prints one JSON line per event until ctx is cancelled.
func watchEvents(ctx context.Context, client *goredis.Client, channel string, out io.Writer) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	subscriber := redisRepo.NewEventSubscriber(client, channel, logger)

	enc := json.NewEncoder(out)
	err := subscriber.Subscribe(ctx, func(event domain.PartyEvent) error {
		return enc.Encode(event)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printLedger(out io.Writer, ledger *dto.LedgerResponse) error {
	fmt.Fprintf(out, "%s (%s) - %s\n", ledger.PartyName, ledger.PartyType, ledger.Company)
	if ledger.From != "" || ledger.To != "" {
		fmt.Fprintf(out, "Window: %s .. %s\n", orDash(ledger.From), orDash(ledger.To))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE\t")
	fmt.Fprintf(w, "\tOpening balance\t\t\t%s\t\n", ledger.OpeningBalance.StringFixed(2))
	for _, e := range ledger.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			e.Date, truncate(e.Description, 40), e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Balance.StringFixed(2))
	}
	fmt.Fprintf(w, "\tTotals\t%s\t%s\t%s\t\n",
		ledger.TotalDebit.StringFixed(2), ledger.TotalCredit.StringFixed(2), ledger.ClosingBalance.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}

	if ledger.Incomplete {
		fmt.Fprintf(out, "WARNING: %d unreadable transactions left out: %s\n",
			len(ledger.RejectedIDs), strings.Join(ledger.RejectedIDs, ", "))
	}
	return nil
}

func printReconciliation(out io.Writer, r *dto.ReconciliationResponse) {
	state := "OK"
	if !r.IsReconciled {
		state = "MISMATCH"
	}
	fmt.Fprintf(out, "%s %s [%s] cached=%s recomputed=%s diff=%s\n",
		state, r.PartyID, r.Company, r.CachedBalance.StringFixed(2), r.RecomputedBalance.StringFixed(2), r.Difference.StringFixed(2))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
