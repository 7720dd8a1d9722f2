package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/feed"
	"fintrack/internal/ports"
	"fintrack/internal/report"
	"fintrack/internal/store/memory"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	owners  []string
	reasons []string
	err     error
}

func (r *recorder) Notify(_ context.Context, ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, ownerID)
}

func (r *recorder) PublishSnapshotChanged(_ context.Context, ownerID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	return r.err
}

type fixture struct {
	store    *memory.Store
	rec      *recorder
	txs      *TransactionService
	budgets  *BudgetService
	profiles *ProfileService
	reports  *ReportService
}

func newFixture() *fixture {
	store := memory.New()
	rec := &recorder{}
	changes := &Changes{Notifiers: []Notifier{rec}, Publisher: rec}
	clock := func() time.Time { return fixedNow }

	f := &fixture{
		store:    store,
		rec:      rec,
		txs:      NewTransactionService(store, changes),
		budgets:  NewBudgetService(store, changes),
		profiles: NewProfileService(store, changes),
		reports:  NewReportService(store, store, store, report.NewMemo(report.Options{}, 16, time.Minute)),
	}
	f.txs.now, f.budgets.now, f.profiles.now, f.reports.now = clock, clock, clock, clock
	return f
}

func TestTransactionService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tx, err := f.txs.Create(ctx, "o1", TransactionInput{Amount: "12,50", Category: " Food ", Description: "lunch", Type: "Expense"})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Food", tx.Category)
	assert.Equal(t, core.Expense, tx.Type)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, fixedNow, tx.Date)

	assert.Equal(t, []string{"o1"}, f.rec.owners)
	assert.Equal(t, []string{amqp.ReasonTransactionCreated}, f.rec.reasons)

	list, err := f.txs.List(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTransactionService_CreateRejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"negative amount", TransactionInput{Amount: "-5", Category: "Food", Description: "x", Type: "expense"}, core.ErrInvalidAmount},
		{"bad type", TransactionInput{Amount: "5", Category: "Food", Description: "x", Type: "transfer"}, core.ErrInvalidType},
		{"no category", TransactionInput{Amount: "5", Category: " ", Description: "x", Type: "income"}, core.ErrEmptyCategory},
		{"no description", TransactionInput{Amount: "5", Category: "Food", Type: "income"}, core.ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.txs.Create(ctx, "o1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.rec.owners, "rejected input must not notify")
}

func TestTransactionService_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()
	f.rec.err = errors.New("broker down")

	_, err := f.txs.Create(context.Background(), "o1", TransactionInput{Amount: "1", Category: "A", Description: "d", Type: "income"})
	assert.NoError(t, err)
}

func TestTransactionService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tx, err := f.txs.Create(ctx, "o1", TransactionInput{Amount: "1", Category: "A", Description: "d", Type: "income"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.txs.Delete(ctx, "o2", tx.ID), ports.ErrNotFound)
	require.NoError(t, f.txs.Delete(ctx, "o1", tx.ID))
	assert.Equal(t, []string{amqp.ReasonTransactionCreated, amqp.ReasonTransactionDeleted}, f.rec.reasons)
}

func TestBudgetService(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.budgets.Create(ctx, "o1", BudgetInput{Category: "Food", Amount: "0"})
	assert.ErrorIs(t, err, core.ErrInvalidBudget)

	b, err := f.budgets.Create(ctx, "o1", BudgetInput{Category: "Food", Amount: "200"})
	require.NoError(t, err)
	assert.True(t, b.Spent.IsZero())
	assert.Equal(t, fixedNow, b.CreatedAt)

	_, err = f.txs.Create(ctx, "o1", TransactionInput{Amount: "50", Category: "Food", Description: "d", Type: "expense"})
	require.NoError(t, err)
	list, err := f.budgets.List(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Spent.IsZero(), "expenses do not reconcile budgets")

	updated, err := f.budgets.UpdateSpent(ctx, "o1", b.ID, "150")
	require.NoError(t, err)
	assert.True(t, updated.Spent.Equal(decimal.NewFromInt(150)))

	_, err = f.budgets.UpdateSpent(ctx, "o1", "missing", "1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = f.budgets.UpdateSpent(ctx, "o1", b.ID, "-1")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestProfileService(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.profiles.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, p.Currency)

	_, err = f.profiles.Save(ctx, "o1", ProfileInput{Currency: "JPY"})
	assert.ErrorIs(t, err, core.ErrInvalidCurrency)

	saved, err := f.profiles.Save(ctx, "o1", ProfileInput{DisplayName: "Asha", Currency: "usd", MonthlyBudget: "3000"})
	require.NoError(t, err)
	assert.Equal(t, core.USD, saved.Currency)
	assert.Equal(t, fixedNow, saved.UpdatedAt)

	got, err := f.profiles.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.DisplayName)
}

func TestReportService_Report(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _ = f.txs.Create(ctx, "o1", TransactionInput{Amount: "1000", Category: "Salary", Description: "pay", Type: "income"})
	_, _ = f.txs.Create(ctx, "o1", TransactionInput{Amount: "400", Category: "Rent", Description: "rent", Type: "expense"})
	_, _ = f.budgets.Create(ctx, "o1", BudgetInput{Category: "Rent", Amount: "500"})
	_, _ = f.profiles.Save(ctx, "o1", ProfileInput{Currency: "EUR"})
	_ = f.store.AddTransaction(ctx, core.Transaction{ID: "bad", OwnerID: "o1", Amount: decimal.NewFromInt(-3), Type: core.Expense, Date: fixedNow})

	r, err := f.reports.Report(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, core.EUR, r.Currency)
	assert.True(t, r.Totals.NetSavings.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, []string{"bad"}, r.Skipped)
	assert.Len(t, r.Budgets, 1)
	assert.Equal(t, fixedNow, r.GeneratedAt)

	empty, err := f.reports.Report(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, empty.Totals.NetSavings.IsZero())
	assert.Equal(t, core.DefaultCurrency, empty.Currency)
}

func TestReportService_NotifyForgetsMemo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	memo := report.NewMemo(report.Options{}, 16, time.Minute)
	f.reports = NewReportService(f.store, f.store, f.store, memo)

	_, err := f.reports.Report(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 1, memo.Cache().Size())

	f.reports.Notify(ctx, "o1")
	assert.Equal(t, 0, memo.Cache().Size())
}

type failingStore struct {
	*memory.Store
}

func (failingStore) ListBudgets(context.Context, string) ([]core.BudgetCategory, error) {
	return nil, errors.New("disk on fire")
}

func TestReportService_SnapshotError(t *testing.T) {
	store := failingStore{memory.New()}
	svc := NewReportService(store, store, store, report.NewMemo(report.Options{}, 4, time.Minute))

	_, err := svc.Snapshot(context.Background(), "o1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load budgets")
}

// parkedStore reads the first transaction list and then holds it until
// release is closed.
type parkedStore struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *parkedStore) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := p.Store.ListTransactions(ctx, ownerID)
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
	}
	return txs, err
}

func TestReportService_LoadAfterChangeDoesNotJoinEarlierLoad(t *testing.T) {
	store := &parkedStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	reports := NewReportService(store, store, store, report.NewMemo(report.Options{}, 16, time.Minute))
	hub := feed.NewHub(reports)
	txs := NewTransactionService(store, &Changes{Notifiers: []Notifier{reports, hub}})
	ctx := context.Background()

	updates, cancel := hub.Subscribe("o1")
	defer cancel()

	earlier := make(chan report.Report, 1)
	go func() {
		r, err := reports.Report(ctx, "o1")
		assert.NoError(t, err)
		earlier <- r
	}()
	<-store.entered

	created := make(chan error, 1)
	go func() {
		_, err := txs.Create(ctx, "o1", TransactionInput{Amount: "10", Category: "Food", Description: "lunch", Type: "expense"})
		created <- err
	}()

	select {
	case snap := <-updates:
		assert.Len(t, snap.Transactions, 1, "subscriber must see the record that triggered the update")
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered while an earlier load was in flight")
	}
	require.NoError(t, <-created)

	close(store.release)
	assert.Empty(t, (<-earlier).Daily)
}

func TestReportService_SnapshotConcurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.txs.Create(ctx, "o1", TransactionInput{Amount: "5", Category: "A", Description: "d", Type: "income"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := f.reports.Snapshot(ctx, "o1")
			assert.NoError(t, err)
			assert.Len(t, snap.Transactions, 1)
		}()
	}
	wg.Wait()
}

func TestReportService_SnapshotCanceled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.reports.Snapshot(ctx, "o1")
	// Either the load wins the race or the cancellation does; neither may panic.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestChanges_NilSafe(t *testing.T) {
	var c *Changes
	c.changed(context.Background(), "o1", "x")

	empty := &Changes{}
	empty.changed(context.Background(), "o1", "x")
}
