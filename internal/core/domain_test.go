package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in  string
		out TransactionType
		ok  bool
	}{
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("case %d expected %q, got %q (err=%v)", i, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	for _, c := range Currencies() {
		if got, err := ParseCurrency(string(c)); err != nil || got != c {
			t.Fatalf("expected %s, got %s (err=%v)", c, got, err)
		}
	}
	if got, _ := ParseCurrency("usd"); got != USD {
		t.Fatalf("expected lower-case code to parse, got %q", got)
	}
	if _, err := ParseCurrency("JPY"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		OwnerID:     "u1",
		Amount:      decimal.NewFromInt(100),
		Category:    "Food",
		Description: "lunch",
		Type:        Expense,
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be allowed, got %v", err)
	}

	bads := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(tx *Transaction) { tx.OwnerID = "" }, ErrEmptyOwner},
		{func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{func(tx *Transaction) { tx.Category = " " }, ErrEmptyCategory},
		{func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
	}
	for i, b := range bads {
		tx := good
		b.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, b.want) {
			t.Fatalf("case %d expected %v, got %v", i, b.want, err)
		}
	}
}

func TestBudgetCategoryValidate(t *testing.T) {
	good := BudgetCategory{OwnerID: "u1", Category: "Food", Amount: decimal.NewFromInt(200)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	neg := good
	neg.Spent = decimal.NewFromInt(-5)
	if err := neg.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUserProfileValidate(t *testing.T) {
	p := DefaultProfile("u1")
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile should be valid, got %v", err)
	}
	p.Currency = "JPY"
	if err := p.Validate(); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
