package core

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// DefaultCurrency is used for owners without a saved profile.
const DefaultCurrency = INR

type (
	TransactionType string

	Currency string

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"owner_id"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		Date        time.Time       `json:"date"` // server-assigned; zero when the stored value could not be parsed
	}

	BudgetCategory struct {
		ID        string          `json:"id"`
		OwnerID   string          `json:"owner_id"`
		Category  string          `json:"category"`
		Amount    decimal.Decimal `json:"amount"` // limit
		Spent     decimal.Decimal `json:"spent"`
		CreatedAt time.Time       `json:"created_at"`
	}

	UserProfile struct {
		OwnerID       string          `json:"owner_id"`
		DisplayName   string          `json:"display_name"`
		Currency      Currency        `json:"currency"`
		MonthlyBudget decimal.Decimal `json:"monthly_budget"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidBudget     = errors.New("budget amount must be positive")
	ErrEmptyOwner        = errors.New("empty owner")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrCategoryLength    = errors.New("category too long (max 100 characters)")
)

const (
	maxDescriptionLength = 200
	maxCategoryLength    = 100
)

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// Currencies lists the supported display currencies in menu order.
func Currencies() []Currency {
	return []Currency{INR, USD, EUR, GBP}
}

func (c Currency) Valid() bool {
	return slices.Contains(Currencies(), c)
}

// ParseCurrency accepts a supported ISO code in any case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > maxCategoryLength {
		return ErrCategoryLength
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescriptionLength
	}
	return nil
}

func (b BudgetCategory) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if len(b.Category) > maxCategoryLength {
		return ErrCategoryLength
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidBudget
	}
	if b.Spent.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !p.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if p.MonthlyBudget.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// DefaultProfile is what an owner sees before saving settings.
func DefaultProfile(ownerID string) UserProfile {
	return UserProfile{
		OwnerID:       ownerID,
		Currency:      DefaultCurrency,
		MonthlyBudget: decimal.Zero,
	}
}
