package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetInput is a budget limit as typed by a user.
type BudgetInput struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

// BudgetService manages per-category spending limits. Spent is only ever
// changed through UpdateSpent; recording an expense does not touch it.
type BudgetService struct {
	store   ports.BudgetStore
	changes *Changes
	now     func() time.Time
}

func NewBudgetService(store ports.BudgetStore, changes *Changes) *BudgetService {
	return &BudgetService{store: store, changes: changes, now: time.Now}
}

// Create stores a new budget with nothing spent.
func (s *BudgetService) Create(ctx context.Context, ownerID string, in BudgetInput) (core.BudgetCategory, error) {
	amount, err := core.ParsePositiveAmount(in.Amount)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("parse budget amount %q: %w", in.Amount, core.ErrInvalidBudget)
	}

	b := core.BudgetCategory{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Category:  strings.TrimSpace(in.Category),
		Amount:    amount,
		Spent:     decimal.Zero,
		CreatedAt: s.now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	if err := s.store.AddBudget(ctx, b); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("save budget: %w", err)
	}

	s.changes.changed(ctx, ownerID, amqp.ReasonBudgetCreated)
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.BudgetCategory, error) {
	budgets, err := s.store.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// UpdateSpent sets the amount spent against a budget.
func (s *BudgetService) UpdateSpent(ctx context.Context, ownerID, id, spent string) (core.BudgetCategory, error) {
	amount, err := core.ParseAmount(spent)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("parse spent %q: %w", spent, err)
	}
	b, err := s.store.UpdateBudgetSpent(ctx, ownerID, id, amount)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("update budget %s: %w", id, err)
	}
	s.changes.changed(ctx, ownerID, amqp.ReasonBudgetUpdated)
	return b, nil
}
