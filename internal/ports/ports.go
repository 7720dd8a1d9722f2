// Package ports declares the outbound interfaces implemented by the stores.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type (
	TransactionStore interface {
		AddTransaction(ctx context.Context, tx core.Transaction) error
		// DeleteTransaction returns ErrNotFound when id does not belong to owner.
		DeleteTransaction(ctx context.Context, ownerID, id string) error
		// ListTransactions returns the owner's transactions, newest first.
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	}

	BudgetStore interface {
		AddBudget(ctx context.Context, b core.BudgetCategory) error
		ListBudgets(ctx context.Context, ownerID string) ([]core.BudgetCategory, error)
		UpdateBudgetSpent(ctx context.Context, ownerID, id string, spent decimal.Decimal) (core.BudgetCategory, error)
	}

	ProfileStore interface {
		// GetProfile returns ErrNotFound when the owner never saved one.
		GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error)
		UpsertProfile(ctx context.Context, p core.UserProfile) error
	}

	UserStore interface {
		// CreateUser returns ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u core.User) error
		UserByEmail(ctx context.Context, email string) (core.User, error)
		// ListUserIDs returns every user id, sorted.
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s core.Session) error
		SessionByToken(ctx context.Context, token string) (core.Session, error)
		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		BudgetStore
		ProfileStore
		UserStore
		SessionStore
	}
)
