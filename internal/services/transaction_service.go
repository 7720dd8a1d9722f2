package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// TransactionInput is a transaction as typed by a user.
type TransactionInput struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// TransactionService records income and expenses for an owner.
type TransactionService struct {
	store   ports.TransactionStore
	changes *Changes
	now     func() time.Time
}

func NewTransactionService(store ports.TransactionStore, changes *Changes) *TransactionService {
	return &TransactionService{store: store, changes: changes, now: time.Now}
}

// Create validates in, assigns an id and the server time, and stores it.
func (s *TransactionService) Create(ctx context.Context, ownerID string, in TransactionInput) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", in.Amount, err)
	}
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse type %q: %w", in.Type, err)
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Amount:      amount,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Type:        typ,
		Date:        s.now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.changes.changed(ctx, ownerID, amqp.ReasonTransactionCreated)
	return tx, nil
}

// Delete removes one of the owner's transactions.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.changes.changed(ctx, ownerID, amqp.ReasonTransactionDeleted)
	return nil
}

// List returns the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

