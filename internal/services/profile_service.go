package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// ProfileInput is the settings form.
type ProfileInput struct {
	DisplayName   string `json:"display_name"`
	Currency      string `json:"currency"`
	MonthlyBudget string `json:"monthly_budget"`
}

type ProfileService struct {
	store   ports.ProfileStore
	changes *Changes
	now     func() time.Time
}

func NewProfileService(store ports.ProfileStore, changes *Changes) *ProfileService {
	return &ProfileService{store: store, changes: changes, now: time.Now}
}

// Get returns the saved profile, or the defaults when none was saved.
func (s *ProfileService) Get(ctx context.Context, ownerID string) (core.UserProfile, error) {
	p, err := s.store.GetProfile(ctx, ownerID)
	if errors.Is(err, ports.ErrNotFound) {
		return core.DefaultProfile(ownerID), nil
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Save replaces the owner's profile.
func (s *ProfileService) Save(ctx context.Context, ownerID string, in ProfileInput) (core.UserProfile, error) {
	currency, err := core.ParseCurrency(in.Currency)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("parse currency %q: %w", in.Currency, err)
	}
	budget := decimal.Zero
	if strings.TrimSpace(in.MonthlyBudget) != "" {
		if budget, err = core.ParseAmount(in.MonthlyBudget); err != nil {
			return core.UserProfile{}, fmt.Errorf("parse monthly budget %q: %w", in.MonthlyBudget, err)
		}
	}

	p := core.UserProfile{
		OwnerID:       ownerID,
		DisplayName:   strings.TrimSpace(in.DisplayName),
		Currency:      currency,
		MonthlyBudget: budget,
		UpdatedAt:     s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return core.UserProfile{}, err
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return core.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}

	s.changes.changed(ctx, ownerID, amqp.ReasonProfileUpdated)
	return p, nil
}
