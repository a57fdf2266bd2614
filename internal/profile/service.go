// Package profile maps identity-provider subjects to internal profiles.
package profile

import (
	"context"
	"errors"
	"strings"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/farm"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/validate"
)

// Identity is what the bearer token tells us about the caller.
type Identity struct {
	Subject   string
	FirstName string
	LastName  string
	AvatarURL string
}

type CompleteInput struct {
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=10,max=15,phone"`
}

var errPhoneTaken = apperrors.Conflict("phone number is already in use")

type Service struct {
	store  store.Store
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

func NewService(st store.Store, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger) *Service {
	return &Service{store: st, clock: clk, ids: ids, logger: logger.With("component", "profile")}
}

// Resolve returns the caller's profile, creating it together with a default
// farm on first sight.
func (s *Service) Resolve(ctx context.Context, id Identity) (*models.Profile, error) {
	if id.Subject == "" {
		return nil, apperrors.Unauthorized("missing subject")
	}
	p, err := s.store.GetProfileByExternalID(ctx, id.Subject)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Infrastructure(err, "loading profile")
	}

	now := s.clock.Now()
	p = &models.Profile{
		ID:             s.ids.New(),
		ExternalUserID: id.Subject,
		FirstName:      id.FirstName,
		LastName:       id.LastName,
		AvatarURL:      id.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.FirstName == "" {
		p.FirstName = "User"
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpsertProfile(ctx, p); err != nil {
			return apperrors.Infrastructure(err, "creating profile")
		}
		_, err := farm.EnsureDefault(ctx, tx, s.ids, now, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile created", "profile_id", p.ID)
	return p, nil
}

// Get returns the profile for an identity-provider subject.
func (s *Service) Get(ctx context.Context, subject string) (*models.Profile, error) {
	p, err := s.store.GetProfileByExternalID(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("profile not found")
	}
	if err != nil {
		return nil, apperrors.Infrastructure(err, "loading profile")
	}
	return p, nil
}

// Complete records the caller's name and phone number, creating the profile
// if needed, and makes sure they own at least one farm.
func (s *Service) Complete(ctx context.Context, id Identity, in CompleteInput) (*models.Profile, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if id.Subject == "" {
		return nil, apperrors.Unauthorized("missing subject")
	}

	holder, err := s.store.GetProfileByPhone(ctx, in.PhoneNumber)
	switch {
	case err == nil && holder.ExternalUserID != id.Subject:
		return nil, errPhoneTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.Infrastructure(err, "checking phone number")
	}

	now := s.clock.Now()
	phone := in.PhoneNumber
	p := &models.Profile{
		ID:             s.ids.New(),
		ExternalUserID: id.Subject,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PhoneNumber:    &phone,
		AvatarURL:      id.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var farmCreated bool
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if existing, err := tx.GetProfileByExternalID(ctx, id.Subject); err == nil && p.AvatarURL == "" {
			p.AvatarURL = existing.AvatarURL
		}
		if err := tx.UpsertProfile(ctx, p); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errPhoneTaken
			}
			return apperrors.Infrastructure(err, "saving profile")
		}
		var err error
		farmCreated, err = farm.EnsureDefault(ctx, tx, s.ids, now, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile completed", "profile_id", p.ID, "farm_created", farmCreated)
	return p, nil
}
