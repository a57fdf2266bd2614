package sqlstore

import (
	"context"
	"fmt"

	"jaothui-api-server/internal/models"
)

const profileColumns = `id, external_user_id, first_name, last_name, phone_number, avatar_url, created_at, updated_at`

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.q.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", id, translate(err))
	}
	return &p, nil
}

func (s *Store) GetProfileByExternalID(ctx context.Context, externalID string) (*models.Profile, error) {
	var p models.Profile
	err := s.q.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE external_user_id = ?`, externalID)
	if err != nil {
		return nil, fmt.Errorf("getting profile by external id: %w", translate(err))
	}
	return &p, nil
}

func (s *Store) GetProfileByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	var p models.Profile
	err := s.q.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE phone_number = ?`, phone)
	if err != nil {
		return nil, fmt.Errorf("getting profile by phone: %w", translate(err))
	}
	return &p, nil
}

// UpsertProfile keeps the stored id and created_at on update and reloads p from the stored row.
func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO profiles (
			id, external_user_id, first_name, last_name, phone_number, avatar_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone_number = excluded.phone_number,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.ID, p.ExternalUserID, p.FirstName, p.LastName, p.PhoneNumber, p.AvatarURL,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", translate(err))
	}

	stored, err := s.GetProfileByExternalID(ctx, p.ExternalUserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}
