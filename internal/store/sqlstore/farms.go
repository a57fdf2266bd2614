package sqlstore

import (
	"context"
	"fmt"

	"jaothui-api-server/internal/models"
)

const farmColumns = `id, owner_id, farm_name, province, farm_code, created_at, updated_at`

func (s *Store) CreateFarm(ctx context.Context, f *models.Farm) error {
	f.CreatedAt = utc(f.CreatedAt)
	f.UpdatedAt = utc(f.UpdatedAt)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO farms (`+farmColumns+`)
		VALUES (:id, :owner_id, :farm_name, :province, :farm_code, :created_at, :updated_at)`, f)
	if err != nil {
		return fmt.Errorf("creating farm: %w", translate(err))
	}
	return nil
}

func (s *Store) AddFarmMember(ctx context.Context, m *models.FarmMember) error {
	m.CreatedAt = utc(m.CreatedAt)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO farm_members (id, farm_id, user_id, role, created_at)
		VALUES (:id, :farm_id, :user_id, :role, :created_at)`, m)
	if err != nil {
		return fmt.Errorf("adding farm member: %w", translate(err))
	}
	return nil
}

func (s *Store) GetFarm(ctx context.Context, id string) (*models.Farm, error) {
	var f models.Farm
	if err := s.q.GetContext(ctx, &f, `SELECT `+farmColumns+` FROM farms WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("getting farm %s: %w", id, translate(err))
	}
	return &f, nil
}

// ListOwnedFarms returns the owner's farms, oldest first.
func (s *Store) ListOwnedFarms(ctx context.Context, ownerID string) ([]models.Farm, error) {
	farms := []models.Farm{}
	err := s.q.SelectContext(ctx, &farms,
		`SELECT `+farmColumns+` FROM farms WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing farms: %w", err)
	}
	return farms, nil
}

func (s *Store) ListAccessibleFarmIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.q.SelectContext(ctx, &ids, `
		SELECT id FROM farms WHERE owner_id = ?
		UNION
		SELECT farm_id FROM farm_members WHERE user_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accessible farms: %w", err)
	}
	return ids, nil
}
