package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

const animalColumns = `id, farm_id, animal_code, animal_type, name, sex, birth_date, color, weight_kg, height_cm,
	mother_name, father_name, image_url, status, created_at, updated_at`

func (s *Store) CreateAnimal(ctx context.Context, a *models.Animal) error {
	a.BirthDate = utcPtr(a.BirthDate)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)

	_, err := s.q.NamedExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`) VALUES (
			:id, :farm_id, :animal_code, :animal_type, :name, :sex, :birth_date, :color, :weight_kg, :height_cm,
			:mother_name, :father_name, :image_url, :status, :created_at, :updated_at
		)`, a)
	if err != nil {
		return fmt.Errorf("creating animal: %w", translate(err))
	}
	return nil
}

// GetAnimal returns the animal only when it belongs to one of farmIDs.
func (s *Store) GetAnimal(ctx context.Context, id string, farmIDs []string) (*models.Animal, error) {
	if len(farmIDs) == 0 {
		return nil, store.ErrNotFound
	}
	q, args, err := in(`SELECT `+animalColumns+` FROM animals WHERE id = ? AND farm_id IN (?)`, id, farmIDs)
	if err != nil {
		return nil, err
	}

	var a models.Animal
	if err := s.q.GetContext(ctx, &a, q, args...); err != nil {
		return nil, fmt.Errorf("getting animal %s: %w", id, translate(err))
	}
	return &a, nil
}

func (s *Store) ListAnimals(ctx context.Context, f store.AnimalFilter) ([]models.Animal, int, error) {
	animals := []models.Animal{}
	if len(f.FarmIDs) == 0 {
		return animals, 0, nil
	}

	conditions := []string{"farm_id IN (?)"}
	args := []any{f.FarmIDs}

	if f.AnimalType != nil {
		conditions = append(conditions, "animal_type = ?")
		args = append(args, *f.AnimalType)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Query != nil && *f.Query != "" {
		conditions = append(conditions, "(name LIKE ? OR animal_code LIKE ?)")
		q := "%" + *f.Query + "%"
		args = append(args, q, q)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	q, qargs, err := in(`SELECT COUNT(*) FROM animals`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.q.GetContext(ctx, &total, q, qargs...); err != nil {
		return nil, 0, fmt.Errorf("counting animals: %w", err)
	}

	sorts := map[string]bool{"created_at": true, "name": true, "animal_code": true, "birth_date": true}
	q, qargs, err = in(`SELECT `+animalColumns+` FROM animals`+where+
		orderBy("", sorts, f.SortBy, "created_at", f.SortDesc)+page(f.Limit, f.Offset), args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.q.SelectContext(ctx, &animals, q, qargs...); err != nil {
		return nil, 0, fmt.Errorf("listing animals: %w", err)
	}
	return animals, total, nil
}

func (s *Store) ListAnimalCodes(ctx context.Context, farmID, prefix string) ([]string, error) {
	codes := []string{}
	err := s.q.SelectContext(ctx, &codes,
		`SELECT animal_code FROM animals WHERE farm_id = ? AND substr(animal_code, 1, ?) = ?`,
		farmID, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("listing animal codes: %w", err)
	}
	return codes, nil
}

func (s *Store) AnimalCodeExists(ctx context.Context, farmID, code string) (bool, error) {
	var n int
	err := s.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM animals WHERE farm_id = ? AND animal_code = ?`, farmID, code)
	if err != nil {
		return false, fmt.Errorf("checking animal code: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateAnimal(ctx context.Context, a *models.Animal) error {
	a.BirthDate = utcPtr(a.BirthDate)
	a.UpdatedAt = utc(a.UpdatedAt)

	res, err := s.q.NamedExecContext(ctx, `
		UPDATE animals SET
			name = :name, sex = :sex, birth_date = :birth_date, color = :color,
			weight_kg = :weight_kg, height_cm = :height_cm,
			mother_name = :mother_name, father_name = :father_name,
			image_url = :image_url, status = :status, updated_at = :updated_at
		WHERE id = :id`, a)
	if err != nil {
		return fmt.Errorf("updating animal %s: %w", a.ID, translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating animal %s: %w", a.ID, store.ErrNotFound)
	}
	return nil
}
