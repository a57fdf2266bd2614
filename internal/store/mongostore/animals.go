package mongostore

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/store"
)

var animalSortFields = map[string]string{
	"created_at":  "createdAt",
	"name":        "name",
	"animal_code": "animalID",
	"birth_date":  "birthDate",
}

func (s *Store) CreateAnimal(ctx context.Context, a *models.Animal) error {
	if _, err := s.col(colAnimals).InsertOne(s.ctx(ctx), a); err != nil {
		return fmt.Errorf("creating animal: %w", translate(err))
	}
	return nil
}

func (s *Store) GetAnimal(ctx context.Context, id string, farmIDs []string) (*models.Animal, error) {
	if len(farmIDs) == 0 {
		return nil, store.ErrNotFound
	}
	var a models.Animal
	err := s.col(colAnimals).FindOne(s.ctx(ctx), bson.M{"_id": id, "farmID": bson.M{"$in": farmIDs}}).Decode(&a)
	if err != nil {
		return nil, fmt.Errorf("getting animal %s: %w", id, translate(err))
	}
	return &a, nil
}

func (s *Store) ListAnimals(ctx context.Context, f store.AnimalFilter) ([]models.Animal, int, error) {
	animals := []models.Animal{}
	if len(f.FarmIDs) == 0 {
		return animals, 0, nil
	}

	filter := bson.M{"farmID": bson.M{"$in": f.FarmIDs}}
	if f.AnimalType != nil {
		filter["animalType"] = *f.AnimalType
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Query != nil && *f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(*f.Query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"animalID": re}}
	}

	total, err := s.col(colAnimals).CountDocuments(s.ctx(ctx), filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting animals: %w", err)
	}

	cursor, err := s.col(colAnimals).Find(s.ctx(ctx), filter,
		findOptions(sortField(animalSortFields, f.SortBy, "created_at"), f.SortDesc, f.Limit, f.Offset))
	if err != nil {
		return nil, 0, fmt.Errorf("listing animals: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &animals); err != nil {
		return nil, 0, fmt.Errorf("decoding animals: %w", err)
	}
	return animals, int(total), nil
}

func (s *Store) ListAnimalCodes(ctx context.Context, farmID, prefix string) ([]string, error) {
	cursor, err := s.col(colAnimals).Find(s.ctx(ctx),
		bson.M{"farmID": farmID, "animalID": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}},
		options.Find().SetProjection(bson.M{"animalID": 1}))
	if err != nil {
		return nil, fmt.Errorf("listing animal codes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AnimalID string `bson:"animalID"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding animal codes: %w", err)
	}

	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.AnimalID)
	}
	return codes, nil
}

func (s *Store) AnimalCodeExists(ctx context.Context, farmID, code string) (bool, error) {
	n, err := s.col(colAnimals).CountDocuments(s.ctx(ctx), bson.M{"farmID": farmID, "animalID": code},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking animal code: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateAnimal(ctx context.Context, a *models.Animal) error {
	res, err := s.col(colAnimals).ReplaceOne(s.ctx(ctx), bson.M{"_id": a.ID}, a)
	if err != nil {
		return fmt.Errorf("updating animal %s: %w", a.ID, translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating animal %s: %w", a.ID, store.ErrNotFound)
	}
	return nil
}

// summaries loads animal summaries keyed by id.
func (s *Store) summaries(ctx context.Context, ids []string) (map[string]models.AnimalSummary, error) {
	out := make(map[string]models.AnimalSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.col(colAnimals).Find(s.ctx(ctx), bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "animalID": 1, "animalType": 1}))
	if err != nil {
		return nil, fmt.Errorf("loading animals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.AnimalSummary
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding animals: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}
