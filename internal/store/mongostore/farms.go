package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jaothui-api-server/internal/models"
)

func (s *Store) CreateFarm(ctx context.Context, f *models.Farm) error {
	if _, err := s.col(colFarms).InsertOne(s.ctx(ctx), f); err != nil {
		return fmt.Errorf("creating farm: %w", translate(err))
	}
	return nil
}

func (s *Store) AddFarmMember(ctx context.Context, m *models.FarmMember) error {
	if _, err := s.col(colFarmMembers).InsertOne(s.ctx(ctx), m); err != nil {
		return fmt.Errorf("adding farm member: %w", translate(err))
	}
	return nil
}

func (s *Store) GetFarm(ctx context.Context, id string) (*models.Farm, error) {
	var f models.Farm
	if err := s.col(colFarms).FindOne(s.ctx(ctx), bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, fmt.Errorf("getting farm %s: %w", id, translate(err))
	}
	return &f, nil
}

func (s *Store) ListOwnedFarms(ctx context.Context, ownerID string) ([]models.Farm, error) {
	cursor, err := s.col(colFarms).Find(s.ctx(ctx), bson.M{"ownerID": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing farms: %w", err)
	}
	defer cursor.Close(ctx)

	farms := []models.Farm{}
	if err := cursor.All(ctx, &farms); err != nil {
		return nil, fmt.Errorf("decoding farms: %w", err)
	}
	return farms, nil
}

func (s *Store) ListAccessibleFarmIDs(ctx context.Context, userID string) ([]string, error) {
	owned, err := s.ListOwnedFarms(ctx, userID)
	if err != nil {
		return nil, err
	}

	memberOf, err := s.col(colFarmMembers).Distinct(s.ctx(ctx), "farmID", bson.M{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, f := range owned {
		if !seen[f.ID] {
			seen[f.ID] = true
			ids = append(ids, f.ID)
		}
	}
	for _, v := range memberOf {
		if id, ok := v.(string); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
