package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jaothui-api-server/internal/models"
)

func (s *Store) findProfile(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var p models.Profile
	if err := s.col(colProfiles).FindOne(s.ctx(ctx), filter).Decode(&p); err != nil {
		return nil, fmt.Errorf("finding profile: %w", translate(err))
	}
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"_id": id})
}

func (s *Store) GetProfileByExternalID(ctx context.Context, externalID string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"externalUserID": externalID})
}

func (s *Store) GetProfileByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"phoneNumber": phone})
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	_, err := s.col(colProfiles).UpdateOne(s.ctx(ctx),
		bson.M{"externalUserID": p.ExternalUserID},
		bson.M{
			"$set": bson.M{
				"firstName":   p.FirstName,
				"lastName":    p.LastName,
				"phoneNumber": p.PhoneNumber,
				"avatarURL":   p.AvatarURL,
				"updatedAt":   p.UpdatedAt,
			},
			"$setOnInsert": bson.M{"_id": p.ID, "createdAt": p.CreatedAt},
		},
		options.Update().SetUpsert(true),
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
