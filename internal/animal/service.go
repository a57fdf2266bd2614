// Package animal manages a farm's herd: registration with generated or
// user-supplied codes, lookups, edits and photos.
package animal

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"jaothui-api-server/internal/animalid"
	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/clock"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/models"
	"jaothui-api-server/internal/optional"
	"jaothui-api-server/internal/store"
	"jaothui-api-server/internal/validate"
)

// generateAttempts bounds retries when a concurrent create takes the code we generated.
const generateAttempts = 3

// ImageStore persists an uploaded photo and returns its public URL.
type ImageStore interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type CreateInput struct {
	FarmID     string            `json:"farmId" validate:"required"`
	AnimalType models.AnimalType `json:"animalType" validate:"required,oneof=BUFFALO CHICKEN COW PIG HORSE"`
	Name       string            `json:"name" validate:"required,max=100"`
	AnimalID   string            `json:"animalId" validate:"omitempty,max=50"`
	Sex        *models.Sex       `json:"sex" validate:"omitempty,oneof=MALE FEMALE"`
	BirthDate  models.Date       `json:"birthDate"`
	Color      string            `json:"color" validate:"max=50"`
	WeightKg   *int              `json:"weightKg" validate:"omitnil,gt=0"`
	HeightCm   *int              `json:"heightCm" validate:"omitnil,gt=0"`
	MotherName string            `json:"motherName" validate:"max=100"`
	FatherName string            `json:"fatherName" validate:"max=100"`
	ImageURL   string            `json:"imageUrl" validate:"omitempty,http_url"`
}

type UpdateInput struct {
	Name       optional.Value[string]              `json:"name"`
	Sex        optional.Value[models.Sex]          `json:"sex"`
	BirthDate  optional.Value[models.Date]         `json:"birthDate"`
	Color      optional.Value[string]              `json:"color"`
	WeightKg   optional.Value[int]                 `json:"weightKg"`
	HeightCm   optional.Value[int]                 `json:"heightCm"`
	MotherName optional.Value[string]              `json:"motherName"`
	FatherName optional.Value[string]              `json:"fatherName"`
	ImageURL   optional.Value[string]              `json:"imageUrl"`
	Status     optional.Value[models.AnimalStatus] `json:"status"`
}

type CheckInput struct {
	AnimalID  string `json:"animalId" validate:"required"`
	FarmID    string `json:"farmId" validate:"required"`
	ExcludeID string `json:"excludeAnimalId"`
}

type ListInput struct {
	FarmID     string
	AnimalType *models.AnimalType
	// Status defaults to ACTIVE. AllStatuses lifts the filter.
	Status      *models.AnimalStatus
	AllStatuses bool
	Search      string
	SortBy      string // name, animalId, createdAt, birthDate
	SortOrder   string
	models.PageRequest
}

var sortColumns = map[string]string{
	"name":      "name",
	"animalId":  "animal_code",
	"createdAt": "created_at",
	"birthDate": "birth_date",
}

type Service struct {
	store  store.Store
	images ImageStore
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

// NewService wires the animal service. images may be nil when uploads are not configured.
func NewService(st store.Store, images ImageStore, clk clock.Clock, ids clock.IDGenerator, logger logging.Logger) *Service {
	return &Service{store: st, images: images, clock: clk, ids: ids, logger: logger.With("component", "animal")}
}

// Create registers an animal. Without an animalId a code is generated from
// the farm's existing codes for today; a supplied one must be well formed and
// unused in the farm.
func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (*models.Animal, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AnimalID = strings.TrimSpace(in.AnimalID)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkFarm(ctx, actorID, in.FarmID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	a := models.Animal{
		ID:         s.ids.New(),
		FarmID:     in.FarmID,
		AnimalType: in.AnimalType,
		Name:       in.Name,
		Sex:        in.Sex,
		BirthDate:  in.BirthDate.Ptr(),
		Color:      strings.TrimSpace(in.Color),
		WeightKg:   in.WeightKg,
		HeightCm:   in.HeightCm,
		MotherName: strings.TrimSpace(in.MotherName),
		FatherName: strings.TrimSpace(in.FatherName),
		ImageURL:   in.ImageURL,
		Status:     models.AnimalStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if in.AnimalID != "" {
		if err := animalid.Validate(in.AnimalID, in.AnimalType); err != nil {
			return nil, err
		}
		exists, err := s.store.AnimalCodeExists(ctx, in.FarmID, in.AnimalID)
		if err != nil {
			return nil, apperrors.Infrastructure(err, "checking animal id")
		}
		if exists {
			return nil, errDuplicateCode
		}
		a.AnimalID = in.AnimalID
		if err := s.store.CreateAnimal(ctx, &a); err != nil {
			return nil, translate(err, "animal")
		}
	} else if err := s.createWithGeneratedCode(ctx, &a); err != nil {
		return nil, err
	}

	s.logger.Info("animal created", "animal_id", a.ID, "code", a.AnimalID, "farm_id", a.FarmID)
	return &a, nil
}

var errDuplicateCode = apperrors.Conflict("animal ID already exists in this farm")

func (s *Service) createWithGeneratedCode(ctx context.Context, a *models.Animal) error {
	for attempt := 1; ; attempt++ {
		code, err := s.nextCode(ctx, a.FarmID, a.AnimalType, a.CreatedAt)
		if err != nil {
			return err
		}
		a.AnimalID = code

		err = s.store.CreateAnimal(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == generateAttempts {
			return translate(err, "animal")
		}
		s.logger.Warn("generated animal id taken, retrying", "code", code, "attempt", attempt)
	}
}

func (s *Service) nextCode(ctx context.Context, farmID string, t models.AnimalType, asOf time.Time) (string, error) {
	prefix, err := animalid.Prefix(t, asOf)
	if err != nil {
		return "", err
	}
	existing, err := s.store.ListAnimalCodes(ctx, farmID, prefix)
	if err != nil {
		return "", apperrors.Infrastructure(err, "listing animal ids")
	}
	code, err := animalid.Generate(t, existing, asOf)
	if errors.Is(err, animalid.ErrSequenceExhausted) {
		return "", apperrors.Conflict("no animal IDs left for today")
	}
	return code, err
}

// GenerateID previews the next code for t. An empty farmID uses the actor's
// first owned farm.
func (s *Service) GenerateID(ctx context.Context, actorID, farmID string, t models.AnimalType) (string, error) {
	if !t.Valid() {
		return "", apperrors.Validation("animalType", "must be one of [BUFFALO CHICKEN COW PIG HORSE]")
	}
	if farmID == "" {
		farms, err := s.store.ListOwnedFarms(ctx, actorID)
		if err != nil {
			return "", apperrors.Infrastructure(err, "listing farms")
		}
		if len(farms) == 0 {
			return "", apperrors.NotFound("no farm found for user")
		}
		farmID = farms[0].ID
	} else if err := s.checkFarm(ctx, actorID, farmID); err != nil {
		return "", err
	}
	return s.nextCode(ctx, farmID, t, s.clock.Now())
}

// CheckDuplicate reports whether the code is already used in the farm,
// ignoring the animal named by ExcludeID.
func (s *Service) CheckDuplicate(ctx context.Context, actorID string, in CheckInput) (bool, error) {
	if err := validate.Struct(in); err != nil {
		return false, err
	}
	if err := s.checkFarm(ctx, actorID, in.FarmID); err != nil {
		return false, err
	}
	exists, err := s.store.AnimalCodeExists(ctx, in.FarmID, in.AnimalID)
	if err != nil {
		return false, apperrors.Infrastructure(err, "checking animal id")
	}
	if !exists || in.ExcludeID == "" {
		return exists, nil
	}

	self, err := s.store.GetAnimal(ctx, in.ExcludeID, []string{in.FarmID})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return true, nil
	case err != nil:
		return false, apperrors.Infrastructure(err, "loading animal")
	}
	return self.AnimalID != in.AnimalID, nil
}

func (s *Service) Get(ctx context.Context, actorID, id string) (*models.Animal, error) {
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}
	a, err := s.store.GetAnimal(ctx, id, farmIDs)
	if err != nil {
		return nil, translate(err, "animal")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, actorID string, in ListInput) (*models.Page[models.Animal], error) {
	col := "created_at"
	if in.SortBy != "" {
		c, ok := sortColumns[in.SortBy]
		if !ok {
			return nil, apperrors.Validation("sortBy", "must be one of [name animalId createdAt birthDate]")
		}
		col = c
	}

	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.FarmID != "" {
		if slices.Contains(farmIDs, in.FarmID) {
			farmIDs = []string{in.FarmID}
		} else {
			farmIDs = nil
		}
	}

	f := store.AnimalFilter{
		FarmIDs:    farmIDs,
		AnimalType: in.AnimalType,
		Status:     in.Status,
		SortBy:     col,
		SortDesc:   !strings.EqualFold(in.SortOrder, "asc"),
		Limit:      in.PageRequest.Normalise().Limit,
		Offset:     in.PageRequest.Offset(),
	}
	if f.Status == nil && !in.AllStatuses {
		active := models.AnimalStatusActive
		f.Status = &active
	}
	if q := strings.TrimSpace(in.Search); q != "" {
		f.Query = &q
	}

	animals, total, err := s.store.ListAnimals(ctx, f)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing animals")
	}
	page := models.NewPage(animals, in.PageRequest, total)
	return &page, nil
}

// Update applies a partial edit. Absent fields are untouched; null clears
// optional ones.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (*models.Animal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if v, ok := in.Name.Get(); ok {
		a.Name = strings.TrimSpace(v)
	}
	if in.Sex.Set {
		a.Sex = ptr(in.Sex)
	}
	if in.BirthDate.Set {
		a.BirthDate = in.BirthDate.Value.Ptr()
	}
	if in.Color.Set {
		a.Color = strings.TrimSpace(in.Color.Value)
	}
	if in.WeightKg.Set {
		a.WeightKg = ptr(in.WeightKg)
	}
	if in.HeightCm.Set {
		a.HeightCm = ptr(in.HeightCm)
	}
	if in.MotherName.Set {
		a.MotherName = strings.TrimSpace(in.MotherName.Value)
	}
	if in.FatherName.Set {
		a.FatherName = strings.TrimSpace(in.FatherName.Value)
	}
	if in.ImageURL.Set {
		a.ImageURL = in.ImageURL.Value
	}
	if v, ok := in.Status.Get(); ok {
		a.Status = v
	}
	a.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateAnimal(ctx, a); err != nil {
		return nil, translate(err, "animal")
	}
	s.logger.Info("animal updated", "animal_id", a.ID, "status", a.Status)
	return a, nil
}

// UploadImage stores a photo for the animal and records its URL.
func (s *Service) UploadImage(ctx context.Context, actorID, id string, file io.Reader, contentType string) (*models.Animal, error) {
	if s.images == nil {
		return nil, apperrors.Infrastructure(errors.New("image storage is not configured"), "uploading image")
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperrors.Validation("image", "must be a JPEG, PNG or WebP image")
	}
	a, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	key := "animals/" + a.FarmID + "/" + a.ID + "/" + s.ids.New() + ext
	url, err := s.images.UploadFile(ctx, file, key, contentType)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "uploading image")
	}

	a.ImageURL = url
	a.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateAnimal(ctx, a); err != nil {
		return nil, translate(err, "animal")
	}
	s.logger.Info("animal image uploaded", "animal_id", a.ID, "key", key)
	return a, nil
}

func (s *Service) checkFarm(ctx context.Context, actorID, farmID string) error {
	farmIDs, err := s.accessibleFarms(ctx, actorID)
	if err != nil {
		return err
	}
	if !slices.Contains(farmIDs, farmID) {
		return apperrors.NotFound("farm not found")
	}
	return nil
}

func (s *Service) accessibleFarms(ctx context.Context, actorID string) ([]string, error) {
	ids, err := s.store.ListAccessibleFarmIDs(ctx, actorID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "listing farms")
	}
	return ids, nil
}

func (in UpdateInput) validate() error {
	if in.Name.Set {
		name := strings.TrimSpace(in.Name.Value)
		if in.Name.Null || name == "" {
			return apperrors.Validation("name", "is required")
		}
		if len([]rune(name)) > 100 {
			return apperrors.Validation("name", "must be at most 100 characters")
		}
	}
	if v, ok := in.Sex.Get(); ok && v != models.SexMale && v != models.SexFemale {
		return apperrors.Validation("sex", "must be one of [MALE FEMALE]")
	}
	for field, v := range map[string]optional.Value[int]{"weightKg": in.WeightKg, "heightCm": in.HeightCm} {
		if n, ok := v.Get(); ok && n <= 0 {
			return apperrors.Validation(field, "must be greater than 0")
		}
	}
	for field, v := range map[string]optional.Value[string]{"color": in.Color, "motherName": in.MotherName, "fatherName": in.FatherName} {
		limit := 100
		if field == "color" {
			limit = 50
		}
		if len([]rune(v.Value)) > limit {
			return apperrors.Validationf(field, "must be at most %d characters", limit)
		}
	}
	if v, ok := in.Status.Get(); ok {
		switch v {
		case models.AnimalStatusActive, models.AnimalStatusSold, models.AnimalStatusDeceased, models.AnimalStatusTransferred:
		default:
			return apperrors.Validation("status", "must be one of [ACTIVE SOLD DECEASED TRANSFERRED]")
		}
	}
	if in.Status.Null {
		return apperrors.Validation("status", "cannot be removed")
	}
	return nil
}

func ptr[T any](v optional.Value[T]) *T {
	if val, ok := v.Get(); ok {
		return &val
	}
	return nil
}

func translate(err error, entity string) error {
	var ae *apperrors.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(entity + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return errDuplicateCode
	default:
		return apperrors.Infrastructure(err, entity+" store failure")
	}
}
