package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

const maxTags = 20

// Store is the persistence surface. *Repository implements it.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetPublic(ctx context.Context, userID uuid.UUID) (*models.Profile, string, error)
	Update(ctx context.Context, userID uuid.UUID, bio, city *string, tags []string) (*models.Profile, error)
}

// UpdateInput carries a partial profile edit. Nil fields are left unchanged;
// an empty non-nil slice clears the tags.
type UpdateInput struct {
	Bio            *string
	City           *string
	ProfessionTags []string
}

// PublicView is a profile as other users see it.
type PublicView struct {
	FullName string          `json:"full_name"`
	Profile  *models.Profile `json:"profile"`
}

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*models.Profile, error)
	Public(ctx context.Context, userID uuid.UUID) (*PublicView, error)
}

type service struct {
	repo Store
}

func NewService(repo Store) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*models.Profile, error) {
	if in.Bio != nil {
		trimmed := strings.TrimSpace(*in.Bio)
		in.Bio = &trimmed
	}
	if in.City != nil {
		trimmed := strings.TrimSpace(*in.City)
		in.City = &trimmed
	}
	tags := in.ProfessionTags
	if tags != nil {
		cleaned := make([]string, 0, len(tags))
		for _, t := range tags {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				cleaned = append(cleaned, t)
			}
		}
		if len(cleaned) > maxTags {
			cleaned = cleaned[:maxTags]
		}
		tags = cleaned
	}

	p, err := s.repo.Update(ctx, userID, in.Bio, in.City, tags)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *service) Public(ctx context.Context, userID uuid.UUID) (*PublicView, error) {
	p, name, err := s.repo.GetPublic(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &PublicView{FullName: name, Profile: p}, nil
}
