package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-service/internal/domain"
	"profile-service/internal/events"
	"profile-service/internal/repository"
	"profile-service/pkg/cache"
	"profile-service/pkg/id"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

const (
	cacheNamespace = "profiles"
	cacheListKey   = "list"
	cacheTTL       = 5 * time.Minute

	// attempts at a fresh encrypted id before giving up
	maxCreateAttempts = 3
)

type ProfileService struct {
	repo      repository.ProfileRepository
	cache     *cache.Cache
	publisher events.Publisher
	logger    *zap.Logger

	now       func() time.Time
	encryptID func() (string, error)
	newID     func() string
}

// NewProfileService wires the store. cache may be nil when redis is down.
func NewProfileService(repo repository.ProfileRepository, c *cache.Cache, pub events.Publisher, logger *zap.Logger) *ProfileService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &ProfileService{
		repo:      repo,
		cache:     c,
		publisher: pub,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		encryptID: id.GenerateEncryptedID,
		newID:     id.NewProfileID,
	}
}

// Create validates and persists a new profile.
func (s *ProfileService) Create(ctx context.Context, req domain.ProfileCreate) (*domain.Profile, error) {
	switch req.Blank() {
	case "name":
		return nil, fmt.Errorf("%w: %w", xerrors.ErrInvalidInput, xerrors.ErrNameRequired)
	case "role":
		return nil, fmt.Errorf("%w: %w", xerrors.ErrInvalidInput, xerrors.ErrRoleRequired)
	}

	photo := req.PhotoURL
	if photo != nil && *photo == "" {
		photo = nil
	}

	var (
		p   *domain.Profile
		err error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		p, err = s.build(req, photo)
		if err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, xerrors.ErrDuplicate) {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		s.logger.Warn("encrypted id collision, regenerating",
			zap.Int("attempt", attempt),
			zap.String("encrypted_id", p.EncryptedID))
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.invalidateList(ctx)

	if err := s.publisher.PublishProfileCreated(ctx, p); err != nil {
		// the profile is stored; subscribers catch up from the list
		s.logger.Warn("publish profile created", zap.String("profile_id", p.ID), zap.Error(err))
	}

	s.logger.Info("profile created",
		zap.String("profile_id", p.ID),
		zap.String("encrypted_id", p.EncryptedID))
	return p, nil
}

func (s *ProfileService) build(req domain.ProfileCreate, photo *string) (*domain.Profile, error) {
	enc, err := s.encryptID()
	if err != nil {
		return nil, fmt.Errorf("generate encrypted id: %w", err)
	}
	return &domain.Profile{
		ID:          s.newID(),
		Name:        req.Name,
		Bio:         req.Bio,
		Role:        req.Role,
		PhotoURL:    photo,
		EncryptedID: enc,
		CreatedAt:   s.now(),
	}, nil
}

// List returns stored profiles in insertion order, at most repository.MaxList.
func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, error) {
	if s.cache != nil {
		var cached []domain.Profile
		err := s.cache.GetJSON(ctx, cacheNamespace, cacheListKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("profile list cache read", zap.Error(err))
		}
	}

	profiles, err := s.repo.List(ctx, repository.MaxList)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheNamespace, cacheListKey, profiles, cacheTTL); err != nil {
			s.logger.Warn("profile list cache write", zap.Error(err))
		}
	}
	return profiles, nil
}

// Get returns one profile or xerrors.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	if s.cache != nil {
		var cached domain.Profile
		if err := s.cache.GetJSON(ctx, cacheNamespace, profileID, &cached); err == nil {
			return &cached, nil
		}
	}

	p, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	// profiles are immutable so the entry never goes stale
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheNamespace, profileID, p, cacheTTL); err != nil {
			s.logger.Warn("profile cache write", zap.String("profile_id", profileID), zap.Error(err))
		}
	}
	return p, nil
}

func (s *ProfileService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheNamespace, cacheListKey); err != nil {
		s.logger.Warn("profile list cache invalidate", zap.Error(err))
	}
}
