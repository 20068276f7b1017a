package generator

import (
	"context"
	"errors"
	"fmt"

	"profile-service/internal/domain"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

// Store is the profile store as the generator sees it. UploadPhoto returns
// an absolute URL.
type Store interface {
	UploadPhoto(ctx context.Context, filename, contentType string, data []byte) (string, error)
	CreateProfile(ctx context.Context, req domain.ProfileCreate) (*domain.Profile, error)
}

type Submitter struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

func NewSubmitter(store Store, notifier Notifier, logger *zap.Logger) *Submitter {
	return &Submitter{store: store, notifier: notifier, logger: logger}
}

// Submit validates, uploads the staged photo if any, and creates the
// profile. A failed upload is reported and the profile is created without
// a photo.
func (s *Submitter) Submit(ctx context.Context, form Form, photo *Photo) (*domain.Profile, error) {
	if err := form.Validate(); err != nil {
		s.report(LevelError, validationMessage(err), err)
		return nil, err
	}

	var photoURL *string
	if photo != nil {
		url, err := s.store.UploadPhoto(ctx, photo.Filename, photo.ContentType, photo.Data)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.report(LevelWarning, MsgUploadFailed, err)
		} else {
			photoURL = &url
		}
	}

	p, err := s.store.CreateProfile(ctx, form.Create(photoURL))
	if err != nil {
		s.report(LevelError, MsgCreateFailed, err)
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.notifier.Notify(LevelSuccess, MsgProfileCreated)
	s.logger.Info("profile generated",
		zap.String("profile_id", p.ID),
		zap.String("encrypted_id", p.EncryptedID),
		zap.Bool("photo", photoURL != nil))
	return p, nil
}

func (s *Submitter) report(level Level, msg string, err error) {
	s.notifier.Notify(level, msg)
	switch level {
	case LevelError:
		s.logger.Error(msg, zap.Error(err))
	default:
		s.logger.Warn(msg, zap.Error(err))
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrNameRequired):
		return MsgNameRequired
	case errors.Is(err, xerrors.ErrRoleRequired):
		return MsgRoleRequired
	case errors.Is(err, xerrors.ErrPhotoTooLarge):
		return MsgPhotoTooLarge
	case errors.Is(err, xerrors.ErrNotAnImage):
		return MsgNotAnImage
	}
	return err.Error()
}
