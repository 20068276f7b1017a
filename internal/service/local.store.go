package service

import (
	"bytes"
	"context"

	"profile-service/internal/domain"
)

// LocalStore lets in-process views use the services through the same
// contract the remote client offers. Upload paths are made absolute with
// origin.
type LocalStore struct {
	profiles *ProfileService
	uploads  *UploadService
	origin   string
}

func NewLocalStore(profiles *ProfileService, uploads *UploadService, origin string) *LocalStore {
	return &LocalStore{profiles: profiles, uploads: uploads, origin: origin}
}

func (l *LocalStore) UploadPhoto(ctx context.Context, filename, _ string, data []byte) (string, error) {
	f, err := l.uploads.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return l.origin + f.URL, nil
}

func (l *LocalStore) CreateProfile(ctx context.Context, req domain.ProfileCreate) (*domain.Profile, error) {
	return l.profiles.Create(ctx, req)
}

func (l *LocalStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return l.profiles.List(ctx)
}

func (l *LocalStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return l.profiles.Get(ctx, id)
}
