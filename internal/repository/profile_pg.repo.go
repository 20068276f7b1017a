package repository

import (
	"context"
	"errors"
	"fmt"

	"profile-service/internal/domain"
	"profile-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGProfileRepo struct {
	db *pgxpool.Pool
}

func NewPGProfileRepo(db *pgxpool.Pool) *PGProfileRepo {
	return &PGProfileRepo{db: db}
}

func (r *PGProfileRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			bio          TEXT,
			role         TEXT NOT NULL,
			photo_url    TEXT,
			encrypted_id TEXT NOT NULL UNIQUE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure profiles schema: %w", err)
	}
	if _, err := r.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS profiles_created_at_idx ON profiles (created_at)`); err != nil {
		return fmt.Errorf("ensure profiles index: %w", err)
	}
	return nil
}

// Create inserts a new profile.
func (r *PGProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, name, bio, role, photo_url, encrypted_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.Name, p.Bio, p.Role, p.PhotoURL, p.EncryptedID, p.CreatedAt)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return xerrors.ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns profiles in insertion order.
func (r *PGProfileRepo) List(ctx context.Context, limit int) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, bio, role, photo_url, encrypted_id, created_at
		FROM profiles
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Bio, &p.Role, &p.PhotoURL, &p.EncryptedID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetByID fetches a profile by its ID.
func (r *PGProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx, `
		SELECT id, name, bio, role, photo_url, encrypted_id, created_at
		FROM profiles
		WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Bio, &p.Role, &p.PhotoURL, &p.EncryptedID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
