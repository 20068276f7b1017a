package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-service/internal/domain"
	"profile-service/pkg/xerrors"
)

// fixed width so text ordering matches time ordering
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteProfileRepo struct {
	db *sql.DB
}

func NewSQLiteProfileRepo(db *sql.DB) *SQLiteProfileRepo {
	return &SQLiteProfileRepo{db: db}
}

func (r *SQLiteProfileRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			bio          TEXT,
			role         TEXT NOT NULL,
			photo_url    TEXT,
			encrypted_id TEXT NOT NULL UNIQUE,
			created_at   TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure profiles schema: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, bio, role, photo_url, encrypted_id, created_at)
		VALUES (?,?,?,?,?,?,?)
	`, p.ID, p.Name, nullString(p.Bio), p.Role, nullString(p.PhotoURL), p.EncryptedID,
		p.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return xerrors.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *SQLiteProfileRepo) List(ctx context.Context, limit int) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, bio, role, photo_url, encrypted_id, created_at
		FROM profiles
		ORDER BY rowid ASC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *SQLiteProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, bio, role, photo_url, encrypted_id, created_at
		FROM profiles
		WHERE id=?
	`, id)
	p, err := scanSQLiteProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProfile(s scanner) (*domain.Profile, error) {
	var (
		p         domain.Profile
		bio       sql.NullString
		photo     sql.NullString
		createdAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &bio, &p.Role, &photo, &p.EncryptedID, &createdAt); err != nil {
		return nil, err
	}
	if bio.Valid {
		p.Bio = &bio.String
	}
	if photo.Valid {
		p.PhotoURL = &photo.String
	}
	t, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	p.CreatedAt = t.UTC()
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
