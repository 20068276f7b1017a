package domain

import (
	"strings"
	"time"
)

// Profile is the persisted identity record. Profiles are never updated.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Bio         *string   `json:"bio"`
	Role        string    `json:"role"`
	PhotoURL    *string   `json:"photo_url"`
	EncryptedID string    `json:"encrypted_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// BioText returns the bio or "" when unset.
func (p *Profile) BioText() string {
	if p.Bio == nil {
		return ""
	}
	return *p.Bio
}

// Photo returns the photo URL or "" when unset.
func (p *Profile) Photo() string {
	if p.PhotoURL == nil {
		return ""
	}
	return *p.PhotoURL
}

// ProfileCreate is the body of POST /api/profiles.
type ProfileCreate struct {
	Name     string  `json:"name"`
	Bio      *string `json:"bio"`
	Role     string  `json:"role"`
	PhotoURL *string `json:"photo_url"`
}

// Blank reports which required field is empty or whitespace, checking name
// first. It returns "" when both are present.
func (c ProfileCreate) Blank() string {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return "name"
	case strings.TrimSpace(c.Role) == "":
		return "role"
	}
	return ""
}

// UploadResult is the body returned by POST /api/upload.
type UploadResult struct {
	URL string `json:"url"`
}

// StoredFile describes an upload written by the store.
type StoredFile struct {
	Name        string
	Path        string
	URL         string
	ContentType string
	Size        int64
	Resized     bool
}

// ProfileEvent is published whenever a profile is created.
type ProfileEvent struct {
	Type    string   `json:"type"`
	Profile *Profile `json:"profile"`
}

const EventProfileCreated = "profile.created"
