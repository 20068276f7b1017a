package generator

import (
	"strings"

	"profile-service/internal/domain"
	"profile-service/pkg/xerrors"
)

// Form holds the text fields of a pending submission.
type Form struct {
	Name string
	Role string
	Bio  string
}

// Validate checks name, then role.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return xerrors.ErrNameRequired
	}
	if strings.TrimSpace(f.Role) == "" {
		return xerrors.ErrRoleRequired
	}
	return nil
}

func (f Form) Empty() bool {
	return f.Name == "" && f.Role == "" && f.Bio == ""
}

// Create builds the store request. Fields are sent as typed.
func (f Form) Create(photoURL *string) domain.ProfileCreate {
	bio := f.Bio
	return domain.ProfileCreate{
		Name:     f.Name,
		Bio:      &bio,
		Role:     f.Role,
		PhotoURL: photoURL,
	}
}
