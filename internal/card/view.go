package card

import (
	"strings"
	"time"

	"profile-service/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultPhotoURL = "https://images.unsplash.com/photo-1706606999710-72658165a73d?w=400"
	PlaceholderID   = "XXXXXXXXXXXX"
	DateLayout      = "1/2/2006"
)

// View is everything a card shows. It is built from a stored profile or from
// the in-progress form.
type View struct {
	ProfileID   string // empty for a pending preview
	Name        string
	Handle      string
	Role        string
	Bio         string
	EncryptedID string
	Date        string
	Photo       string
	CreatedAt   time.Time
}

func (v View) Pending() bool { return v.ProfileID == "" }

// FromProfile builds the view of a persisted profile.
func FromProfile(p *domain.Profile) View {
	return View{
		ProfileID:   p.ID,
		Name:        p.Name,
		Handle:      Handle(p.Name),
		Role:        p.Role,
		Bio:         p.BioText(),
		EncryptedID: p.EncryptedID,
		Date:        p.CreatedAt.UTC().Format(DateLayout),
		Photo:       PhotoSource("", p.Photo()),
		CreatedAt:   p.CreatedAt,
	}
}

// FromPending builds a live preview. preview is the staged data URL, if any.
func FromPending(name, role, bio, preview string, now time.Time) View {
	return View{
		Name:        name,
		Handle:      Handle(name),
		Role:        role,
		Bio:         bio,
		EncryptedID: PlaceholderID,
		Date:        now.UTC().Format(DateLayout),
		Photo:       PhotoSource(preview, ""),
		CreatedAt:   now,
	}
}

// Handle is "@" followed by the lower-cased name with whitespace removed.
func Handle(name string) string {
	return "@" + cases.Lower(language.Und).String(strings.Join(strings.Fields(name), ""))
}

// PhotoSource resolves the image: staged preview, stored URL, then the default.
func PhotoSource(preview, stored string) string {
	switch {
	case preview != "":
		return preview
	case stored != "":
		return stored
	}
	return DefaultPhotoURL
}
