package card

import (
	"fmt"
	"strings"

	"profile-service/pkg/xerrors"
)

// Layout selects the card arrangement. Both layouts show the same fields.
type Layout string

const (
	LayoutBadge  Layout = "badge"
	LayoutPoster Layout = "poster"
)

// ParseLayout accepts "", "badge" and "poster" in any case.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(LayoutBadge):
		return LayoutBadge, nil
	case string(LayoutPoster):
		return LayoutPoster, nil
	}
	return "", fmt.Errorf("%w: layout %q", xerrors.ErrInvalidInput, s)
}

func (l Layout) String() string { return string(l) }
