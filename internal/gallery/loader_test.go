package gallery

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"profile-service/internal/card"
	"profile-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	profiles []domain.Profile
	err      error
}

func (f fakeSource) ListProfiles(context.Context) ([]domain.Profile, error) {
	return f.profiles, f.err
}

func profiles(n int) []domain.Profile {
	out := make([]domain.Profile, n)
	for i := range out {
		out[i] = domain.Profile{
			ID:          "p-" + string(rune('a'+i)),
			Name:        "Member",
			Role:        "Scout",
			EncryptedID: "AAAAAAAAAAA" + string(rune('0'+i)),
			CreatedAt:   time.Now().UTC(),
		}
	}
	return out
}

func TestLoadReportsLoadingThenReady(t *testing.T) {
	var states []State
	res := NewLoader(fakeSource{profiles: profiles(3)}, zap.NewNop()).Load(context.Background(), func(s State) {
		states = append(states, s)
	})

	assert.Equal(t, []State{StateLoading, StateReady}, states)
	require.Len(t, res.Cards, 3)
	seen := map[string]bool{}
	for _, c := range res.Cards {
		seen[c.ProfileID] = true
	}
	assert.Len(t, seen, 3)
}

func TestLoadEmpty(t *testing.T) {
	var states []State
	res := NewLoader(fakeSource{profiles: []domain.Profile{}}, zap.NewNop()).Load(context.Background(), func(s State) {
		states = append(states, s)
	})
	assert.Equal(t, []State{StateLoading, StateEmpty}, states)
	assert.Empty(t, res.Cards)
}

func TestLoadFailureShowsEmptyContentWithNotice(t *testing.T) {
	r, err := card.NewRenderer()
	require.NoError(t, err)

	res := NewLoader(fakeSource{err: errors.New("store down")}, zap.NewNop()).Load(context.Background(), nil)
	var buf bytes.Buffer
	require.NoError(t, r.RenderGallery(&buf, res.Page(card.LayoutBadge)))
	assert.Equal(t, StateFailed, res.State)
	assert.Error(t, res.Err)

	out := buf.String()
	assert.Contains(t, out, MsgLoadFailed)
	assert.Contains(t, out, "No profiles yet")
}

func TestRenderReadyGallery(t *testing.T) {
	r, err := card.NewRenderer()
	require.NoError(t, err)

	res := NewLoader(fakeSource{profiles: profiles(2)}, zap.NewNop()).Load(context.Background(), nil)
	var buf bytes.Buffer
	require.NoError(t, r.RenderGallery(&buf, res.Page(card.LayoutPoster)))
	assert.Equal(t, 2, strings.Count(buf.String(), "data-profile-id="))
	assert.Contains(t, buf.String(), "layout-poster")
}
