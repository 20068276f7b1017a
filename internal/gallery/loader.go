package gallery

import (
	"context"

	"profile-service/internal/card"
	"profile-service/internal/domain"

	"go.uber.org/zap"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

const MsgLoadFailed = "Failed to load profiles"

// Source lists stored profiles.
type Source interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

// Result is the outcome of one load.
type Result struct {
	State State
	Cards []card.View
	Err   error
}

type Loader struct {
	source Source
	logger *zap.Logger
}

func NewLoader(source Source, logger *zap.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches every profile. onState, when set, sees StateLoading first and
// then the final state.
func (l *Loader) Load(ctx context.Context, onState func(State)) Result {
	if onState == nil {
		onState = func(State) {}
	}
	onState(StateLoading)

	profiles, err := l.source.ListProfiles(ctx)
	if err != nil {
		l.logger.Error("gallery load failed", zap.Error(err))
		onState(StateFailed)
		return Result{State: StateFailed, Err: err}
	}

	if len(profiles) == 0 {
		onState(StateEmpty)
		return Result{State: StateEmpty}
	}

	cards := make([]card.View, 0, len(profiles))
	for i := range profiles {
		cards = append(cards, card.FromProfile(&profiles[i]))
	}
	onState(StateReady)
	return Result{State: StateReady, Cards: cards}
}

// Page turns a result into the gallery view.
func (r Result) Page(layout card.Layout) card.GalleryPage {
	page := card.GalleryPage{State: string(r.State), Cards: r.Cards, Layout: layout}
	if r.State == StateFailed {
		// failed loads fall back to the empty-state content
		page.State = string(StateEmpty)
		page.Notices = []card.Notice{{Level: "error", Message: MsgLoadFailed}}
	}
	return page
}
