package generator

import (
	"context"
	"io"
	"sync"
	"time"

	"profile-service/internal/card"
	"profile-service/internal/domain"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

// Session is one user's generator state: the form, an optional staged
// photo and the last created profile.
type Session struct {
	mu      sync.Mutex
	form    Form
	photo   *Photo
	current *domain.Profile
	busy    bool

	stager    *Stager
	submitter *Submitter
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewSession(store Store, notifier Notifier, logger *zap.Logger) *Session {
	return &Session{
		stager:    NewStager(),
		submitter: NewSubmitter(store, notifier, logger),
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Session) SetForm(f Form) {
	s.mu.Lock()
	s.form = f
	s.mu.Unlock()
}

func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Photo() *Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo
}

func (s *Session) Current() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// StagePhoto replaces the staged photo. On failure the notice is shown and
// the session is left as it was.
func (s *Session) StagePhoto(ctx context.Context, filename, contentType string, size int64, r io.Reader) error {
	photo, err := s.stager.Stage(ctx, filename, contentType, size, r)
	if err != nil {
		s.notifier.Notify(LevelError, validationMessage(err))
		s.logger.Warn("photo rejected", zap.String("filename", filename), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.photo = photo
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, MsgPhotoSelected)
	return nil
}

// Submit runs the submission flow. Only one may run at a time; the form is
// kept on failure so the user can retry.
func (s *Session) Submit(ctx context.Context) (*domain.Profile, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.notifier.Notify(LevelInfo, MsgSubmitInProgress)
		return nil, xerrors.ErrBusy
	}
	s.busy = true
	form, photo := s.form, s.photo
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	p, err := s.submitter.Submit(ctx, form, photo)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return p, nil
}

// Reset clears the form, the staged photo and the current profile.
func (s *Session) Reset() {
	s.mu.Lock()
	s.form = Form{}
	s.photo = nil
	s.current = nil
	s.mu.Unlock()
}

// View is the card to show: the created profile, else a live preview of
// the form, else nil when there is nothing to preview.
func (s *Session) View() *card.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview := ""
	if s.photo != nil {
		preview = s.photo.Preview
	}
	if s.current != nil {
		v := card.FromProfile(s.current)
		v.Photo = card.PhotoSource(preview, s.current.Photo())
		return &v
	}
	if s.form.Empty() && s.photo == nil {
		return nil
	}
	v := card.FromPending(s.form.Name, s.form.Role, s.form.Bio, preview, s.now())
	return &v
}
