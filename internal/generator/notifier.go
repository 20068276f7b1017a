package generator

import (
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// User-visible notices.
const (
	MsgPhotoSelected    = "Photo selected!"
	MsgNotAnImage       = "Please upload an image file"
	MsgPhotoTooLarge    = "Image size must be less than 5MB"
	MsgNameRequired     = "Please enter your name"
	MsgRoleRequired     = "Please enter your role"
	MsgUploadFailed     = "Failed to upload photo"
	MsgProfileCreated   = "Profile generated successfully!"
	MsgCreateFailed     = "Failed to generate profile"
	MsgSubmitInProgress = "Profile generation already in progress"
)

type Notice struct {
	Level   Level
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes notices to a zap logger. The CLI uses it as its only
// user-facing output for notices.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.logger.Error(message)
	case LevelWarning:
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}

// Recorder keeps notices for later display, e.g. on the next rendered page.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
	r.mu.Unlock()
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}
