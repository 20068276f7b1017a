package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"profile-service/internal/card"
	"profile-service/pkg/xerrors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Browser loads card documents for capture.
type Browser interface {
	Open(ctx context.Context, document string, scale float64) (Surface, error)
	Close() error
}

// Surface is one loaded card document. Capture returns a PNG of the card
// element and may be called repeatedly.
type Surface interface {
	WaitImages(ctx context.Context, timeout time.Duration) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

const (
	viewportWidth  = 800
	viewportHeight = 1000
)

const waitImagesJS = `() => Promise.all(Array.from(document.images)
	.filter(img => !img.complete)
	.map(img => new Promise(done => { img.onload = done; img.onerror = done; })))`

// RodBrowser drives headless Chromium. The binary is resolved on first use;
// with no explicit bin the launcher downloads a build when none is found.
type RodBrowser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launch   *launcher.Launcher
	bin      string
	headless bool
	logger   *zap.Logger
}

func NewRodBrowser(bin string, headless bool, logger *zap.Logger) *RodBrowser {
	return &RodBrowser{bin: bin, headless: headless, logger: logger}
}

func (b *RodBrowser) ensure(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return b.browser, nil
		}
		b.logger.Warn("stale capture browser, relaunching")
		_ = b.browser.Close()
		b.browser = nil
		if b.launch != nil {
			b.launch.Kill()
			b.launch = nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the browser outlives the request that first needed it
	l := launcher.New().Headless(b.headless)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch chromium: %v", xerrors.ErrCaptureUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect chromium: %v", xerrors.ErrCaptureUnavailable, err)
	}

	b.browser = browser
	b.launch = l
	b.logger.Info("capture browser started", zap.String("control_url", controlURL))
	return browser, nil
}

func (b *RodBrowser) Open(ctx context.Context, document string, scale float64) (Surface, error) {
	browser, err := b.ensure(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %v", xerrors.ErrCaptureFailed, err)
	}
	s := &rodSurface{page: page}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: scale,
	}).Call(page.Context(ctx)); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: set viewport: %v", xerrors.ErrCaptureFailed, err)
	}

	p := page.Context(ctx)
	if err := p.SetDocumentContent(document); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: load card: %v", xerrors.ErrCaptureFailed, err)
	}
	if err := p.WaitLoad(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: wait load: %v", xerrors.ErrCaptureFailed, err)
	}
	return s, nil
}

// Close shuts the browser down. A later Open relaunches it.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launch != nil {
		b.launch.Cleanup()
		b.launch = nil
	}
	return err
}

type rodSurface struct {
	page *rod.Page
	el   *rod.Element
}

func (s *rodSurface) WaitImages(ctx context.Context, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Eval(waitImagesJS)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// images still loading after the bound; capture what is there
		return nil
	}
	return err
}

func (s *rodSurface) Capture(ctx context.Context) ([]byte, error) {
	if s.el == nil {
		el, err := s.page.Context(ctx).Element("#" + card.ExportElementID)
		if err != nil {
			return nil, err
		}
		s.el = el
	}
	return s.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (s *rodSurface) Close() error {
	return s.page.Close()
}
