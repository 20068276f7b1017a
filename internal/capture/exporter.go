package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"strings"
	"time"

	"profile-service/internal/card"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatGIF Format = "gif"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatGIF:
		return FormatGIF, nil
	}
	return "", fmt.Errorf("%w: %q", xerrors.ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Artifact is an encoded export ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Filename is arcians-<encrypted id>.<format>.
func Filename(encryptedID string, f Format) string {
	return "arcians-" + encryptedID + "." + string(f)
}

// Background is painted under every capture.
var Background = color.RGBA{R: 0x0a, G: 0x0a, B: 0x0f, A: 0xff}

type Settings struct {
	StaticScale   float64
	AnimatedScale float64
	ImageTimeout  time.Duration
	Settle        time.Duration // pause before the static capture so effects finish drawing
	Frames        int
	FrameInterval time.Duration
	FrameDelay    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		StaticScale:   3,
		AnimatedScale: 1,
		ImageTimeout:  5 * time.Second,
		Settle:        800 * time.Millisecond,
		Frames:        50,
		FrameInterval: 50 * time.Millisecond,
		FrameDelay:    80 * time.Millisecond,
	}
}

type Exporter struct {
	browser  Browser
	renderer *card.Renderer
	settings Settings
	logger   *zap.Logger
}

func NewExporter(b Browser, r *card.Renderer, s Settings, logger *zap.Logger) *Exporter {
	return &Exporter{browser: b, renderer: r, settings: s, logger: logger}
}

// Export renders v with layout and captures it in format f.
func (e *Exporter) Export(ctx context.Context, v card.View, layout card.Layout, f Format) (*Artifact, error) {
	switch f {
	case FormatPNG:
		return e.ExportPNG(ctx, v, layout)
	case FormatGIF:
		return e.ExportGIF(ctx, v, layout)
	}
	return nil, fmt.Errorf("%w: %q", xerrors.ErrUnknownFormat, f)
}

// ExportPNG takes one high resolution capture.
func (e *Exporter) ExportPNG(ctx context.Context, v card.View, layout card.Layout) (*Artifact, error) {
	surface, err := e.open(ctx, v, layout, e.settings.StaticScale)
	if err != nil {
		return nil, err
	}
	defer surface.Close()

	if err := sleep(ctx, e.settings.Settle); err != nil {
		return nil, err
	}

	shot, err := surface.Capture(ctx)
	if err != nil {
		return nil, e.captureErr(ctx, err)
	}
	frame, err := flatten(shot)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", xerrors.ErrCaptureFailed, err)
	}

	e.logger.Info("card exported",
		zap.String("encrypted_id", v.EncryptedID),
		zap.String("format", string(FormatPNG)),
		zap.Int("bytes", buf.Len()))
	return &Artifact{Filename: Filename(v.EncryptedID, FormatPNG), ContentType: FormatPNG.ContentType(), Data: buf.Bytes()}, nil
}

// ExportGIF takes Frames sequential captures FrameInterval apart and
// assembles them into a looping GIF.
func (e *Exporter) ExportGIF(ctx context.Context, v card.View, layout card.Layout) (*Artifact, error) {
	surface, err := e.open(ctx, v, layout, e.settings.AnimatedScale)
	if err != nil {
		return nil, err
	}
	defer surface.Close()

	shots := make([][]byte, 0, e.settings.Frames)
	for i := 0; i < e.settings.Frames; i++ {
		if i > 0 {
			if err := sleep(ctx, e.settings.FrameInterval); err != nil {
				return nil, err
			}
		}
		shot, err := surface.Capture(ctx)
		if err != nil {
			return nil, e.captureErr(ctx, err)
		}
		shots = append(shots, shot)
	}

	anim, err := assemble(shots, e.settings.FrameDelay)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("%w: encode gif: %v", xerrors.ErrCaptureFailed, err)
	}

	e.logger.Info("card exported",
		zap.String("encrypted_id", v.EncryptedID),
		zap.String("format", string(FormatGIF)),
		zap.Int("frames", len(shots)),
		zap.Int("bytes", buf.Len()))
	return &Artifact{Filename: Filename(v.EncryptedID, FormatGIF), ContentType: FormatGIF.ContentType(), Data: buf.Bytes()}, nil
}

func (e *Exporter) open(ctx context.Context, v card.View, layout card.Layout, scale float64) (Surface, error) {
	doc, err := e.renderer.Document(v, card.Options{Layout: layout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrCaptureFailed, err)
	}

	surface, err := e.browser.Open(ctx, doc, scale)
	if err != nil {
		if errors.Is(err, xerrors.ErrCaptureUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", xerrors.ErrCaptureFailed, err)
	}

	if err := surface.WaitImages(ctx, e.settings.ImageTimeout); err != nil {
		_ = surface.Close()
		return nil, e.captureErr(ctx, err)
	}
	return surface, nil
}

func (e *Exporter) captureErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, xerrors.ErrCaptureFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", xerrors.ErrCaptureFailed, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// flatten decodes a capture and paints it over Background.
func flatten(shot []byte) (*image.RGBA, error) {
	src, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("%w: decode capture: %v", xerrors.ErrCaptureFailed, err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst, nil
}

// assemble quantizes every capture to the web-safe palette and builds a
// GIF that loops forever.
func assemble(shots [][]byte, delay time.Duration) (*gif.GIF, error) {
	anim := &gif.GIF{LoopCount: 0}
	centis := int(delay / (10 * time.Millisecond))

	for _, shot := range shots {
		frame, err := flatten(shot)
		if err != nil {
			return nil, err
		}
		p := image.NewPaletted(frame.Bounds(), palette.WebSafe)
		draw.FloydSteinberg.Draw(p, p.Bounds(), frame, image.Point{})
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, centis)
	}
	return anim, nil
}
