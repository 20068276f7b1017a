package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"profile-service/pkg/xerrors"
)

// MaxPhotoBytes is the largest photo that can be staged.
const MaxPhotoBytes = 5 << 20

// Photo is a staged image waiting for upload.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
	Preview     string // data URL
}

// Stager checks and decodes a selected file.
type Stager struct {
	maxBytes int64
}

func NewStager() *Stager {
	return &Stager{maxBytes: MaxPhotoBytes}
}

// Stage validates the declared size and content type, then reads the file
// and builds its preview. Nothing is read when validation fails.
func (s *Stager) Stage(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*Photo, error) {
	if size > s.maxBytes {
		return nil, xerrors.ErrPhotoTooLarge
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, xerrors.ErrNotAnImage
	}

	data, err := readAll(ctx, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	// the declared size can lie
	if int64(len(data)) > s.maxBytes {
		return nil, xerrors.ErrPhotoTooLarge
	}

	return &Photo{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		Preview:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32<<10)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
