package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"profile-service/internal/card"
	"profile-service/internal/gallery"
	"profile-service/internal/generator"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

// ViewHandler serves the generator and gallery pages.
type ViewHandler struct {
	renderer *card.Renderer
	store    generator.Store
	loader   *gallery.Loader
	logger   *zap.Logger
}

func NewViewHandler(r *card.Renderer, store generator.Store, loader *gallery.Loader, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{renderer: r, store: store, loader: loader, logger: logger}
}

func (h *ViewHandler) Generator(w http.ResponseWriter, r *http.Request) {
	layout, err := card.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.renderGenerator(w, http.StatusOK, card.GeneratorPage{Options: card.Options{Layout: layout}})
}

// Generate runs one submission from the posted form. The photo field is
// optional; a rejected photo stops the submission so the user can pick
// another file. The typed fields are echoed back whatever happens to the
// photo.
func (h *ViewHandler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*generator.MaxPhotoBytes+formOverhead)
	posted, err := readGeneratorForm(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if !errors.As(err, &tooBig) {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		// the body ran past the cap; treat the photo as oversized so a
		// truncated file is never staged
		if posted.photo == nil {
			posted.photo = &postedPhoto{}
		}
		if posted.photo.size <= generator.MaxPhotoBytes {
			posted.photo.size = tooBig.Limit + 1
		}
	}

	layout, err := card.ParseLayout(posted.layout)
	if err != nil {
		layout = card.LayoutBadge
	}

	rec := &generator.Recorder{}
	session := generator.NewSession(h.store, rec, h.logger)
	session.SetForm(posted.Form)

	status := http.StatusOK
	staged := true
	if p := posted.photo; p != nil {
		if err := session.StagePhoto(r.Context(), p.filename, p.contentType, p.size, bytes.NewReader(p.data)); err != nil {
			staged = false
			status = http.StatusBadRequest
			if errors.Is(err, xerrors.ErrPhotoTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
		}
	}

	if staged {
		if _, err := session.Submit(r.Context()); err != nil {
			status = submitStatus(err)
		}
	}

	form := session.Form()
	h.renderGenerator(w, status, card.GeneratorPage{
		Name:    form.Name,
		Role:    form.Role,
		Bio:     form.Bio,
		Card:    session.View(),
		Options: card.Options{Layout: layout, Exportable: session.Current() != nil},
		Notices: toCardNotices(rec.Drain()),
	})
}

type postedForm struct {
	generator.Form
	layout string
	photo  *postedPhoto
}

// postedPhoto holds at most MaxPhotoBytes of data; size counts every byte
// the client sent.
type postedPhoto struct {
	filename    string
	contentType string
	data        []byte
	size        int64
}

// readGeneratorForm streams the generator form part by part. An oversized
// photo is drained rather than buffered, so the fields around it still
// arrive. On error the fields read so far are returned.
func readGeneratorForm(r *http.Request) (postedForm, error) {
	var f postedForm
	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return f, err
		}
		f.Name, f.Role, f.Bio = r.PostFormValue("name"), r.PostFormValue("role"), r.PostFormValue("bio")
		f.layout = r.PostFormValue("layout")
		return f, nil
	}
	if err != nil {
		return f, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		if err != nil {
			return f, err
		}

		switch name := part.FormName(); {
		case name == "photo" && part.FileName() != "":
			f.photo, err = readPhotoPart(part)
		case name == "photo":
			// no file chosen
		default:
			var value []byte
			value, err = io.ReadAll(io.LimitReader(part, formOverhead))
			switch name {
			case "name":
				f.Name = string(value)
			case "role":
				f.Role = string(value)
			case "bio":
				f.Bio = string(value)
			case "layout":
				f.layout = string(value)
			}
		}
		_ = part.Close()
		if err != nil {
			return f, err
		}
	}
}

func readPhotoPart(part *multipart.Part) (*postedPhoto, error) {
	p := &postedPhoto{filename: part.FileName(), contentType: part.Header.Get("Content-Type")}
	data, err := io.ReadAll(io.LimitReader(part, generator.MaxPhotoBytes+1))
	p.size = int64(len(data))
	if err != nil {
		return p, err
	}
	if p.size <= generator.MaxPhotoBytes {
		p.data = data
		return p, nil
	}
	n, err := io.Copy(io.Discard, part)
	p.size += n
	return p, err
}

func (h *ViewHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	layout, err := card.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res := h.loader.Load(r.Context(), nil)
	status := http.StatusOK
	if res.State == gallery.StateFailed {
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.RenderGallery(w, res.Page(layout)); err != nil {
		h.logger.Error("render gallery", zap.Error(err))
	}
}

func (h *ViewHandler) renderGenerator(w http.ResponseWriter, status int, page card.GeneratorPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.RenderGenerator(w, page); err != nil {
		h.logger.Error("render generator", zap.Error(err))
	}
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrNameRequired), errors.Is(err, xerrors.ErrRoleRequired):
		return http.StatusBadRequest
	case errors.Is(err, xerrors.ErrBusy):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func toCardNotices(in []generator.Notice) []card.Notice {
	out := make([]card.Notice, 0, len(in))
	for _, n := range in {
		out = append(out, card.Notice{Level: string(n.Level), Message: n.Message})
	}
	return out
}
