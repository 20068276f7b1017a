package handler

import (
	"net/http"

	"profile-service/internal/capture"
	"profile-service/internal/card"
	"profile-service/internal/service"
	"profile-service/pkg/response"
	"profile-service/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CardHandler struct {
	profiles *service.ProfileService
	renderer *card.Renderer
	exporter *capture.Exporter // nil disables exports
	logger   *zap.Logger
}

func NewCardHandler(p *service.ProfileService, r *card.Renderer, e *capture.Exporter, logger *zap.Logger) *CardHandler {
	return &CardHandler{profiles: p, renderer: r, exporter: e, logger: logger}
}

// Document serves the standalone card page.
func (h *CardHandler) Document(w http.ResponseWriter, r *http.Request) {
	layout, err := card.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	doc, err := h.renderer.Document(card.FromProfile(p), card.Options{Layout: layout})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

func (h *CardHandler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, capture.FormatPNG)
}

func (h *CardHandler) ExportGIF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, capture.FormatGIF)
}

// export runs under the request context so a disconnect aborts capture.
func (h *CardHandler) export(w http.ResponseWriter, r *http.Request, f capture.Format) {
	if h.exporter == nil {
		writeError(w, h.logger, xerrors.ErrCaptureUnavailable)
		return
	}
	layout, err := card.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	art, err := h.exporter.Export(r.Context(), card.FromProfile(p), layout, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Attachment(w, art.Filename, art.ContentType, art.Data)
}
