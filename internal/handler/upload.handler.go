package handler

import (
	"errors"
	"net/http"

	"profile-service/internal/domain"
	"profile-service/internal/service"
	"profile-service/pkg/response"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

// multipart framing allowance on top of the file limit
const formOverhead = 1 << 20

type UploadHandler struct {
	service  *service.UploadService
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadHandler(s *service.UploadService, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{service: s, maxBytes: maxBytes, logger: logger}
}

// Upload stores the multipart field "file" and answers with its path.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, h.logger, xerrors.ErrPhotoTooLarge)
			return
		}
		response.Error(w, http.StatusBadRequest, "failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, xerrors.ErrMissingFile)
		return
	}
	defer file.Close()

	stored, err := h.service.Save(r.Context(), hdr.Filename, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, domain.UploadResult{URL: stored.URL})
}
