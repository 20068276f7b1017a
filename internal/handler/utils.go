package handler

import (
	"context"
	"errors"
	"net/http"

	"profile-service/pkg/response"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

// writeError maps service errors to status codes and the error envelope.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNameRequired):
		response.Error(w, http.StatusBadRequest, "name is required")
	case errors.Is(err, xerrors.ErrRoleRequired):
		response.Error(w, http.StatusBadRequest, "role is required")
	case errors.Is(err, xerrors.ErrPhotoTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, xerrors.ErrPhotoTooLarge.Error())
	case errors.Is(err, xerrors.ErrNotAnImage):
		response.Error(w, http.StatusBadRequest, "file must be an image")
	case errors.Is(err, xerrors.ErrMissingFile):
		response.Error(w, http.StatusBadRequest, "missing file")
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, xerrors.ErrInvalidRequest), errors.Is(err, xerrors.ErrUnknownFormat):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, xerrors.ErrCaptureUnavailable):
		logger.Warn("capture unavailable", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "card export is unavailable")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		logger.Debug("request canceled", zap.Error(err))
	default:
		logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, xerrors.ErrInternalServer.Error())
	}
}
