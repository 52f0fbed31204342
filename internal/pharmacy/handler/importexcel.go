package handler

import (
	"net/http"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

const maxImportSize = 10 << 20 // 10 MiB

// ImportHandler handles Excel import endpoints
type ImportHandler struct {
	service *service.ImportService
	logger  *logger.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(svc *service.ImportService, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		service: svc,
		logger:  log,
	}
}

// Parse validates an uploaded spreadsheet and returns a preview with
// an import key for the confirm step.
func (h *ImportHandler) Parse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		httputil.Error(w, errors.BadRequest("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing 'file' upload"))
		return
	}
	defer file.Close()

	if header.Size > maxImportSize {
		httputil.Error(w, errors.BadRequest("file exceeds the 10 MiB limit"))
		return
	}

	preview, err := h.service.Parse(r.Context(), file)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, preview)
}

// Confirm replays a cached preview into the catalog
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req service.ConfirmImportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.UserID = actorID(r)

	result, err := h.service.Confirm(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
