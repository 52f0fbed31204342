package handler

import (
	"net/http"

	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/storage"
)

const maxImageSize = 5 << 20 // 5 MiB

// UploadHandler handles medicine image uploads
type UploadHandler struct {
	storage *storage.Storage
	logger  *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store *storage.Storage, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		storage: store,
		logger:  log,
	}
}

// UploadImage stores a medicine image and returns its public URL
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		httputil.Error(w, errors.Internal("image storage is not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		httputil.Error(w, errors.BadRequest("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing 'image' file"))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		httputil.Error(w, errors.BadRequest("image exceeds the 5 MiB limit"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		httputil.Error(w, errors.BadRequest("image must be JPEG, PNG or WebP"))
		return
	}

	url, err := h.storage.UploadImage(r.Context(), header.Filename, contentType, header.Size, file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("image upload failed")
		httputil.Error(w, errors.Internal("failed to store image"))
		return
	}

	httputil.Created(w, map[string]string{"image_url": url})
}
