package handler

import (
	"net/http"
	"strconv"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// HistoryHandler serves the stock movement log and receipts
type HistoryHandler struct {
	service *service.HistoryService
	logger  *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(svc *service.HistoryService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: svc,
		logger:  log,
	}
}

// StockLogs lists stock movements, newest first. With ?batchId= only
// that batch's movements are returned.
func (h *HistoryHandler) StockLogs(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("batchId"); raw != "" {
		batchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || batchID <= 0 {
			httputil.Error(w, errors.BadRequest("invalid batchId"))
			return
		}

		logs, err := h.service.StockLogsByBatch(r.Context(), batchID)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, logs)
		return
	}

	logs, err := h.service.StockLogs(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, logs)
}

// Receipts lists receipts with their line items
func (h *HistoryHandler) Receipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.service.Receipts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, receipts)
}

// Receipt gets one receipt with its line items
func (h *HistoryHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	receipt, err := h.service.Receipt(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, receipt)
}
