package handler

import (
	"net/http"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// DashboardHandler serves the inventory overview
type DashboardHandler struct {
	service *service.DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// Stats returns the inventory overview figures
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
