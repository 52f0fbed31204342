package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// DispenseHandler handles dispense endpoints
type DispenseHandler struct {
	service *service.DispenseService
	logger  *logger.Logger
}

// NewDispenseHandler creates a new dispense handler
func NewDispenseHandler(svc *service.DispenseService, log *logger.Logger) *DispenseHandler {
	return &DispenseHandler{
		service: svc,
		logger:  log,
	}
}

// singleDispenseRequest dispenses one medicine; kept for clients that
// predate multi-item receipts.
type singleDispenseRequest struct {
	MedicineID  int64  `json:"medicine_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	PatientName string `json:"patient_name"`
}

// Dispense dispenses a single medicine as a one-line receipt
func (h *DispenseHandler) Dispense(w http.ResponseWriter, r *http.Request) {
	var req singleDispenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	h.dispense(w, r, &service.DispenseRequest{
		PatientName: req.PatientName,
		Items: []service.DispenseItem{
			{MedicineID: req.MedicineID, Quantity: req.Quantity},
		},
	})
}

// Complete dispenses a multi-item order atomically
func (h *DispenseHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req service.DispenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	h.dispense(w, r, &req)
}

func (h *DispenseHandler) dispense(w http.ResponseWriter, r *http.Request, req *service.DispenseRequest) {
	req.UserID = actorID(r)

	receipt, err := h.service.Dispense(r.Context(), req)
	if err != nil {
		var shortfall *service.InsufficientStockError
		if stderrors.As(err, &shortfall) {
			httputil.Error(w, errors.InsufficientStock(shortfall.MedicineID))
			return
		}
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, receipt)
}
