package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gasindo/gastrack-backend/api/middleware"
	"github.com/gasindo/gastrack-backend/api/responses"
	"github.com/gasindo/gastrack-backend/api/validators"
	"github.com/gasindo/gastrack-backend/internal/cylinders"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

type registerCylinderRequest struct {
	Barcode         string     `json:"barcode" validate:"required"`
	PropertyID      int64      `json:"property_id" validate:"required,gt=0"`
	GasTypeID       *int64     `json:"gas_type_id" validate:"omitempty,gt=0"`
	WarehouseID     int64      `json:"warehouse_id" validate:"required,gt=0"`
	Status          string     `json:"status" validate:"required"`
	ManufactureDate time.Time  `json:"manufacture_date" validate:"required"`
	LastFillDate    *time.Time `json:"last_fill_date"`
	Notes           *string    `json:"notes"`
}

func (req registerCylinderRequest) toInput(actorUserID int64) (cylinders.RegisterInput, error) {
	status, err := enums.ParseCylinderStatus(req.Status)
	if err != nil {
		return cylinders.RegisterInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return cylinders.RegisterInput{
		Barcode:         req.Barcode,
		PropertyID:      req.PropertyID,
		GasTypeID:       req.GasTypeID,
		WarehouseID:     req.WarehouseID,
		Status:          status,
		ManufactureDate: req.ManufactureDate,
		LastFillDate:    req.LastFillDate,
		Notes:           req.Notes,
		ActorUserID:     actorUserID,
	}, nil
}

type bulkRegisterCylindersRequest struct {
	Cylinders []registerCylinderRequest `json:"cylinders" validate:"required,min=1,dive"`
}

// RegisterCylinder admits one cylinder into the fleet.
func RegisterCylinder(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		var req registerCylinderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput(middleware.ActorUserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cylinder, err := svc.Register(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cylinder)
	}
}

// BulkRegisterCylinders admits a batch of cylinders, all or nothing.
func BulkRegisterCylinders(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		var req bulkRegisterCylindersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorUserID := middleware.ActorUserIDFromContext(r.Context())
		inputs := make([]cylinders.RegisterInput, 0, len(req.Cylinders))
		for _, item := range req.Cylinders {
			input, err := item.toInput(actorUserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			inputs = append(inputs, input)
		}

		created, err := svc.BulkRegister(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type changeCylinderStatusRequest struct {
	Barcode      string     `json:"barcode" validate:"required"`
	TargetStatus string     `json:"target_status" validate:"required"`
	WarehouseID  *int64     `json:"warehouse_id" validate:"omitempty,gt=0"`
	GasTypeID    *int64     `json:"gas_type_id" validate:"omitempty,gt=0"`
	LastFillDate *time.Time `json:"last_fill_date"`
	Notes        string     `json:"notes"`
}

func (req changeCylinderStatusRequest) toInput(actorUserID int64) (cylinders.ChangeStatusInput, error) {
	status, err := enums.ParseCylinderStatus(req.TargetStatus)
	if err != nil {
		return cylinders.ChangeStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status")
	}
	return cylinders.ChangeStatusInput{
		Barcode:      req.Barcode,
		TargetStatus: status,
		WarehouseID:  req.WarehouseID,
		GasTypeID:    req.GasTypeID,
		LastFillDate: req.LastFillDate,
		Notes:        req.Notes,
		ActorUserID:  actorUserID,
	}, nil
}

type bulkChangeCylinderStatusRequest struct {
	Changes []changeCylinderStatusRequest `json:"changes" validate:"required,min=1,dive"`
}

// ChangeCylinderStatus applies one manual status change.
func ChangeCylinderStatus(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		var req changeCylinderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput(middleware.ActorUserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cylinder, err := svc.ChangeStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cylinder)
	}
}

// BulkChangeCylinderStatus applies a batch of manual changes, all or nothing.
func BulkChangeCylinderStatus(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		var req bulkChangeCylinderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorUserID := middleware.ActorUserIDFromContext(r.Context())
		inputs := make([]cylinders.ChangeStatusInput, 0, len(req.Changes))
		for _, item := range req.Changes {
			input, err := item.toInput(actorUserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			inputs = append(inputs, input)
		}

		changed, err := svc.BulkChangeStatus(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, changed)
	}
}

// CylinderDetails returns one cylinder with its movement history. This is
// the barcode scan lookup.
func CylinderDetails(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))
		if barcode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required"))
			return
		}

		details, err := svc.GetDetails(r.Context(), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

// StockSummary returns cylinder counts grouped by warehouse, status and gas
// type, optionally filtered to one warehouse.
func StockSummary(svc *cylinders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cylinders service unavailable"))
			return
		}

		warehouseID, err := validators.ParseQueryID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.StockSummary(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
