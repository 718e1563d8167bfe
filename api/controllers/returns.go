package controllers

import (
	"net/http"

	"github.com/gasindo/gastrack-backend/api/middleware"
	"github.com/gasindo/gastrack-backend/api/responses"
	"github.com/gasindo/gastrack-backend/api/validators"
	"github.com/gasindo/gastrack-backend/internal/returns"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

type pickupReturnsRequest struct {
	CustomerID             int64    `json:"customer_id" validate:"required,gt=0"`
	DestinationWarehouseID int64    `json:"destination_warehouse_id" validate:"required,gt=0"`
	Barcodes               []string `json:"barcodes" validate:"required,min=1,dive,required"`
	DeliveryID             *int64   `json:"delivery_id" validate:"omitempty,gt=0"`
}

// PickupReturns records a driver collecting empty cylinders at a customer,
// all or nothing. The acting user is the driver.
func PickupReturns(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		var req pickupReturnsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.PickupEmptyCylinders(r.Context(), returns.PickupInput{
			CustomerID:             req.CustomerID,
			DriverUserID:           middleware.ActorUserIDFromContext(r.Context()),
			DestinationWarehouseID: req.DestinationWarehouseID,
			Barcodes:               req.Barcodes,
			DeliveryID:             req.DeliveryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, records)
	}
}

type receiveReturnsRequest struct {
	WarehouseID int64    `json:"warehouse_id" validate:"required,gt=0"`
	Barcodes    []string `json:"barcodes" validate:"required,min=1,dive,required"`
}

// ReceiveReturns closes returns at warehouse intake by scanned barcode, all
// or nothing. Every barcode must be destined for the given warehouse.
func ReceiveReturns(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		var req receiveReturnsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ReceiveReturned(r.Context(), returns.ReceiveInput{
			WarehouseID: req.WarehouseID,
			Barcodes:    req.Barcodes,
			ActorUserID: middleware.ActorUserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// IncomingReturns lists cylinders on a truck headed for a warehouse.
func IncomingReturns(svc *returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := validators.ParseQueryID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListIncoming(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
