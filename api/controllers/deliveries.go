package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gasindo/gastrack-backend/api/middleware"
	"github.com/gasindo/gastrack-backend/api/responses"
	"github.com/gasindo/gastrack-backend/api/validators"
	"github.com/gasindo/gastrack-backend/internal/deliveries"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

type createDeliveryRequest struct {
	OrderID       int64   `json:"order_id" validate:"required,gt=0"`
	DriverUserID  int64   `json:"driver_user_id" validate:"required,gt=0"`
	VehicleNumber *string `json:"vehicle_number"`
}

// CreateDelivery assigns a driver to a staged order and issues the shipment
// document and tracking code.
func CreateDelivery(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		var req createDeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Create(r.Context(), deliveries.CreateInput{
			OrderID:          req.OrderID,
			DriverUserID:     req.DriverUserID,
			AssignedByUserID: middleware.ActorUserIDFromContext(r.Context()),
			VehicleNumber:    req.VehicleNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

// DeliveryPickup confirms the driver loaded the cylinders at the warehouse.
func DeliveryPickup(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		deliveryID, err := validators.ParseURLParamID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.PickupFromWarehouse(r.Context(), deliveryID, middleware.ActorUserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

type deliveryNotesRequest struct {
	Notes string `json:"notes"`
}

// DeliveryComplete confirms handover at the customer.
func DeliveryComplete(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		deliveryID, err := validators.ParseURLParamID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deliveryNotesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.CompleteAtCustomer(r.Context(), deliveryID, middleware.ActorUserIDFromContext(r.Context()), req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeliveryFail records a failed run. Cylinder recovery stays manual.
func DeliveryFail(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		deliveryID, err := validators.ParseURLParamID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deliveryNotesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.MarkFailed(r.Context(), deliveryID, middleware.ActorUserIDFromContext(r.Context()), req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeliveryDetail loads one delivery with its order.
func DeliveryDetail(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		deliveryID, err := validators.ParseURLParamID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Get(r.Context(), deliveryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// TrackDelivery resolves a delivery by its public tracking code. No actor
// required, this one serves customers.
func TrackDelivery(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "trackingCode"))
		delivery, err := svc.Track(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DriverDeliveryQueue lists the acting driver's open deliveries.
func DriverDeliveryQueue(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		queue, err := svc.ListActiveForDriver(r.Context(), middleware.ActorUserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, queue)
	}
}

// OrdersReadyForDelivery is the dispatcher's queue of staged orders without
// a driver.
func OrdersReadyForDelivery(svc *deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		warehouseID, err := validators.ParseQueryID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queue, err := svc.ListReadyOrders(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, queue)
	}
}
