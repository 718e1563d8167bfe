package controllers

import (
	"net/http"

	"github.com/gasindo/gastrack-backend/api/middleware"
	"github.com/gasindo/gastrack-backend/api/responses"
	"github.com/gasindo/gastrack-backend/api/validators"
	"github.com/gasindo/gastrack-backend/internal/assignments"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

// RecommendCylinders suggests eligible cylinders for one order item, oldest
// fill first.
func RecommendCylinders(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		itemID, err := validators.ParseURLParamID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidates, err := svc.Recommend(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, candidates)
	}
}

type barcodesRequest struct {
	Barcodes []string `json:"barcodes" validate:"required,min=1,dive,required"`
}

// ValidateAssignment dry-runs scanned barcodes against one order item and
// returns a per-barcode verdict without changing anything.
func ValidateAssignment(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		itemID, err := validators.ParseURLParamID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req barcodesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Validate(r.Context(), itemID, req.Barcodes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// AssignCylinders binds scanned barcodes to one order item, all or nothing.
func AssignCylinders(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		itemID, err := validators.ParseURLParamID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req barcodesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Assign(r.Context(), assignments.AssignInput{
			OrderItemID: itemID,
			Barcodes:    req.Barcodes,
			ActorUserID: middleware.ActorUserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type assignOrderItemRequest struct {
	OrderItemID int64    `json:"order_item_id" validate:"required,gt=0"`
	Barcodes    []string `json:"barcodes" validate:"required,min=1,dive,required"`
}

type assignForOrderRequest struct {
	Items []assignOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// AssignCylindersForOrder binds barcodes across several items of one order
// in a single transaction.
func AssignCylindersForOrder(svc *assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		orderID, err := validators.ParseURLParamID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignForOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemBarcodes := make(map[int64][]string, len(req.Items))
		for _, item := range req.Items {
			itemBarcodes[item.OrderItemID] = item.Barcodes
		}

		created, err := svc.AssignForOrder(r.Context(), orderID, itemBarcodes, middleware.ActorUserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
