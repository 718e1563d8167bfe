package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gasindo/gastrack-backend/api/responses"
	"github.com/gasindo/gastrack-backend/api/validators"
	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
	"github.com/gasindo/gastrack-backend/pkg/pagination"
)

// ListMovements pages through the stock movement ledger with optional
// filters.
func ListMovements(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		filter, err := buildMovementFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// CylinderHistory returns the movement trail for one cylinder id, oldest
// first, optionally bounded by from/to query parameters.
func CylinderHistory(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		cylinderID, err := validators.ParseURLParamID(r, "cylinderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := parseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), cylinderID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

func buildMovementFilter(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter
	var err error

	if filter.CylinderID, err = validators.ParseQueryID(r, "cylinder_id"); err != nil {
		return filter, err
	}
	if filter.OrderID, err = validators.ParseQueryID(r, "order_id"); err != nil {
		return filter, err
	}
	if filter.ActorUserID, err = validators.ParseQueryID(r, "actor_user_id"); err != nil {
		return filter, err
	}
	if filter.WarehouseID, err = validators.ParseQueryID(r, "warehouse_id"); err != nil {
		return filter, err
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		movementType, err := enums.ParseMovementType(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type")
		}
		filter.Type = movementType
	}

	if filter.From, err = parseQueryTime(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = parseQueryTime(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseQueryTime(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be RFC3339").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}
