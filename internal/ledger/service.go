// Package ledger owns the append-only stock movement log. Every physical or
// state-changing cylinder event lands here as exactly one row, written in the
// same transaction as the mutation it records.
package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/metrics"
	"github.com/gasindo/gastrack-backend/pkg/pagination"
)

// Entry is the input for one ledger row.
type Entry struct {
	CylinderID      int64
	ActorUserID     int64
	Type            enums.MovementType
	FromWarehouseID *int64
	ToWarehouseID   *int64
	FromCustomerID  *int64
	ToCustomerID    *int64
	OrderID         *int64
	Notes           string
}

// Service appends and reads ledger rows.
type Service struct {
	repo    Repository
	metrics *metrics.CoreMetrics
}

func NewService(repo Repository, coreMetrics *metrics.CoreMetrics) *Service {
	return &Service{repo: repo, metrics: coreMetrics}
}

// Record appends one movement row inside the caller's transaction. Sibling
// services call this after mutating a cylinder so the ledger and the mutation
// commit or roll back together.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry Entry) (*models.StockMovement, error) {
	if entry.CylinderID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cylinder id is required")
	}
	if entry.ActorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "actor user id is required")
	}
	if !entry.Type.IsValid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid movement type %q", entry.Type)
	}

	movement := &models.StockMovement{
		CylinderID:      entry.CylinderID,
		ActorUserID:     entry.ActorUserID,
		Type:            entry.Type,
		FromWarehouseID: entry.FromWarehouseID,
		ToWarehouseID:   entry.ToWarehouseID,
		FromCustomerID:  entry.FromCustomerID,
		ToCustomerID:    entry.ToCustomerID,
		OrderID:         entry.OrderID,
		Notes:           entry.Notes,
	}

	if err := s.repo.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "appending stock movement")
	}

	s.metrics.IncMovement(string(entry.Type))
	return movement, nil
}

// History returns the movement trail for one cylinder, oldest first,
// optionally bounded to a date range. Zero times mean no bound.
func (s *Service) History(ctx context.Context, cylinderID int64, from, to time.Time) ([]models.StockMovement, error) {
	if cylinderID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cylinder id is required")
	}
	rows, err := s.repo.ListByCylinder(ctx, cylinderID, from, to)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing cylinder history")
	}
	return rows, nil
}

// List returns a filtered, paginated slice of the ledger, newest first.
func (s *Service) List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.StockMovement], error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return pagination.Result[models.StockMovement]{}, apperrors.Newf(apperrors.CodeValidation, "invalid movement type %q", filter.Type)
	}
	result, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return pagination.Result[models.StockMovement]{}, apperrors.Wrap(apperrors.CodeInternal, err, "listing stock movements")
	}
	return result, nil
}
