// Package cylinders is the registry for the physical cylinder fleet: intake,
// manual status changes, detail lookups, and stock summaries. Workflow-owned
// statuses (reserved, in transit, at customer) are only reachable through the
// order, delivery, and return flows.
package cylinders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/pkg/db"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput describes one cylinder entering the fleet.
type RegisterInput struct {
	Barcode         string               `validate:"required"`
	PropertyID      int64                `validate:"required,gt=0"`
	GasTypeID       *int64               `validate:"omitempty,gt=0"`
	WarehouseID     int64                `validate:"required,gt=0"`
	Status          enums.CylinderStatus `validate:"required"`
	ManufactureDate time.Time            `validate:"required"`
	LastFillDate    *time.Time
	Notes           *string
	ActorUserID     int64 `validate:"required,gt=0"`
}

// ChangeStatusInput describes a manual status change by warehouse staff.
// LastFillDate lets a refill carry the actual fill date; when absent the
// change is stamped with the current time.
type ChangeStatusInput struct {
	Barcode      string               `validate:"required"`
	TargetStatus enums.CylinderStatus `validate:"required"`
	WarehouseID  *int64               `validate:"omitempty,gt=0"`
	GasTypeID    *int64               `validate:"omitempty,gt=0"`
	LastFillDate *time.Time
	Notes        string
	ActorUserID  int64 `validate:"required,gt=0"`
}

// BulkItemError pins a batch failure to the item that caused it.
type BulkItemError struct {
	Index   int    `json:"index"`
	Barcode string `json:"barcode"`
	Reason  string `json:"reason"`
}

// Details bundles a cylinder with its full movement trail.
type Details struct {
	Cylinder *models.Cylinder       `json:"cylinder"`
	History  []models.StockMovement `json:"history"`
}

// Service implements the cylinder registry operations.
type Service struct {
	repo   Repository
	ledger *ledger.Service
	tx     txRunner
}

func NewService(repo Repository, ledgerSvc *ledger.Service, tx txRunner) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, tx: tx}
}

// Register adds one cylinder. It is a single-item batch under the hood so the
// validation and ledger rules stay in one place.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.Cylinder, error) {
	created, err := s.BulkRegister(ctx, []RegisterInput{input})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkRegister validates every item first and only then inserts: either the
// whole batch lands, with one received_new ledger row per cylinder, or none
// of it does.
func (s *Service) BulkRegister(ctx context.Context, inputs []RegisterInput) ([]models.Cylinder, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one cylinder is required")
	}

	var itemErrs []BulkItemError
	seen := make(map[string]int, len(inputs))
	barcodes := make([]string, 0, len(inputs))
	for i, input := range inputs {
		if err := validate.Struct(input); err != nil {
			itemErrs = append(itemErrs, BulkItemError{Index: i, Barcode: input.Barcode, Reason: err.Error()})
			continue
		}
		if !input.Status.RegisterAllowed() {
			itemErrs = append(itemErrs, BulkItemError{
				Index: i, Barcode: input.Barcode,
				Reason: "status " + string(input.Status) + " cannot be set at registration",
			})
			continue
		}
		if input.Status.RequiresGasType() && input.GasTypeID == nil {
			itemErrs = append(itemErrs, BulkItemError{
				Index: i, Barcode: input.Barcode,
				Reason: "gas type is required for status " + string(input.Status),
			})
			continue
		}
		if first, dup := seen[input.Barcode]; dup {
			itemErrs = append(itemErrs, BulkItemError{
				Index: i, Barcode: input.Barcode,
				Reason: "duplicate barcode within batch (first at index " + strconv.Itoa(first) + ")",
			})
			continue
		}
		seen[input.Barcode] = i
		barcodes = append(barcodes, input.Barcode)
	}

	existing, err := s.repo.ExistingBarcodes(ctx, barcodes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "checking barcodes")
	}
	for _, barcode := range existing {
		itemErrs = append(itemErrs, BulkItemError{
			Index: seen[barcode], Barcode: barcode,
			Reason: "barcode already registered",
		})
	}

	if len(itemErrs) > 0 {
		var cause error
		for _, item := range itemErrs {
			cause = multierr.Append(cause, fmt.Errorf("barcode %s: %s", item.Barcode, item.Reason))
		}
		return nil, apperrors.Wrap(apperrors.CodeValidation, cause, "cylinder batch rejected").WithDetails(itemErrs)
	}

	if err := s.checkReferences(ctx, inputs); err != nil {
		return nil, err
	}

	created := make([]models.Cylinder, 0, len(inputs))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, input := range inputs {
			gasTypeID := input.GasTypeID
			if input.Status.ClearsGasType() {
				gasTypeID = nil
			}
			warehouseID := input.WarehouseID
			cylinder := models.Cylinder{
				Barcode:         input.Barcode,
				PropertyID:      input.PropertyID,
				GasTypeID:       gasTypeID,
				WarehouseID:     &warehouseID,
				Status:          input.Status,
				ManufactureDate: input.ManufactureDate,
				LastFillDate:    input.LastFillDate,
				Notes:           input.Notes,
			}
			if err := repo.Create(ctx, &cylinder); err != nil {
				if db.IsUniqueViolation(err, "") {
					return apperrors.Newf(apperrors.CodeConflict, "barcode %s already registered", input.Barcode)
				}
				return apperrors.Wrap(apperrors.CodeInternal, err, "creating cylinder")
			}

			notes := "registered into fleet"
			if cylinder.Notes != nil && *cylinder.Notes != "" {
				notes = *cylinder.Notes
			}
			if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
				CylinderID:    cylinder.ID,
				ActorUserID:   input.ActorUserID,
				Type:          enums.MovementTypeReceivedNew,
				ToWarehouseID: cylinder.WarehouseID,
				Notes:         notes,
			}); err != nil {
				return err
			}
			created = append(created, cylinder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// checkReferences verifies every property, warehouse, and gas type the batch
// names actually exists, each distinct id once.
func (s *Service) checkReferences(ctx context.Context, inputs []RegisterInput) error {
	properties := make(map[int64]bool)
	warehouses := make(map[int64]bool)
	gasTypes := make(map[int64]bool)
	for _, input := range inputs {
		if input.PropertyID > 0 && !properties[input.PropertyID] {
			properties[input.PropertyID] = true
			ok, err := s.repo.PropertyExists(ctx, input.PropertyID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "checking cylinder property")
			}
			if !ok {
				return apperrors.Newf(apperrors.CodeNotFound, "cylinder property %d not found", input.PropertyID)
			}
		}
		if input.WarehouseID > 0 && !warehouses[input.WarehouseID] {
			warehouses[input.WarehouseID] = true
			ok, err := s.repo.WarehouseExists(ctx, input.WarehouseID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "checking warehouse")
			}
			if !ok {
				return apperrors.Newf(apperrors.CodeNotFound, "warehouse %d not found", input.WarehouseID)
			}
		}
		if input.GasTypeID != nil && *input.GasTypeID > 0 && !gasTypes[*input.GasTypeID] {
			gasTypes[*input.GasTypeID] = true
			ok, err := s.repo.GasTypeExists(ctx, *input.GasTypeID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "checking gas type")
			}
			if !ok {
				return apperrors.Newf(apperrors.CodeNotFound, "gas type %d not found", *input.GasTypeID)
			}
		}
	}
	return nil
}

// ChangeStatus applies one manual status change. See BulkChangeStatus for the
// rules.
func (s *Service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Cylinder, error) {
	changed, err := s.BulkChangeStatus(ctx, []ChangeStatusInput{input})
	if err != nil {
		return nil, err
	}
	return &changed[0], nil
}

// BulkChangeStatus moves cylinders between the staff-managed statuses. A
// cylinder held by an active order cannot be touched here, and workflow-owned
// target statuses are rejected. The batch is all-or-nothing.
func (s *Service) BulkChangeStatus(ctx context.Context, inputs []ChangeStatusInput) ([]models.Cylinder, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one change is required")
	}
	for i, input := range inputs {
		if err := validate.Struct(input); err != nil {
			return nil, apperrors.New(apperrors.CodeValidation, "status batch rejected").
				WithDetails([]BulkItemError{{Index: i, Barcode: input.Barcode, Reason: err.Error()}})
		}
		if !input.TargetStatus.ManualChangeAllowed() {
			return nil, apperrors.Newf(apperrors.CodeStateConflict,
				"status %s is workflow-owned and cannot be set manually", input.TargetStatus)
		}
	}

	changed := make([]models.Cylinder, 0, len(inputs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, input := range inputs {
			cylinder, err := repo.GetByBarcode(ctx, input.Barcode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Newf(apperrors.CodeNotFound, "cylinder %s not found", input.Barcode)
				}
				return apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
			}

			held, err := repo.HasActiveAssignment(ctx, cylinder.ID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "checking active assignment")
			}
			if held {
				return apperrors.Newf(apperrors.CodeStateConflict,
					"cylinder %s is held by an active order", input.Barcode)
			}

			movement, err := s.applyManualChange(cylinder, input)
			if err != nil {
				return err
			}
			if err := repo.Update(ctx, cylinder); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
			}
			if _, err := s.ledger.Record(ctx, tx, *movement); err != nil {
				return err
			}
			changed = append(changed, *cylinder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// applyManualChange mutates the in-memory cylinder and returns the matching
// ledger entry. Refills stamp last_fill_date; pure relocations become
// warehouse transfers; everything else is a status update.
func (s *Service) applyManualChange(cylinder *models.Cylinder, input ChangeStatusInput) (*ledger.Entry, error) {
	previousStatus := cylinder.Status
	previousWarehouse := cylinder.WarehouseID

	targetWarehouse := previousWarehouse
	if input.WarehouseID != nil {
		targetWarehouse = input.WarehouseID
	}
	if input.TargetStatus.InWarehouse() && targetWarehouse == nil {
		return nil, apperrors.Newf(apperrors.CodeValidation,
			"cylinder %s needs a warehouse for status %s", input.Barcode, input.TargetStatus)
	}

	if input.TargetStatus.RequiresGasType() {
		if input.GasTypeID != nil {
			cylinder.GasTypeID = input.GasTypeID
		}
		if cylinder.GasTypeID == nil {
			return nil, apperrors.Newf(apperrors.CodeValidation,
				"cylinder %s needs a gas type for status %s", input.Barcode, input.TargetStatus)
		}
	}
	if input.TargetStatus.ClearsGasType() {
		cylinder.GasTypeID = nil
	}

	entry := ledger.Entry{
		CylinderID:  cylinder.ID,
		ActorUserID: input.ActorUserID,
		Type:        enums.MovementTypeStatusUpdate,
		Notes:       input.Notes,
	}
	if entry.Notes == "" {
		entry.Notes = "status " + string(previousStatus) + " -> " + string(input.TargetStatus)
	}

	switch {
	case previousStatus == enums.CylinderStatusEmptyInWarehouse && input.TargetStatus == enums.CylinderStatusFullInWarehouse:
		entry.Type = enums.MovementTypeRefill
		fill := time.Now()
		if input.LastFillDate != nil {
			fill = *input.LastFillDate
		}
		cylinder.LastFillDate = &fill
	case previousStatus == input.TargetStatus && !sameWarehouse(previousWarehouse, targetWarehouse):
		entry.Type = enums.MovementTypeWarehouseTransfer
	}
	entry.FromWarehouseID = previousWarehouse
	entry.ToWarehouseID = targetWarehouse

	cylinder.Status = input.TargetStatus
	cylinder.WarehouseID = targetWarehouse
	cylinder.CustomerID = nil
	if input.TargetStatus == enums.CylinderStatusLost {
		cylinder.WarehouseID = nil
		entry.ToWarehouseID = nil
	}
	return &entry, nil
}

// GetDetails resolves a cylinder by barcode and returns it with its movement
// history.
func (s *Service) GetDetails(ctx context.Context, barcode string) (*Details, error) {
	if barcode == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "barcode is required")
	}
	cylinder, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "cylinder %s not found", barcode)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
	}
	history, err := s.ledger.History(ctx, cylinder.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return &Details{Cylinder: cylinder, History: history}, nil
}

// GetDetailsByID resolves a cylinder by numeric id.
func (s *Service) GetDetailsByID(ctx context.Context, id int64) (*Details, error) {
	if id == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cylinder id is required")
	}
	cylinder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "cylinder %d not found", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
	}
	history, err := s.ledger.History(ctx, cylinder.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return &Details{Cylinder: cylinder, History: history}, nil
}

// StockSummary returns per-warehouse counts grouped by status and gas type.
// Pass zero to cover every warehouse.
func (s *Service) StockSummary(ctx context.Context, warehouseID int64) ([]StockSummaryRow, error) {
	rows, err := s.repo.StockSummary(ctx, warehouseID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "summarizing stock")
	}
	return rows, nil
}

func sameWarehouse(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

