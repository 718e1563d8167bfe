// Package returns runs the inbound leg: a driver picks up empties at a
// customer, the cylinders travel as open return records, and warehouse
// intake closes them. Receiving a returned cylinder also closes the rental
// assignment that put it at the customer.
package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PickupInput records a driver collecting empties at one customer.
type PickupInput struct {
	CustomerID             int64    `validate:"required,gt=0"`
	DriverUserID           int64    `validate:"required,gt=0"`
	DestinationWarehouseID int64    `validate:"required,gt=0"`
	Barcodes               []string `validate:"required,min=1,dive,required"`
	DeliveryID             *int64   `validate:"omitempty,gt=0"`
}

// PickupItemError pins a rejected pickup to the barcode that caused it.
type PickupItemError struct {
	Barcode string `json:"barcode"`
	Reason  string `json:"reason"`
}

// ReceiveInput records warehouse intake of a batch of returned empties.
type ReceiveInput struct {
	WarehouseID int64    `validate:"required,gt=0"`
	Barcodes    []string `validate:"required,min=1,dive,required"`
	ActorUserID int64    `validate:"required,gt=0"`
}

// ReceiveItemError pins a rejected intake to the barcode that caused it.
type ReceiveItemError struct {
	Barcode string `json:"barcode"`
	Reason  string `json:"reason"`
}

// Service implements the return workflow.
type Service struct {
	repo        Repository
	ledger      *ledger.Service
	assignments *assignments.Service
	tx          txRunner
}

func NewService(repo Repository, ledgerSvc *ledger.Service, assignmentSvc *assignments.Service, tx txRunner) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, assignments: assignmentSvc, tx: tx}
}

// PickupEmptyCylinders validates every barcode and then opens one return
// record per cylinder, moves the cylinders to returning_to_warehouse, and
// appends picked_up_from_customer ledger rows. All or nothing.
func (s *Service) PickupEmptyCylinders(ctx context.Context, input PickupInput) ([]models.ReturnedCylinder, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var created []models.ReturnedCylinder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var itemErrs []PickupItemError
		seen := make(map[string]bool, len(input.Barcodes))
		cylinders := make([]*models.Cylinder, 0, len(input.Barcodes))
		for _, barcode := range input.Barcodes {
			if seen[barcode] {
				itemErrs = append(itemErrs, PickupItemError{Barcode: barcode, Reason: "duplicate barcode in request"})
				continue
			}
			seen[barcode] = true

			cylinder, err := repo.GetCylinderByBarcode(ctx, barcode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					itemErrs = append(itemErrs, PickupItemError{Barcode: barcode, Reason: "cylinder not found"})
					continue
				}
				return apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
			}
			if cylinder.Status != enums.CylinderStatusAtCustomerRented {
				itemErrs = append(itemErrs, PickupItemError{
					Barcode: barcode,
					Reason:  "cylinder is " + string(cylinder.Status) + ", needs at_customer_rented",
				})
				continue
			}
			if cylinder.CustomerID == nil || *cylinder.CustomerID != input.CustomerID {
				itemErrs = append(itemErrs, PickupItemError{Barcode: barcode, Reason: "cylinder is not at this customer"})
				continue
			}
			open, err := repo.HasOpenReturn(ctx, cylinder.ID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "checking open returns")
			}
			if open {
				itemErrs = append(itemErrs, PickupItemError{Barcode: barcode, Reason: "cylinder already on a return trip"})
				continue
			}
			cylinders = append(cylinders, cylinder)
		}
		if len(itemErrs) > 0 {
			var cause error
			for _, item := range itemErrs {
				cause = multierr.Append(cause, fmt.Errorf("barcode %s: %s", item.Barcode, item.Reason))
			}
			return apperrors.Wrap(apperrors.CodeValidation, cause, "pickup rejected").WithDetails(itemErrs)
		}

		now := time.Now()
		for _, cylinder := range cylinders {
			record := models.ReturnedCylinder{
				CylinderID:             cylinder.ID,
				PickedUpFromCustomerID: input.CustomerID,
				PickedUpByDriverID:     input.DriverUserID,
				DeliveryID:             input.DeliveryID,
				DestinationWarehouseID: input.DestinationWarehouseID,
				Status:                 enums.ReturnStatusWithDriver,
				PickedUpAt:             now,
			}
			if err := repo.CreateReturn(ctx, &record); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "creating return record")
			}

			fromCustomer := input.CustomerID
			cylinder.Status = enums.CylinderStatusReturningToWarehouse
			cylinder.CustomerID = nil
			cylinder.GasTypeID = nil
			if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
			}
			if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
				CylinderID:     cylinder.ID,
				ActorUserID:    input.DriverUserID,
				Type:           enums.MovementTypePickedUpFromCustomer,
				FromCustomerID: &fromCustomer,
				Notes:          "empty picked up from customer",
			}); err != nil {
				return err
			}
			created = append(created, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ReceiveReturned closes returns at warehouse intake by barcode, all or
// nothing. Each barcode must carry an open return destined for the receiving
// warehouse; a truck unloading at the wrong dock is rejected. Per cylinder:
// the record flips to received, the cylinder lands as empty_in_warehouse, the
// rental assignment (if any survives) becomes returned_to_warehouse, and a
// received_at_warehouse ledger row is appended.
func (s *Service) ReceiveReturned(ctx context.Context, input ReceiveInput) ([]models.ReturnedCylinder, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var received []models.ReturnedCylinder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		type intake struct {
			cylinder *models.Cylinder
			record   *models.ReturnedCylinder
		}

		var itemErrs []ReceiveItemError
		seen := make(map[string]bool, len(input.Barcodes))
		intakes := make([]intake, 0, len(input.Barcodes))
		for _, barcode := range input.Barcodes {
			if seen[barcode] {
				itemErrs = append(itemErrs, ReceiveItemError{Barcode: barcode, Reason: "duplicate barcode in request"})
				continue
			}
			seen[barcode] = true

			cylinder, err := repo.GetCylinderByBarcode(ctx, barcode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					itemErrs = append(itemErrs, ReceiveItemError{Barcode: barcode, Reason: "cylinder not found"})
					continue
				}
				return apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
			}
			if cylinder.Status != enums.CylinderStatusReturningToWarehouse {
				itemErrs = append(itemErrs, ReceiveItemError{
					Barcode: barcode,
					Reason:  "cylinder is " + string(cylinder.Status) + ", needs returning_to_warehouse",
				})
				continue
			}
			record, err := repo.GetOpenReturnByCylinder(ctx, cylinder.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					itemErrs = append(itemErrs, ReceiveItemError{Barcode: barcode, Reason: "no open return for this cylinder"})
					continue
				}
				return apperrors.Wrap(apperrors.CodeInternal, err, "loading return record")
			}
			if record.DestinationWarehouseID != input.WarehouseID {
				itemErrs = append(itemErrs, ReceiveItemError{
					Barcode: barcode,
					Reason:  fmt.Sprintf("return is destined for warehouse %d", record.DestinationWarehouseID),
				})
				continue
			}
			intakes = append(intakes, intake{cylinder: cylinder, record: record})
		}
		if len(itemErrs) > 0 {
			var cause error
			for _, item := range itemErrs {
				cause = multierr.Append(cause, fmt.Errorf("barcode %s: %s", item.Barcode, item.Reason))
			}
			return apperrors.Wrap(apperrors.CodeValidation, cause, "intake rejected").WithDetails(itemErrs)
		}

		now := time.Now()
		for _, in := range intakes {
			warehouseID := input.WarehouseID
			in.cylinder.Status = enums.CylinderStatusEmptyInWarehouse
			in.cylinder.WarehouseID = &warehouseID
			in.cylinder.GasTypeID = nil
			if err := repo.UpdateCylinder(ctx, in.cylinder); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
			}

			if _, err := s.assignments.CloseByCylinder(ctx, tx, in.cylinder.ID, enums.AssignmentStatusReturnedToWarehouse); err != nil {
				return err
			}

			in.record.Status = enums.ReturnStatusReceived
			in.record.ReceivedAt = &now
			if err := repo.UpdateReturn(ctx, in.record); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "closing return record")
			}

			if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
				CylinderID:    in.cylinder.ID,
				ActorUserID:   input.ActorUserID,
				Type:          enums.MovementTypeReceivedAtWarehouse,
				ToWarehouseID: &warehouseID,
				Notes:         "returned empty received at warehouse",
			}); err != nil {
				return err
			}
			received = append(received, *in.record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return received, nil
}

// ListIncoming is the intake queue for one warehouse, or all of them when
// zero is passed.
func (s *Service) ListIncoming(ctx context.Context, warehouseID int64) ([]models.ReturnedCylinder, error) {
	rows, err := s.repo.ListIncoming(ctx, warehouseID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing incoming returns")
	}
	return rows, nil
}
