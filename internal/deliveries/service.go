// Package deliveries runs the outbound leg: assigning a driver to a staged
// order, confirming warehouse pickup, and confirming handover at the
// customer. Each entry point advances the delivery, the order, the
// assignments, and the cylinders in one transaction.
package deliveries

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/numbering"
	"github.com/gasindo/gastrack-backend/internal/orders"
	"github.com/gasindo/gastrack-backend/pkg/config"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput assigns a driver to one staged order.
type CreateInput struct {
	OrderID          int64 `validate:"required,gt=0"`
	DriverUserID     int64 `validate:"required,gt=0"`
	AssignedByUserID int64 `validate:"required,gt=0"`
	VehicleNumber    *string
}

// Service implements the delivery workflow.
type Service struct {
	repo        Repository
	orders      *orders.Service
	assignments *assignments.Service
	numbering   *numbering.Service
	rental      config.RentalConfig
	tx          txRunner
}

func NewService(repo Repository, orderSvc *orders.Service, assignmentSvc *assignments.Service, numberingSvc *numbering.Service, rental config.RentalConfig, tx txRunner) *Service {
	return &Service{
		repo:        repo,
		orders:      orderSvc,
		assignments: assignmentSvc,
		numbering:   numberingSvc,
		rental:      rental,
		tx:          tx,
	}
}

// Create issues the shipment document and tracking code for a staged order
// and moves the order to driver_assigned. One active delivery per order.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Delivery, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var delivery *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.HasActiveDeliveryForOrder(ctx, input.OrderID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "checking deliveries")
		}
		if active {
			return apperrors.Newf(apperrors.CodeStateConflict, "order %d already has an active delivery", input.OrderID)
		}

		order, err := s.orders.ApplyTransition(ctx, tx, input.OrderID, enums.OrderStatusDriverAssigned, input.AssignedByUserID, "driver assigned")
		if err != nil {
			return err
		}

		documentNumber, err := s.numbering.DeliveryDocumentNumber(tx, time.Now())
		if err != nil {
			return err
		}

		delivery = &models.Delivery{
			OrderID:          order.ID,
			DriverUserID:     input.DriverUserID,
			AssignedByUserID: input.AssignedByUserID,
			VehicleNumber:    input.VehicleNumber,
			DocumentNumber:   documentNumber,
			TrackingCode:     s.numbering.TrackingCode(),
			Status:           enums.DeliveryStatusAwaitingPickup,
		}
		if err := repo.Create(ctx, delivery); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating delivery")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// PickupFromWarehouse is the driver's loading confirmation: cylinders go
// in_transit, the order ships, the delivery leaves the dock.
func (s *Service) PickupFromWarehouse(ctx context.Context, deliveryID int64, actorUserID int64) (*models.Delivery, error) {
	if deliveryID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id and actor user id are required")
	}

	var delivery *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.loadForUpdate(ctx, repo, deliveryID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(enums.DeliveryStatusInTransit) {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"delivery %s is %s, cannot pick up", current.DocumentNumber, current.Status)
		}

		if _, err := s.assignments.DispatchForOrder(ctx, tx, current.OrderID, actorUserID); err != nil {
			return err
		}
		if _, err := s.orders.ApplyTransition(ctx, tx, current.OrderID, enums.OrderStatusShipped, actorUserID, "picked up by driver"); err != nil {
			return err
		}

		now := time.Now()
		current.Status = enums.DeliveryStatusInTransit
		current.DispatchedAt = &now
		if err := repo.Update(ctx, current); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating delivery")
		}
		delivery = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// CompleteAtCustomer is the handover confirmation: cylinders land with the
// customer, rental windows are stamped from configuration, and the order
// completes.
func (s *Service) CompleteAtCustomer(ctx context.Context, deliveryID int64, actorUserID int64, driverNotes string) (*models.Delivery, error) {
	if deliveryID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id and actor user id are required")
	}

	var delivery *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.loadForUpdate(ctx, repo, deliveryID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(enums.DeliveryStatusCompleted) {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"delivery %s is %s, cannot complete", current.DocumentNumber, current.Status)
		}

		order, err := s.orders.ApplyTransition(ctx, tx, current.OrderID, enums.OrderStatusCompleted, actorUserID, "delivered to customer")
		if err != nil {
			return err
		}
		if _, err := s.assignments.DeliverForOrder(ctx, tx, order, actorUserID, s.rental.DefaultDuration()); err != nil {
			return err
		}

		now := time.Now()
		current.Status = enums.DeliveryStatusCompleted
		current.CompletedAt = &now
		if driverNotes != "" {
			current.DriverNotes = &driverNotes
		}
		if err := repo.Update(ctx, current); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating delivery")
		}
		delivery = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// MarkFailed records a failed run. The cylinders keep their current state;
// recovering them is a manual operation.
func (s *Service) MarkFailed(ctx context.Context, deliveryID int64, actorUserID int64, driverNotes string) (*models.Delivery, error) {
	if deliveryID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id and actor user id are required")
	}

	var delivery *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.loadForUpdate(ctx, repo, deliveryID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(enums.DeliveryStatusFailed) {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"delivery %s is %s, cannot fail", current.DocumentNumber, current.Status)
		}

		current.Status = enums.DeliveryStatusFailed
		if driverNotes != "" {
			current.DriverNotes = &driverNotes
		}
		if err := repo.Update(ctx, current); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating delivery")
		}
		delivery = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Get loads one delivery with its order.
func (s *Service) Get(ctx context.Context, deliveryID int64) (*models.Delivery, error) {
	if deliveryID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id is required")
	}
	return s.loadForUpdate(ctx, s.repo, deliveryID)
}

// Track resolves a delivery by its public tracking code.
func (s *Service) Track(ctx context.Context, code string) (*models.Delivery, error) {
	if code == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "tracking code is required")
	}
	delivery, err := s.repo.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "no delivery for code %s", code)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading delivery")
	}
	return delivery, nil
}

// ListActiveForDriver is the driver's work queue.
func (s *Service) ListActiveForDriver(ctx context.Context, driverUserID int64) ([]models.Delivery, error) {
	if driverUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "driver user id is required")
	}
	rows, err := s.repo.ListActiveForDriver(ctx, driverUserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing deliveries")
	}
	return rows, nil
}

// ListReadyOrders is the dispatcher's queue of staged orders without a
// driver yet.
func (s *Service) ListReadyOrders(ctx context.Context, warehouseID int64) ([]models.Order, error) {
	rows, err := s.repo.ListReadyOrders(ctx, warehouseID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing ready orders")
	}
	return rows, nil
}

func (s *Service) loadForUpdate(ctx context.Context, repo Repository, deliveryID int64) (*models.Delivery, error) {
	delivery, err := repo.GetByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "delivery %d not found", deliveryID)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading delivery")
	}
	return delivery, nil
}
