// Package orders owns the order lifecycle: creation with sequential
// numbering, the status state machine with its append-only audit trail, and
// cancellation with cylinder release. Role permissions live with the caller;
// this package only enforces legality.
package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/numbering"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/metrics"
	"github.com/gasindo/gastrack-backend/pkg/pagination"
	"github.com/gasindo/gastrack-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateItemInput is one requested line of a new order.
type CreateItemInput struct {
	ProductID int64 `validate:"required,gt=0"`
	Quantity  int   `validate:"required,gt=0"`
}

// CreateInput describes a new order from sales.
type CreateInput struct {
	CustomerID      int64           `validate:"required,gt=0"`
	SalesUserID     int64           `validate:"required,gt=0"`
	WarehouseID     int64           `validate:"required,gt=0"`
	Type            enums.OrderType `validate:"required"`
	ShippingAddress string
	CustomerNotes   *string
	Items           []CreateItemInput `validate:"required,min=1,dive"`
}

// TransitionInput moves an order along the generic state machine.
type TransitionInput struct {
	OrderID     int64             `validate:"required,gt=0"`
	Target      enums.OrderStatus `validate:"required"`
	ActorUserID int64             `validate:"required,gt=0"`
	Notes       string
}

// workflowOwned lists targets only reachable through a dedicated entry
// point, never through the generic transition operation.
var workflowOwned = map[enums.OrderStatus]string{
	enums.OrderStatusReadyToShip:       "mark prepared",
	enums.OrderStatusDriverAssigned:    "create delivery",
	enums.OrderStatusShipped:           "delivery pickup",
	enums.OrderStatusCompleted:         "delivery completion",
	enums.OrderStatusCancelledBySales:  "cancel",
	enums.OrderStatusCancelledBySystem: "cancel",
}

// Service implements the order state machine.
type Service struct {
	repo        Repository
	numbering   *numbering.Service
	assignments *assignments.Service
	metrics     *metrics.CoreMetrics
	tx          txRunner
}

func NewService(repo Repository, numberingSvc *numbering.Service, assignmentSvc *assignments.Service, coreMetrics *metrics.CoreMetrics, tx txRunner) *Service {
	return &Service{
		repo:        repo,
		numbering:   numberingSvc,
		assignments: assignmentSvc,
		metrics:     coreMetrics,
		tx:          tx,
	}
}

// Create persists a new order with its items, a sequential order number, and
// the first history row, all in one transaction. Prices are snapshotted from
// the product at creation time.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid order type %q", input.Type)
	}

	customer, err := s.repo.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "customer %d not found", input.CustomerID)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading customer")
	}

	productIDs := make([]int64, 0, len(input.Items))
	for _, item := range input.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.repo.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading products")
	}
	productByID := make(map[int64]models.Product, len(products))
	for _, product := range products {
		productByID[product.ID] = product
	}
	for _, item := range input.Items {
		product, ok := productByID[item.ProductID]
		if !ok {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "product %d not found", item.ProductID)
		}
		if !product.IsActive {
			return nil, apperrors.Newf(apperrors.CodeValidation, "product %s is inactive", product.SKU)
		}
	}

	address := input.ShippingAddress
	if address == "" {
		address = customer.DefaultShippingAddress
	}
	if address == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "shipping address is required")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now()
		orderNumber, err := s.numbering.OrderNumber(tx, now)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := productByID[item.ProductID]
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Unit:      product.Unit,
				UnitPrice: product.UnitPrice,
				IsRental:  input.Type == enums.OrderTypeRental,
			})
		}

		order = &models.Order{
			OrderNumber:     orderNumber,
			CustomerID:      input.CustomerID,
			SalesUserID:     input.SalesUserID,
			WarehouseID:     input.WarehouseID,
			OrderDate:       now,
			Type:            input.Type,
			Status:          enums.OrderStatusNew,
			ShippingAddress: address,
			CustomerNotes:   input.CustomerNotes,
			Items:           items,
		}
		if err := repo.Create(ctx, order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating order")
		}

		return repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:     order.ID,
			Status:      enums.OrderStatusNew,
			ActorUserID: input.SalesUserID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusNew))
	return order, nil
}

// TransitionStatus applies one generic transition. Workflow-owned targets
// are refused and point the caller at the dedicated entry point.
func (s *Service) TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Target.IsValid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid order status %q", input.Target)
	}
	if entryPoint, owned := workflowOwned[input.Target]; owned {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"status %s is set through %s", input.Target, entryPoint)
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.ApplyTransition(ctx, tx, input.OrderID, input.Target, input.ActorUserID, input.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ApplyTransition performs one legality-checked transition inside the
// caller's transaction, appending the audit row. Sibling workflows use this
// for the statuses they own.
func (s *Service) ApplyTransition(ctx context.Context, tx *gorm.DB, orderID int64, target enums.OrderStatus, actorUserID int64, notes string) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "order %d not found", orderID)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"order %s cannot go from %s to %s", order.OrderNumber, order.Status, target)
	}

	order.Status = target
	if err := repo.Update(ctx, order); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating order")
	}

	history := &models.OrderStatusHistory{
		OrderID:     order.ID,
		Status:      target,
		ActorUserID: actorUserID,
	}
	if notes != "" {
		history.Notes = &notes
	}
	if err := repo.AppendHistory(ctx, history); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "appending history")
	}

	s.metrics.IncOrderTransition(string(target))
	return order, nil
}

// MarkPrepared closes warehouse preparation: every item must be fully
// assigned, the staged cylinders move to ready_to_ship together with their
// assignments, and the order itself becomes ready_to_ship.
func (s *Service) MarkPrepared(ctx context.Context, orderID int64, actorUserID int64, notes string) (*models.Order, error) {
	if orderID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id and actor user id are required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.CodeNotFound, "order %d not found", orderID)
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
		}
		if current.Status != enums.OrderStatusWarehousePreparing {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"order %s is %s, preparation requires warehouse_preparing", current.OrderNumber, current.Status)
		}

		if _, err := s.assignments.MarkReadyForOrder(ctx, tx, orderID, actorUserID); err != nil {
			return err
		}

		order, err = s.ApplyTransition(ctx, tx, orderID, enums.OrderStatusReadyToShip, actorUserID, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReassignWarehouse moves an order to another warehouse while nothing has
// been assigned yet.
func (s *Service) ReassignWarehouse(ctx context.Context, orderID int64, warehouseID int64, actorUserID int64) (*models.Order, error) {
	if orderID == 0 || warehouseID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id, warehouse id, and actor user id are required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.CodeNotFound, "order %d not found", orderID)
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
		}
		switch current.Status {
		case enums.OrderStatusNew, enums.OrderStatusSalesConfirmed, enums.OrderStatusWarehousePreparing:
		default:
			return apperrors.Newf(apperrors.CodeStateConflict,
				"order %s is %s, too late to reassign", current.OrderNumber, current.Status)
		}

		active, err := repo.CountActiveAssignments(ctx, orderID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "counting assignments")
		}
		if active > 0 {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"order %s already has cylinders assigned", current.OrderNumber)
		}

		current.WarehouseID = warehouseID
		if err := repo.Update(ctx, current); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating order")
		}

		note := "warehouse reassigned"
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:     current.ID,
			Status:      current.Status,
			ActorUserID: actorUserID,
			Notes:       &note,
		}); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "appending history")
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel aborts an order that has not shipped. Any cylinders it holds are
// released back to stock in the same transaction.
func (s *Service) Cancel(ctx context.Context, orderID int64, actorUserID int64, reason string, bySystem bool) (*models.Order, error) {
	if orderID == 0 || actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id and actor user id are required")
	}

	target := enums.OrderStatusCancelledBySales
	if bySystem {
		target = enums.OrderStatusCancelledBySystem
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.CodeNotFound, "order %d not found", orderID)
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
		}
		if !current.Status.Cancellable() {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"order %s is %s and can no longer be cancelled", current.OrderNumber, current.Status)
		}
		if !current.Status.CanTransitionTo(target) {
			// new orders only know cancelled_by_sales
			target = enums.OrderStatusCancelledBySales
		}

		if _, err := s.assignments.ReleaseForOrder(ctx, tx, orderID, actorUserID, "order "+current.OrderNumber+" cancelled"); err != nil {
			return err
		}

		order, err = s.ApplyTransition(ctx, tx, orderID, target, actorUserID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get loads one order with items, assignments, and customer.
func (s *Service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	if orderID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "order %d not found", orderID)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// GetByNumber loads one order by its human-readable number.
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "order %s not found", orderNumber)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// List returns a filtered, paginated order listing, newest first.
func (s *Service) List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Result[models.Order], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return pagination.Result[models.Order]{}, apperrors.Newf(apperrors.CodeValidation, "invalid order status %q", filter.Status)
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return pagination.Result[models.Order]{}, apperrors.Newf(apperrors.CodeValidation, "invalid order type %q", filter.Type)
	}
	result, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return pagination.Result[models.Order]{}, apperrors.Wrap(apperrors.CodeInternal, err, "listing orders")
	}
	return result, nil
}

// ListToPrepare returns the warehouse work queue: confirmed and in-progress
// orders, oldest first.
func (s *Service) ListToPrepare(ctx context.Context, warehouseID int64) ([]models.Order, error) {
	rows, err := s.repo.ListByStatuses(ctx, warehouseID, []enums.OrderStatus{
		enums.OrderStatusSalesConfirmed,
		enums.OrderStatusWarehousePreparing,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing preparation queue")
	}
	return rows, nil
}

// History returns the order's status audit trail, oldest first.
func (s *Service) History(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error) {
	if orderID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing order history")
	}
	return rows, nil
}
