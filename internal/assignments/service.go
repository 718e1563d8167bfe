// Package assignments binds physical cylinders to order items and walks the
// binding through its lifecycle. The one-active-assignment-per-cylinder rule
// is checked up front and backed by a partial unique index, so a concurrent
// race surfaces as a retryable conflict instead of a double booking.
package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/pkg/db"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/metrics"
	"github.com/gasindo/gastrack-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AssignInput binds scanned barcodes to one order item.
type AssignInput struct {
	OrderItemID int64    `validate:"required,gt=0"`
	Barcodes    []string `validate:"required,min=1,dive,required"`
	ActorUserID int64    `validate:"required,gt=0"`
}

// CheckResult is the dry-run verdict for one barcode.
type CheckResult struct {
	Barcode  string `json:"barcode"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// Service implements the assignment engine.
type Service struct {
	repo    Repository
	ledger  *ledger.Service
	metrics *metrics.CoreMetrics
	tx      txRunner
}

func NewService(repo Repository, ledgerSvc *ledger.Service, coreMetrics *metrics.CoreMetrics, tx txRunner) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, metrics: coreMetrics, tx: tx}
}

// Recommend suggests up to twice the item's remaining quantity in eligible
// cylinders, oldest build first with oldest fill as tie-break, so staff
// rotate stock and still have spares to scan. Cylinders past their class's
// maximum age are never suggested.
func (s *Service) Recommend(ctx context.Context, orderItemID int64) ([]models.Cylinder, error) {
	item, order, err := s.loadItemWithOrder(ctx, s.repo, orderItemID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusWarehousePreparing {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"order %s is %s, assignment requires warehouse_preparing", order.OrderNumber, order.Status)
	}

	active, err := s.repo.CountActiveForItem(ctx, item.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "counting assignments")
	}
	remaining := int64(item.Quantity) - active
	if remaining <= 0 {
		return nil, nil
	}

	maxAge := 0
	if item.Product.Property != nil {
		maxAge = item.Product.Property.MaxAgeYears
	}
	rows, err := s.repo.ListCandidates(ctx, CandidateQuery{
		WarehouseID: order.WarehouseID,
		GasTypeID:   item.Product.GasTypeID,
		PropertyID:  item.Product.PropertyID,
		MaxAgeYears: maxAge,
		Limit:       int(remaining) * 2,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing candidates")
	}
	return rows, nil
}

// Validate dry-runs the checks Assign would apply, one verdict per barcode.
// Nothing is written.
func (s *Service) Validate(ctx context.Context, orderItemID int64, barcodes []string) ([]CheckResult, error) {
	item, order, err := s.loadItemWithOrder(ctx, s.repo, orderItemID)
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, 0, len(barcodes))
	seen := make(map[string]bool, len(barcodes))
	for _, barcode := range barcodes {
		if seen[barcode] {
			results = append(results, CheckResult{Barcode: barcode, Reason: "duplicate barcode in request"})
			continue
		}
		seen[barcode] = true
		reason := s.checkBarcode(ctx, s.repo, item, order, barcode)
		results = append(results, CheckResult{Barcode: barcode, Eligible: reason == "", Reason: reason})
	}
	return results, nil
}

// Assign validates every barcode and only then creates the assignment rows,
// reserves the cylinders, and appends one allocated_to_order ledger row per
// cylinder. Either the whole request lands or none of it does. A losing race
// on the exclusivity index comes back as a retryable conflict.
func (s *Service) Assign(ctx context.Context, input AssignInput) ([]models.OrderItemAssignment, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var created []models.OrderItemAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := s.assignItem(ctx, tx, repo, input.OrderItemID, input.Barcodes, input.ActorUserID)
		if err != nil {
			return err
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAssignments(len(created))
	return created, nil
}

// AssignForOrder applies per-item barcode sets for one order in a single
// transaction. Every item of the order must be covered in full, and a
// barcode may appear on at most one item; anything less rolls back whole.
func (s *Service) AssignForOrder(ctx context.Context, orderID int64, itemBarcodes map[int64][]string, actorUserID int64) ([]models.OrderItemAssignment, error) {
	if orderID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	if len(itemBarcodes) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one item is required")
	}
	if actorUserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "actor user id is required")
	}

	var created []models.OrderItemAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items, err := repo.ListItemsForOrder(ctx, orderID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "listing order items")
		}
		if len(items) == 0 {
			return apperrors.Newf(apperrors.CodeValidation, "order %d has no items", orderID)
		}
		known := make(map[int64]bool, len(items))
		for _, item := range items {
			known[item.ID] = true
			if _, ok := itemBarcodes[item.ID]; !ok {
				return apperrors.Newf(apperrors.CodeValidation,
					"item %d has no cylinders in the request, every item must be covered", item.ID)
			}
		}
		usedBy := make(map[string]int64)
		for itemID, barcodes := range itemBarcodes {
			if !known[itemID] {
				return apperrors.Newf(apperrors.CodeValidation, "item %d does not belong to order %d", itemID, orderID)
			}
			for _, barcode := range barcodes {
				if other, dup := usedBy[barcode]; dup && other != itemID {
					return apperrors.Newf(apperrors.CodeValidation, "barcode %s appears on more than one item", barcode)
				}
				usedBy[barcode] = itemID
			}
		}
		for _, item := range items {
			rows, err := s.assignItem(ctx, tx, repo, item.ID, itemBarcodes[item.ID], actorUserID)
			if err != nil {
				return err
			}
			created = append(created, rows...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAssignments(len(created))
	return created, nil
}

func (s *Service) assignItem(ctx context.Context, tx *gorm.DB, repo Repository, itemID int64, barcodes []string, actorUserID int64) ([]models.OrderItemAssignment, error) {
	item, order, err := s.loadItemWithOrder(ctx, repo, itemID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusWarehousePreparing {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"order %s is %s, assignment requires warehouse_preparing", order.OrderNumber, order.Status)
	}

	active, err := repo.CountActiveForItem(ctx, item.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "counting assignments")
	}
	if active+int64(len(barcodes)) != int64(item.Quantity) {
		return nil, apperrors.Newf(apperrors.CodeValidation,
			"item %d needs %d cylinders, %d already assigned, %d scanned",
			item.ID, item.Quantity, active, len(barcodes))
	}

	var failures []CheckResult
	seen := make(map[string]bool, len(barcodes))
	cylinders := make([]*models.Cylinder, 0, len(barcodes))
	for _, barcode := range barcodes {
		if seen[barcode] {
			failures = append(failures, CheckResult{Barcode: barcode, Reason: "duplicate barcode in request"})
			continue
		}
		seen[barcode] = true
		if reason := s.checkBarcode(ctx, repo, item, order, barcode); reason != "" {
			failures = append(failures, CheckResult{Barcode: barcode, Reason: reason})
			continue
		}
		cylinder, err := repo.GetCylinderByBarcode(ctx, barcode)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
		}
		cylinders = append(cylinders, cylinder)
	}
	if len(failures) > 0 {
		var cause error
		for _, failure := range failures {
			cause = multierr.Append(cause, fmt.Errorf("barcode %s: %s", failure.Barcode, failure.Reason))
		}
		return nil, apperrors.Wrap(apperrors.CodeValidation, cause, "assignment rejected").WithDetails(failures)
	}

	created := make([]models.OrderItemAssignment, 0, len(cylinders))
	for _, cylinder := range cylinders {
		assignment := models.OrderItemAssignment{
			OrderItemID: item.ID,
			CylinderID:  cylinder.ID,
			Status:      enums.AssignmentStatusAllocated,
			AssignedAt:  time.Now(),
		}
		if err := repo.CreateAssignment(ctx, &assignment); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, apperrors.Newf(apperrors.CodeConflict,
					"cylinder %s was assigned concurrently", cylinder.Barcode)
			}
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating assignment")
		}

		cylinder.Status = enums.CylinderStatusReservedForOrder
		if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reserving cylinder")
		}

		if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
			CylinderID:      cylinder.ID,
			ActorUserID:     actorUserID,
			Type:            enums.MovementTypeAllocatedToOrder,
			FromWarehouseID: cylinder.WarehouseID,
			ToWarehouseID:   cylinder.WarehouseID,
			OrderID:         &order.ID,
			Notes:           "allocated to order " + order.OrderNumber,
		}); err != nil {
			return nil, err
		}
		created = append(created, assignment)
	}
	return created, nil
}

// checkBarcode returns an empty string when the cylinder may be assigned to
// the item, otherwise the reason it may not.
func (s *Service) checkBarcode(ctx context.Context, repo Repository, item *models.OrderItem, order *models.Order, barcode string) string {
	cylinder, err := repo.GetCylinderByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "cylinder not found"
		}
		return "lookup failed"
	}
	if cylinder.Status != enums.CylinderStatusFullInWarehouse {
		return "cylinder is " + string(cylinder.Status) + ", needs full_in_warehouse"
	}
	if cylinder.WarehouseID == nil || *cylinder.WarehouseID != order.WarehouseID {
		return "cylinder is not in the order's warehouse"
	}
	if cylinder.GasTypeID == nil || *cylinder.GasTypeID != item.Product.GasTypeID {
		return "gas type does not match the product"
	}
	if cylinder.PropertyID != item.Product.PropertyID {
		return "cylinder spec does not match the product"
	}
	held, err := repo.HasActiveAssignment(ctx, cylinder.ID)
	if err != nil {
		return "lookup failed"
	}
	if held {
		return "cylinder is held by another order"
	}
	return ""
}

// MarkReadyForOrder advances every assignment of the order to ready_to_ship
// inside the caller's transaction. Every item must be fully assigned first.
func (s *Service) MarkReadyForOrder(ctx context.Context, tx *gorm.DB, orderID int64, actorUserID int64) (int, error) {
	repo := s.repo.WithTx(tx)

	items, err := repo.ListItemsForOrder(ctx, orderID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing order items")
	}
	for _, item := range items {
		active, err := repo.CountActiveForItem(ctx, item.ID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting assignments")
		}
		if active < int64(item.Quantity) {
			return 0, apperrors.Newf(apperrors.CodeStateConflict,
				"item %d has %d of %d cylinders assigned", item.ID, active, item.Quantity)
		}
	}

	rows, err := repo.ListActiveForOrder(ctx, orderID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing assignments")
	}
	for i := range rows {
		assignment := &rows[i]
		if !assignment.Status.CanTransitionTo(enums.AssignmentStatusReadyToShip) {
			return 0, apperrors.Newf(apperrors.CodeStateConflict,
				"assignment %d is %s, cannot become ready_to_ship", assignment.ID, assignment.Status)
		}
		assignment.Status = enums.AssignmentStatusReadyToShip
		if err := repo.UpdateAssignment(ctx, assignment); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating assignment")
		}

		cylinder, err := repo.GetCylinder(ctx, assignment.CylinderID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
		}
		cylinder.Status = enums.CylinderStatusReadyToShip
		if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
			CylinderID:      cylinder.ID,
			ActorUserID:     actorUserID,
			Type:            enums.MovementTypeStatusUpdate,
			FromWarehouseID: cylinder.WarehouseID,
			ToWarehouseID:   cylinder.WarehouseID,
			OrderID:         &orderID,
			Notes:           "staged ready to ship",
		}); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// DispatchForOrder moves the order's staged cylinders onto the truck inside
// the caller's transaction: assignments to shipped, cylinders to in_transit,
// one dispatched_for_delivery ledger row each.
func (s *Service) DispatchForOrder(ctx context.Context, tx *gorm.DB, orderID int64, actorUserID int64) (int, error) {
	repo := s.repo.WithTx(tx)

	rows, err := repo.ListActiveForOrder(ctx, orderID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing assignments")
	}
	if len(rows) == 0 {
		return 0, apperrors.Newf(apperrors.CodeStateConflict, "order %d has no cylinders to dispatch", orderID)
	}
	for i := range rows {
		assignment := &rows[i]
		if !assignment.Status.CanTransitionTo(enums.AssignmentStatusShipped) {
			return 0, apperrors.Newf(apperrors.CodeStateConflict,
				"assignment %d is %s, cannot ship", assignment.ID, assignment.Status)
		}
		assignment.Status = enums.AssignmentStatusShipped
		if err := repo.UpdateAssignment(ctx, assignment); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating assignment")
		}

		cylinder, err := repo.GetCylinder(ctx, assignment.CylinderID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
		}
		fromWarehouse := cylinder.WarehouseID
		cylinder.Status = enums.CylinderStatusInTransit
		cylinder.WarehouseID = nil
		if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
			CylinderID:      cylinder.ID,
			ActorUserID:     actorUserID,
			Type:            enums.MovementTypeDispatchedForDelivery,
			FromWarehouseID: fromWarehouse,
			OrderID:         &orderID,
			Notes:           "loaded for delivery",
		}); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// DeliverForOrder hands the order's in-transit cylinders to the customer
// inside the caller's transaction. Rental items get their window stamped;
// purchase items transfer ownership.
func (s *Service) DeliverForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, actorUserID int64, rentalDuration time.Duration) (int, error) {
	repo := s.repo.WithTx(tx)

	items, err := repo.ListItemsForOrder(ctx, order.ID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing order items")
	}
	rentalByItem := make(map[int64]bool, len(items))
	now := time.Now()
	end := now.Add(rentalDuration)
	for i := range items {
		item := &items[i]
		rentalByItem[item.ID] = item.IsRental
		if item.IsRental {
			item.RentalStartDate = &now
			item.RentalEndDate = &end
			if err := tx.WithContext(ctx).Save(item).Error; err != nil {
				return 0, apperrors.Wrap(apperrors.CodeInternal, err, "stamping rental window")
			}
		}
	}

	rows, err := repo.ListActiveForOrder(ctx, order.ID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing assignments")
	}
	if len(rows) == 0 {
		return 0, apperrors.Newf(apperrors.CodeStateConflict, "order %d has no cylinders in transit", order.ID)
	}
	for i := range rows {
		assignment := &rows[i]
		if !assignment.Status.CanTransitionTo(enums.AssignmentStatusReceivedByCustomer) {
			return 0, apperrors.Newf(apperrors.CodeStateConflict,
				"assignment %d is %s, cannot hand over", assignment.ID, assignment.Status)
		}
		assignment.Status = enums.AssignmentStatusReceivedByCustomer
		if err := repo.UpdateAssignment(ctx, assignment); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating assignment")
		}

		cylinder, err := repo.GetCylinder(ctx, assignment.CylinderID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
		}
		customerID := order.CustomerID
		cylinder.CustomerID = &customerID
		cylinder.WarehouseID = nil
		if rentalByItem[assignment.OrderItemID] {
			cylinder.Status = enums.CylinderStatusAtCustomerRented
		} else {
			cylinder.Status = enums.CylinderStatusAtCustomerOwned
			cylinder.OwnedByCustomer = true
		}
		if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "updating cylinder")
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
			CylinderID:   cylinder.ID,
			ActorUserID:  actorUserID,
			Type:         enums.MovementTypeHandedToCustomer,
			ToCustomerID: &customerID,
			OrderID:      &order.ID,
			Notes:        "handed to customer",
		}); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// ReleaseForOrder frees every cylinder a cancelled order still holds, inside
// the caller's transaction. Only pre-shipment assignments can be released;
// the rows are removed and the cylinders go back to full_in_warehouse.
func (s *Service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID int64, actorUserID int64, reason string) (int, error) {
	repo := s.repo.WithTx(tx)

	rows, err := repo.ListActiveForOrder(ctx, orderID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing assignments")
	}
	for i := range rows {
		assignment := &rows[i]
		if assignment.Status.IsDelivered() {
			return 0, apperrors.Newf(apperrors.CodeStateConflict,
				"assignment %d already left the warehouse", assignment.ID)
		}
		if err := repo.DeleteAssignment(ctx, assignment.ID); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "removing assignment")
		}

		cylinder, err := repo.GetCylinder(ctx, assignment.CylinderID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "loading cylinder")
		}
		cylinder.Status = enums.CylinderStatusFullInWarehouse
		if err := repo.UpdateCylinder(ctx, cylinder); err != nil {
			return 0, apperrors.Wrap(apperrors.CodeInternal, err, "releasing cylinder")
		}
		notes := "released from order"
		if reason != "" {
			notes = "released: " + reason
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.Entry{
			CylinderID:      cylinder.ID,
			ActorUserID:     actorUserID,
			Type:            enums.MovementTypeStatusUpdate,
			FromWarehouseID: cylinder.WarehouseID,
			ToWarehouseID:   cylinder.WarehouseID,
			OrderID:         &orderID,
			Notes:           notes,
		}); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// CloseByCylinder advances the cylinder's active assignment to a terminal
// status inside the caller's transaction. Used by the return flow.
func (s *Service) CloseByCylinder(ctx context.Context, tx *gorm.DB, cylinderID int64, target enums.AssignmentStatus) (*models.OrderItemAssignment, error) {
	repo := s.repo.WithTx(tx)

	assignment, err := repo.GetActiveByCylinder(ctx, cylinderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading assignment")
	}
	if !assignment.Status.CanTransitionTo(target) {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"assignment %d is %s, cannot become %s", assignment.ID, assignment.Status, target)
	}
	assignment.Status = target
	if err := repo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "closing assignment")
	}
	return assignment, nil
}

func (s *Service) loadItemWithOrder(ctx context.Context, repo Repository, itemID int64) (*models.OrderItem, *models.Order, error) {
	if itemID == 0 {
		return nil, nil, apperrors.New(apperrors.CodeValidation, "order item id is required")
	}
	item, err := repo.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "order item %d not found", itemID)
		}
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order item")
	}
	if item.Product == nil {
		return nil, nil, apperrors.Newf(apperrors.CodeInternal, "order item %d has no product", itemID)
	}
	order, err := repo.GetOrder(ctx, item.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.Newf(apperrors.CodeNotFound, "order %d not found", item.OrderID)
		}
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	return item, order, nil
}
