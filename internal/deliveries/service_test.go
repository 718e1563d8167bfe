package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/internal/numbering"
	"github.com/gasindo/gastrack-backend/internal/orders"
	"github.com/gasindo/gastrack-backend/pkg/config"
	"github.com/gasindo/gastrack-backend/pkg/db/models"
	"github.com/gasindo/gastrack-backend/pkg/enums"
	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
)

type testTx struct {
	conn *gorm.DB
}

func (t *testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.conn.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	svc       *Service
	orders    *orders.Service
	conn      *gorm.DB
	order     *models.Order
	warehouse int64
}

func int64Ptr(v int64) *int64 { return &v }

// newFixture builds a staged rental order for two oxygen cylinders,
// ready_to_ship and waiting for a driver.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.Warehouse{},
		&models.GasType{},
		&models.CylinderProperty{},
		&models.Customer{},
		&models.User{},
		&models.Product{},
		&models.Cylinder{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemAssignment{},
		&models.OrderStatusHistory{},
		&models.StockMovement{},
		&models.Delivery{},
		&models.DocSequence{},
	))

	require.NoError(t, conn.Create(&models.Warehouse{Name: "North", Address: "Dock 1"}).Error)
	require.NoError(t, conn.Create(&models.GasType{Name: "Oxygen"}).Error)
	require.NoError(t, conn.Create(&models.CylinderProperty{
		Name: "6m3 steel", SizeCubicMeter: decimal.NewFromInt(6), Material: "steel", MaxAgeYears: 10,
	}).Error)
	require.NoError(t, conn.Create(&models.Customer{Name: "Acme", DefaultShippingAddress: "Main St 1"}).Error)
	require.NoError(t, conn.Create(&models.User{Name: "Sales", Username: "sales"}).Error)
	require.NoError(t, conn.Create(&models.User{Name: "Driver", Username: "driver"}).Error)
	require.NoError(t, conn.Create(&models.Product{
		Name: "Oxygen 6m3", SKU: "OX-6", PropertyID: 1, GasTypeID: 1,
		Unit: "cylinder", UnitPrice: decimal.NewFromInt(50), IsActive: true,
	}).Error)

	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, barcode := range []string{"CYL-001", "CYL-002"} {
		fill := base.AddDate(0, 0, i)
		require.NoError(t, conn.Create(&models.Cylinder{
			Barcode: barcode, PropertyID: 1, GasTypeID: int64Ptr(1), WarehouseID: int64Ptr(1),
			Status:          enums.CylinderStatusFullInWarehouse,
			ManufactureDate: base.AddDate(-3, 0, 0),
			LastFillDate:    &fill,
		}).Error)
	}

	tx := &testTx{conn: conn}
	numberingSvc := numbering.NewService()
	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	assignmentSvc := assignments.NewService(assignments.NewRepository(conn), ledgerSvc, nil, tx)
	orderSvc := orders.NewService(orders.NewRepository(conn), numberingSvc, assignmentSvc, nil, tx)
	svc := NewService(NewRepository(conn), orderSvc, assignmentSvc, numberingSvc,
		config.RentalConfig{DefaultDurationDays: 30}, tx)

	ctx := context.Background()
	order, err := orderSvc.Create(ctx, orders.CreateInput{
		CustomerID: 1, SalesUserID: 1, WarehouseID: 1, Type: enums.OrderTypeRental,
		Items: []orders.CreateItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = orderSvc.TransitionStatus(ctx, orders.TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusSalesConfirmed, ActorUserID: 1,
	})
	require.NoError(t, err)
	order, err = orderSvc.TransitionStatus(ctx, orders.TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusWarehousePreparing, ActorUserID: 1,
	})
	require.NoError(t, err)
	_, err = assignmentSvc.Assign(ctx, assignments.AssignInput{
		OrderItemID: order.Items[0].ID,
		Barcodes:    []string{"CYL-001", "CYL-002"},
		ActorUserID: 1,
	})
	require.NoError(t, err)
	order, err = orderSvc.MarkPrepared(ctx, order.ID, 1, "packed")
	require.NoError(t, err)

	return &fixture{svc: svc, orders: orderSvc, conn: conn, order: order, warehouse: 1}
}

func (f *fixture) createDelivery(t *testing.T) *models.Delivery {
	t.Helper()
	delivery, err := f.svc.Create(context.Background(), CreateInput{
		OrderID: f.order.ID, DriverUserID: 2, AssignedByUserID: 1,
	})
	require.NoError(t, err)
	return delivery
}

func TestCreateIssuesDocumentAndAssignsDriver(t *testing.T) {
	f := newFixture(t)

	delivery := f.createDelivery(t)
	assert.Regexp(t, `^DO/\d{4}/\d{2}/0001$`, delivery.DocumentNumber)
	assert.Regexp(t, `^[0-9A-F]{10}$`, delivery.TrackingCode)
	assert.Equal(t, enums.DeliveryStatusAwaitingPickup, delivery.Status)

	var order models.Order
	require.NoError(t, f.conn.First(&order, f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusDriverAssigned, order.Status)
}

func TestCreateRequiresStagedOrder(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.conn.Model(&models.Order{}).
		Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusWarehousePreparing).Error)

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrderID: f.order.ID, DriverUserID: 2, AssignedByUserID: 1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestCreateRejectsSecondActiveDelivery(t *testing.T) {
	f := newFixture(t)
	f.createDelivery(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrderID: f.order.ID, DriverUserID: 2, AssignedByUserID: 1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestPickupShipsOrderAndCylinders(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)

	picked, err := f.svc.PickupFromWarehouse(context.Background(), delivery.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusInTransit, picked.Status)
	require.NotNil(t, picked.DispatchedAt)

	var order models.Order
	require.NoError(t, f.conn.First(&order, f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusShipped, order.Status)

	var inTransit int64
	require.NoError(t, f.conn.Model(&models.Cylinder{}).
		Where("status = ?", enums.CylinderStatusInTransit).
		Count(&inTransit).Error)
	assert.Equal(t, int64(2), inTransit)
}

func TestPickupRefusedTwice(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)
	ctx := context.Background()

	_, err := f.svc.PickupFromWarehouse(ctx, delivery.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.PickupFromWarehouse(ctx, delivery.ID, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestCompleteHandsOverAndStampsRentalWindow(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)
	ctx := context.Background()

	_, err := f.svc.PickupFromWarehouse(ctx, delivery.ID, 2)
	require.NoError(t, err)

	completed, err := f.svc.CompleteAtCustomer(ctx, delivery.ID, 2, "left at gate")
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.DriverNotes)

	var order models.Order
	require.NoError(t, f.conn.First(&order, f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)

	var item models.OrderItem
	require.NoError(t, f.conn.First(&item, "order_id = ?", f.order.ID).Error)
	require.NotNil(t, item.RentalStartDate)
	require.NotNil(t, item.RentalEndDate)
	assert.InDelta(t, 30*24*time.Hour, item.RentalEndDate.Sub(*item.RentalStartDate), float64(time.Minute))

	var rented []models.Cylinder
	require.NoError(t, f.conn.Where("status = ?", enums.CylinderStatusAtCustomerRented).Find(&rented).Error)
	require.Len(t, rented, 2)
	for _, cylinder := range rented {
		require.NotNil(t, cylinder.CustomerID)
		assert.Equal(t, f.order.CustomerID, *cylinder.CustomerID)
	}

	var handed int64
	require.NoError(t, f.conn.Model(&models.StockMovement{}).
		Where("movement_type = ?", enums.MovementTypeHandedToCustomer).
		Count(&handed).Error)
	assert.Equal(t, int64(2), handed)
}

func TestCompleteRequiresPickupFirst(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)

	_, err := f.svc.CompleteAtCustomer(context.Background(), delivery.ID, 2, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestMarkFailedFromTransit(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)
	ctx := context.Background()

	_, err := f.svc.PickupFromWarehouse(ctx, delivery.ID, 2)
	require.NoError(t, err)

	failed, err := f.svc.MarkFailed(ctx, delivery.ID, 2, "customer absent")
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusFailed, failed.Status)

	_, err = f.svc.CompleteAtCustomer(ctx, delivery.ID, 2, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestTrackFindsDeliveryByCode(t *testing.T) {
	f := newFixture(t)
	delivery := f.createDelivery(t)
	ctx := context.Background()

	found, err := f.svc.Track(ctx, delivery.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, delivery.ID, found.ID)
	require.NotNil(t, found.Order)
	assert.Equal(t, f.order.OrderNumber, found.Order.OrderNumber)

	_, err = f.svc.Track(ctx, "0000000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestQueuesForDriverAndDispatcher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ready, err := f.svc.ListReadyOrders(ctx, f.warehouse)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, f.order.ID, ready[0].ID)

	delivery := f.createDelivery(t)

	ready, err = f.svc.ListReadyOrders(ctx, f.warehouse)
	require.NoError(t, err)
	assert.Empty(t, ready)

	queue, err := f.svc.ListActiveForDriver(ctx, 2)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, delivery.ID, queue[0].ID)

	_, err = f.svc.PickupFromWarehouse(ctx, delivery.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.CompleteAtCustomer(ctx, delivery.ID, 2, "")
	require.NoError(t, err)

	queue, err = f.svc.ListActiveForDriver(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, queue)
}
