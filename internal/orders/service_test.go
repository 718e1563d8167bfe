package orders

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

func newTestDB(t *testing.T) *gorm.DB {
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
		&models.DocSequence{},
	))
	return conn
}

func int64Ptr(v int64) *int64 { return &v }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)

	require.NoError(t, conn.Create(&models.Warehouse{Name: "North", Address: "Dock 1"}).Error)
	require.NoError(t, conn.Create(&models.Warehouse{Name: "South", Address: "Dock 2"}).Error)
	require.NoError(t, conn.Create(&models.GasType{Name: "Oxygen"}).Error)
	require.NoError(t, conn.Create(&models.CylinderProperty{
		Name: "6m3 steel", SizeCubicMeter: decimal.NewFromInt(6), Material: "steel", MaxAgeYears: 10,
	}).Error)
	require.NoError(t, conn.Create(&models.Customer{Name: "Acme", DefaultShippingAddress: "Main St 1"}).Error)
	require.NoError(t, conn.Create(&models.User{Name: "Sales", Username: "sales"}).Error)
	require.NoError(t, conn.Create(&models.Product{
		Name: "Oxygen 6m3", SKU: "OX-6", PropertyID: 1, GasTypeID: 1,
		Unit: "cylinder", UnitPrice: decimal.NewFromInt(50), IsActive: true,
	}).Error)

	tx := &testTx{conn: conn}
	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	assignmentSvc := assignments.NewService(assignments.NewRepository(conn), ledgerSvc, nil, tx)
	svc := NewService(NewRepository(conn), numbering.NewService(), assignmentSvc, nil, tx)
	return svc, conn
}

func createInput() CreateInput {
	return CreateInput{
		CustomerID:  1,
		SalesUserID: 1,
		WarehouseID: 1,
		Type:        enums.OrderTypeRental,
		Items:       []CreateItemInput{{ProductID: 1, Quantity: 2}},
	}
}

func seedFullCylinders(t *testing.T, conn *gorm.DB, n int) {
	t.Helper()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fill := base.AddDate(0, 0, i)
		require.NoError(t, conn.Create(&models.Cylinder{
			Barcode: "CYL-00" + string(rune('1'+i)), PropertyID: 1,
			GasTypeID: int64Ptr(1), WarehouseID: int64Ptr(1),
			Status:          enums.CylinderStatusFullInWarehouse,
			ManufactureDate: base.AddDate(-3, 0, 0),
			LastFillDate:    &fill,
		}).Error)
	}
}

func TestCreateNumbersOrderAndSnapshotsPrice(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	assert.Regexp(t, `^O\d{6}-00001$`, order.OrderNumber)
	assert.Equal(t, enums.OrderStatusNew, order.Status)
	assert.Equal(t, "Main St 1", order.ShippingAddress)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, order.Items[0].IsRental)

	second, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	assert.Regexp(t, `-00002$`, second.OrderNumber)

	var histories []models.OrderStatusHistory
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&histories).Error)
	require.Len(t, histories, 1)
	assert.Equal(t, enums.OrderStatusNew, histories[0].Status)
}

func TestCreateRejectsUnknownProductAndCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := createInput()
	input.Items[0].ProductID = 99
	_, err := svc.Create(ctx, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	input = createInput()
	input.CustomerID = 99
	_, err = svc.Create(ctx, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	svc, conn := newTestService(t)

	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", 1).Update("is_active", false).Error)

	_, err := svc.Create(context.Background(), createInput())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestTransitionFollowsTable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, createInput())
	require.NoError(t, err)

	confirmed, err := svc.TransitionStatus(ctx, TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusSalesConfirmed, ActorUserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSalesConfirmed, confirmed.Status)

	_, err = svc.TransitionStatus(ctx, TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusSalesConfirmed, ActorUserID: 1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, enums.OrderStatusNew, history[0].Status)
	assert.Equal(t, enums.OrderStatusSalesConfirmed, history[1].Status)
}

func TestTransitionRefusesWorkflowOwnedTargets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, createInput())
	require.NoError(t, err)

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusReadyToShip,
		enums.OrderStatusShipped,
		enums.OrderStatusCompleted,
		enums.OrderStatusCancelledBySales,
	} {
		_, err := svc.TransitionStatus(ctx, TransitionInput{
			OrderID: order.ID, Target: target, ActorUserID: 1,
		})
		require.Error(t, err, target)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict), target)
	}
}

func prepareOrder(t *testing.T, svc *Service, conn *gorm.DB) *models.Order {
	t.Helper()
	ctx := context.Background()

	order, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusSalesConfirmed, ActorUserID: 1,
	})
	require.NoError(t, err)
	order, err = svc.TransitionStatus(ctx, TransitionInput{
		OrderID: order.ID, Target: enums.OrderStatusWarehousePreparing, ActorUserID: 1,
	})
	require.NoError(t, err)
	return order
}

func TestMarkPreparedRequiresFullAssignment(t *testing.T) {
	svc, conn := newTestService(t)
	seedFullCylinders(t, conn, 2)
	order := prepareOrder(t, svc, conn)

	_, err := svc.MarkPrepared(context.Background(), order.ID, 1, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestMarkPreparedAdvancesOrderAndCylinders(t *testing.T) {
	svc, conn := newTestService(t)
	seedFullCylinders(t, conn, 2)
	order := prepareOrder(t, svc, conn)
	ctx := context.Background()

	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	assignmentSvc := assignments.NewService(assignments.NewRepository(conn), ledgerSvc, nil, &testTx{conn: conn})
	_, err := assignmentSvc.Assign(ctx, assignments.AssignInput{
		OrderItemID: order.Items[0].ID,
		Barcodes:    []string{"CYL-001", "CYL-002"},
		ActorUserID: 1,
	})
	require.NoError(t, err)

	updated, err := svc.MarkPrepared(ctx, order.ID, 1, "packed")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReadyToShip, updated.Status)

	var ready int64
	require.NoError(t, conn.Model(&models.Cylinder{}).
		Where("status = ?", enums.CylinderStatusReadyToShip).
		Count(&ready).Error)
	assert.Equal(t, int64(2), ready)
}

func TestReassignWarehouseBeforeAssignmentOnly(t *testing.T) {
	svc, conn := newTestService(t)
	seedFullCylinders(t, conn, 2)
	order := prepareOrder(t, svc, conn)
	ctx := context.Background()

	updated, err := svc.ReassignWarehouse(ctx, order.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.WarehouseID)

	// move it back and assign cylinders, then reassignment must fail
	_, err = svc.ReassignWarehouse(ctx, order.ID, 1, 1)
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	assignmentSvc := assignments.NewService(assignments.NewRepository(conn), ledgerSvc, nil, &testTx{conn: conn})
	_, err = assignmentSvc.Assign(ctx, assignments.AssignInput{
		OrderItemID: order.Items[0].ID, Barcodes: []string{"CYL-001", "CYL-002"}, ActorUserID: 1,
	})
	require.NoError(t, err)

	_, err = svc.ReassignWarehouse(ctx, order.ID, 2, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestCancelReleasesCylinders(t *testing.T) {
	svc, conn := newTestService(t)
	seedFullCylinders(t, conn, 2)
	order := prepareOrder(t, svc, conn)
	ctx := context.Background()

	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	assignmentSvc := assignments.NewService(assignments.NewRepository(conn), ledgerSvc, nil, &testTx{conn: conn})
	_, err := assignmentSvc.Assign(ctx, assignments.AssignInput{
		OrderItemID: order.Items[0].ID,
		Barcodes:    []string{"CYL-001", "CYL-002"},
		ActorUserID: 1,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, order.ID, 1, "customer withdrew", true)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelledBySystem, cancelled.Status)

	var full int64
	require.NoError(t, conn.Model(&models.Cylinder{}).
		Where("status = ?", enums.CylinderStatusFullInWarehouse).
		Count(&full).Error)
	assert.Equal(t, int64(2), full)

	var active int64
	require.NoError(t, conn.Model(&models.OrderItemAssignment{}).
		Where("status IN ?", enums.ActiveAssignmentStatuses()).
		Count(&active).Error)
	assert.Zero(t, active)
}

func TestCancelRefusedAfterShipping(t *testing.T) {
	svc, conn := newTestService(t)
	order := prepareOrder(t, svc, conn)
	ctx := context.Background()

	require.NoError(t, conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusShipped).Error)

	_, err := svc.Cancel(ctx, order.ID, 1, "too late", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestListToPrepareReturnsQueueOldestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first := prepareOrder(t, svc, conn)
	second, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, TransitionInput{
		OrderID: second.ID, Target: enums.OrderStatusSalesConfirmed, ActorUserID: 1,
	})
	require.NoError(t, err)
	// a new order is not in the queue yet
	_, err = svc.Create(ctx, createInput())
	require.NoError(t, err)

	queue, err := svc.ListToPrepare(ctx, 1)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, second.ID, queue[1].ID)
}
