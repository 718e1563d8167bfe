package cylinders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gasindo/gastrack-backend/internal/ledger"
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
		&models.Cylinder{},
		&models.OrderItemAssignment{},
		&models.StockMovement{},
	))

	require.NoError(t, conn.Create(&models.Warehouse{Name: "North", Address: "Dock 1"}).Error)
	require.NoError(t, conn.Create(&models.Warehouse{Name: "South", Address: "Dock 2"}).Error)
	require.NoError(t, conn.Create(&models.GasType{Name: "Oxygen"}).Error)
	require.NoError(t, conn.Create(&models.GasType{Name: "Argon"}).Error)
	require.NoError(t, conn.Create(&models.CylinderProperty{
		Name: "6m3 steel", SizeCubicMeter: decimal.NewFromInt(6), Material: "steel", MaxAgeYears: 10,
	}).Error)
	return conn
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	ledgerSvc := ledger.NewService(ledger.NewRepository(conn), nil)
	svc := NewService(NewRepository(conn), ledgerSvc, &testTx{conn: conn})
	return svc, conn
}

func int64Ptr(v int64) *int64 { return &v }

func registerInput(barcode string) RegisterInput {
	return RegisterInput{
		Barcode:         barcode,
		PropertyID:      1,
		WarehouseID:     1,
		Status:          enums.CylinderStatusEmptyInWarehouse,
		ManufactureDate: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		ActorUserID:     3,
	}
}

func TestRegisterCreatesCylinderAndLedgerRow(t *testing.T) {
	svc, conn := newTestService(t)

	cylinder, err := svc.Register(context.Background(), registerInput("CYL-001"))
	require.NoError(t, err)
	assert.NotZero(t, cylinder.ID)
	assert.Equal(t, enums.CylinderStatusEmptyInWarehouse, cylinder.Status)
	require.NotNil(t, cylinder.WarehouseID)
	assert.Equal(t, int64(1), *cylinder.WarehouseID)

	var movements []models.StockMovement
	require.NoError(t, conn.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, enums.MovementTypeReceivedNew, movements[0].Type)
	assert.Equal(t, cylinder.ID, movements[0].CylinderID)
}

func TestBulkRegisterRejectsWholeBatchOnOneBadItem(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	bad := registerInput("CYL-BAD")
	bad.Status = enums.CylinderStatusInTransit

	_, err := svc.BulkRegister(ctx, []RegisterInput{registerInput("CYL-OK"), bad})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	details, ok := apperrors.As(err).Details().([]BulkItemError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, 1, details[0].Index)
	assert.Equal(t, "CYL-BAD", details[0].Barcode)

	var count int64
	require.NoError(t, conn.Model(&models.Cylinder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBulkRegisterRejectsDuplicateAndExistingBarcodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	_, err = svc.BulkRegister(ctx, []RegisterInput{
		registerInput("CYL-001"),
		registerInput("CYL-002"),
		registerInput("CYL-002"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	details, ok := apperrors.As(err).Details().([]BulkItemError)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestRegisterRejectsUnknownReferences(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	badWarehouse := registerInput("CYL-001")
	badWarehouse.WarehouseID = 999
	_, err := svc.Register(ctx, badWarehouse)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	badProperty := registerInput("CYL-002")
	badProperty.PropertyID = 999
	_, err = svc.Register(ctx, badProperty)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	badGas := registerInput("CYL-003")
	badGas.Status = enums.CylinderStatusFullInWarehouse
	badGas.GasTypeID = int64Ptr(999)
	_, err = svc.Register(ctx, badGas)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	var count int64
	require.NoError(t, conn.Model(&models.Cylinder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBulkRegisterRequiresGasTypeForFull(t *testing.T) {
	svc, _ := newTestService(t)

	input := registerInput("CYL-001")
	input.Status = enums.CylinderStatusFullInWarehouse

	_, err := svc.BulkRegister(context.Background(), []RegisterInput{input})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestChangeStatusRefillStampsFillDate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	changed, err := svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusFullInWarehouse,
		GasTypeID:    int64Ptr(2),
		ActorUserID:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CylinderStatusFullInWarehouse, changed.Status)
	require.NotNil(t, changed.LastFillDate)
	require.NotNil(t, changed.GasTypeID)
	assert.Equal(t, int64(2), *changed.GasTypeID)

	var movements []models.StockMovement
	require.NoError(t, conn.Order("id").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, enums.MovementTypeRefill, movements[1].Type)
}

func TestChangeStatusRefillHonorsProvidedFillDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	filled := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	changed, err := svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusFullInWarehouse,
		GasTypeID:    int64Ptr(2),
		LastFillDate: &filled,
		ActorUserID:  3,
	})
	require.NoError(t, err)
	require.NotNil(t, changed.LastFillDate)
	assert.True(t, changed.LastFillDate.Equal(filled))
}

func TestChangeStatusRelocationBecomesTransfer(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	changed, err := svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusEmptyInWarehouse,
		WarehouseID:  int64Ptr(2),
		ActorUserID:  3,
	})
	require.NoError(t, err)
	require.NotNil(t, changed.WarehouseID)
	assert.Equal(t, int64(2), *changed.WarehouseID)

	var movements []models.StockMovement
	require.NoError(t, conn.Order("id").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, enums.MovementTypeWarehouseTransfer, movements[1].Type)
	require.NotNil(t, movements[1].FromWarehouseID)
	assert.Equal(t, int64(1), *movements[1].FromWarehouseID)
	require.NotNil(t, movements[1].ToWarehouseID)
	assert.Equal(t, int64(2), *movements[1].ToWarehouseID)
}

func TestChangeStatusRejectsWorkflowOwnedTarget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusReservedForOrder,
		ActorUserID:  3,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestChangeStatusBlockedByActiveAssignment(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	cylinder, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.OrderItemAssignment{
		OrderItemID: 10,
		CylinderID:  cylinder.ID,
		Status:      enums.AssignmentStatusAllocated,
		AssignedAt:  time.Now(),
	}).Error)

	_, err = svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusNeedsInspection,
		ActorUserID:  3,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStateConflict))
}

func TestChangeStatusLostClearsLocation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)

	changed, err := svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusLost,
		ActorUserID:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CylinderStatusLost, changed.Status)
	assert.Nil(t, changed.WarehouseID)
	assert.Nil(t, changed.CustomerID)
}

func TestGetDetailsReturnsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("CYL-001"))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, ChangeStatusInput{
		Barcode:      "CYL-001",
		TargetStatus: enums.CylinderStatusNeedsInspection,
		ActorUserID:  3,
	})
	require.NoError(t, err)

	details, err := svc.GetDetails(ctx, "CYL-001")
	require.NoError(t, err)
	assert.Equal(t, "CYL-001", details.Cylinder.Barcode)
	require.Len(t, details.History, 2)
	assert.Equal(t, enums.MovementTypeReceivedNew, details.History[0].Type)
}

func TestGetDetailsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetDetails(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestStockSummaryGroupsByWarehouseAndStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inputs := []RegisterInput{
		registerInput("CYL-001"),
		registerInput("CYL-002"),
	}
	other := registerInput("CYL-003")
	other.WarehouseID = 2
	inputs = append(inputs, other)

	_, err := svc.BulkRegister(ctx, inputs)
	require.NoError(t, err)

	rows, err := svc.StockSummary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].WarehouseID)
	assert.Equal(t, enums.CylinderStatusEmptyInWarehouse, rows[0].Status)
	assert.Equal(t, int64(2), rows[0].Count)

	all, err := svc.StockSummary(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
