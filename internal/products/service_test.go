package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/internal/clients"
	dbclient "github.com/retailgrid/backoffice/pkg/db"
	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}, &models.Product{}, &models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), clients.NewRepository(db), dbclient.NewFromConn(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedClient(t *testing.T, db *gorm.DB, name string) *models.Client {
	t.Helper()
	client, err := clients.NewRepository(db).Create(context.Background(), &models.Client{Name: name})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func TestCreateSeedsZeroInventory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		ClientID: client.ID,
		Barcode:  " 8901030865278 ",
		Name:     "Masala Oats 500g",
		MRP:      mustDecimal(t, "120.00"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.Barcode != "8901030865278" {
		t.Fatalf("barcode not normalized: %q", product.Barcode)
	}

	var inv models.InventoryItem
	if err := db.First(&inv, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("inventory row missing: %v", err)
	}
	if inv.Quantity != 0 {
		t.Fatalf("inventory starts at %d, want 0", inv.Quantity)
	}
}

func TestCreateRejectsDuplicateBarcode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	input := CreateInput{
		ClientID: client.ID,
		Barcode:  "8901030865278",
		Name:     "Masala Oats 500g",
		MRP:      mustDecimal(t, "120.00"),
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same barcode in a different case still collides.
	input.Barcode = " 8901030865278"
	input.Name = "Masala Oats 1kg"
	if _, err := svc.Create(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
}

func TestCreateRequiresKnownClient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID: uuid.New(),
		Barcode:  "8901030865278",
		Name:     "Masala Oats 500g",
		MRP:      mustDecimal(t, "120.00"),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"blank barcode", CreateInput{ClientID: client.ID, Name: "x", MRP: decimal.Zero}},
		{"blank name", CreateInput{ClientID: client.ID, Barcode: "890", MRP: decimal.Zero}},
		{"negative mrp", CreateInput{ClientID: client.ID, Barcode: "890", Name: "x", MRP: mustDecimal(t, "-1.00")}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdateKeepsBarcode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		ClientID: client.ID,
		Barcode:  "8901030865278",
		Name:     "Masala Oats 500g",
		MRP:      mustDecimal(t, "120.00"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Update(ctx, UpdateInput{
		ID:   product.ID,
		Name: "Masala Oats 500g (new pack)",
		MRP:  mustDecimal(t, "130.00"),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Barcode != "8901030865278" {
		t.Fatalf("barcode changed: %q", updated.Barcode)
	}
	if !updated.MRP.Equal(mustDecimal(t, "130.00")) {
		t.Fatalf("mrp = %s, want 130.00", updated.MRP)
	}
}

func TestGetByBarcodeNormalizes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		ClientID: client.ID,
		Barcode:  "ABC-001",
		Name:     "Sample",
		MRP:      mustDecimal(t, "10.00"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := svc.GetByBarcode(ctx, "  abc-001 ")
	if err != nil {
		t.Fatalf("get by barcode failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("lookup returned wrong product")
	}

	if _, err := svc.GetByBarcode(ctx, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByBarcodesSnapshot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newService(t, db)
	repo := NewRepository(db)
	client := seedClient(t, db, "Nimbus Foods")
	ctx := context.Background()

	for _, code := range []string{"b-1", "b-2", "b-3"} {
		if _, err := svc.Create(ctx, CreateInput{ClientID: client.ID, Barcode: code, Name: code, MRP: mustDecimal(t, "10.00")}); err != nil {
			t.Fatalf("create %s failed: %v", code, err)
		}
	}

	rows, err := repo.ListByBarcodes(ctx, []string{"b-1", "b-3", "missing"})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(rows))
	}
}
