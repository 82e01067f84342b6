package clients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:clients_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateNormalizesName(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	client, err := repo.Create(ctx, &models.Client{Name: "  Nimbus Foods "})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if client.Name != "nimbus foods" {
		t.Fatalf("name not normalized: %q", client.Name)
	}

	found, err := repo.FindByName(ctx, "NIMBUS FOODS")
	if err != nil {
		t.Fatalf("find by name failed: %v", err)
	}
	if found.ID != client.ID {
		t.Fatal("lookup returned wrong client")
	}
}

func TestCreateRequiresName(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	if _, err := repo.Create(context.Background(), &models.Client{Name: "   "}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFindByIDUnknown(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	if _, err := repo.FindByID(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByNamesSnapshot(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if _, err := repo.Create(ctx, &models.Client{Name: name}); err != nil {
			t.Fatalf("create %s failed: %v", name, err)
		}
	}

	rows, err := repo.ListByNames(ctx, []string{" Alpha", "BETA ", "gamma"})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(rows))
	}
}
