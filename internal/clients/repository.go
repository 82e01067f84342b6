package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"gorm.io/gorm"
)

// Repository resolves client (brand) records. Read-mostly: bulk uploads treat
// an unknown client name as a reportable business error.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, client *models.Client) (*models.Client, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByName(ctx context.Context, name string) (*models.Client, error)
	ListByNames(ctx context.Context, names []string) ([]models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a client repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NormalizeName produces the comparison form of a client name.
func NormalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (r *repository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.Name = NormalizeName(client.Name)
	if client.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name required")
	}
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "client %s not found", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return &client, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).First(&client, "name = ?", NormalizeName(name)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "client %q not found", name)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client by name")
	}
	return &client, nil
}

// ListByNames resolves every provided name in one read. Used as the per-batch
// snapshot for bulk product uploads.
func (r *repository) ListByNames(ctx context.Context, names []string) ([]models.Client, error) {
	if len(names) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		normalized = append(normalized, NormalizeName(name))
	}
	var rows []models.Client
	if err := r.db.WithContext(ctx).Where("name IN ?", normalized).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load clients by name")
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context) ([]models.Client, error) {
	var rows []models.Client
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	return rows, nil
}
