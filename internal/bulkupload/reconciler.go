package bulkupload

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/internal/clients"
	"github.com/retailgrid/backoffice/internal/products"
	"github.com/retailgrid/backoffice/internal/stock"
	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	"github.com/retailgrid/backoffice/pkg/metrics"
)

// Column layouts for the two upload kinds.
var (
	productColumns   = []string{"client_name", "barcode", "name", "mrp"}
	inventoryColumns = []string{"barcode", "quantity"}
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is one uploaded file.
type Input struct {
	Filename string
	Content  []byte
}

// Service runs the two-phase bulk imports: validate every candidate row in
// memory against a per-batch snapshot, then bulk-write only the passing rows.
// A failed row never blocks its siblings; only structural problems abort.
type Service interface {
	ImportProducts(ctx context.Context, input Input) (*Report, error)
	ImportInventory(ctx context.Context, input Input) (*Report, error)
}

type service struct {
	products products.Repository
	clients  clients.Repository
	stock    stock.Ledger
	tx       txRunner
	metrics  *metrics.BulkImportMetrics
	limits   config.UploadConfig
}

// NewService wires the reconciler. Metrics may be nil (tests).
func NewService(productRepo products.Repository, clientRepo clients.Repository, ledger stock.Ledger, tx txRunner, m *metrics.BulkImportMetrics, limits config.UploadConfig) (Service, error) {
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if clientRepo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		products: productRepo,
		clients:  clientRepo,
		stock:    ledger,
		tx:       tx,
		metrics:  m,
		limits:   limits,
	}, nil
}

// ImportProducts ingests a client_name/barcode/name/mrp file. Passing rows
// become products plus a zero-quantity inventory row each.
func (s *service) ImportProducts(ctx context.Context, input Input) (*Report, error) {
	start := time.Now()
	file, err := parseTSV(input.Filename, input.Content, productColumns, s.limits)
	if err != nil {
		return nil, err
	}

	results, entities, err := s.validateProducts(ctx, file.rows)
	if err != nil {
		return nil, err
	}

	if len(entities) > 0 {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.products.WithTx(tx).BulkCreate(ctx, entities, s.limits.FlushBatchSize); err != nil {
				return err
			}
			inv := make([]models.InventoryItem, 0, len(entities))
			for _, p := range entities {
				inv = append(inv, models.InventoryItem{ProductID: p.ID, Quantity: 0})
			}
			return tx.WithContext(ctx).CreateInBatches(&inv, s.limits.FlushBatchSize).Error
		})
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Header: file.header, Results: results, Malformed: file.malformed}
	s.record(enums.UploadKindProducts, report, start)
	return report, nil
}

func (s *service) validateProducts(ctx context.Context, rows []Row) ([]RowResult, []models.Product, error) {
	barcodes := make([]string, 0, len(rows))
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		barcodes = append(barcodes, products.NormalizeKey(row.Cells[1]))
		names = append(names, row.Cells[0])
	}

	knownClients, err := s.clients.ListByNames(ctx, names)
	if err != nil {
		return nil, nil, err
	}
	clientByName := make(map[string]uuid.UUID, len(knownClients))
	for _, c := range knownClients {
		clientByName[c.Name] = c.ID
	}

	existing, err := s.products.ListByBarcodes(ctx, barcodes)
	if err != nil {
		return nil, nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.Barcode] = true
	}

	seen := make(map[string]bool, len(rows))
	results := make([]RowResult, 0, len(rows))
	var entities []models.Product
	for _, row := range rows {
		clientName := clients.NormalizeName(row.Cells[0])
		barcode := products.NormalizeKey(row.Cells[1])
		name := row.Cells[2]
		rawMRP := row.Cells[3]

		var rowErr string
		switch {
		case clientName == "" || barcode == "" || name == "" || rawMRP == "":
			rowErr = "missing required field"
		case seen[barcode]:
			rowErr = fmt.Sprintf("duplicate barcode %q within file", barcode)
		case taken[barcode]:
			rowErr = fmt.Sprintf("barcode %q already exists", barcode)
		}

		var clientID uuid.UUID
		if rowErr == "" {
			var ok bool
			clientID, ok = clientByName[clientName]
			if !ok {
				rowErr = fmt.Sprintf("unknown client %q", row.Cells[0])
			}
		}

		var mrp decimal.Decimal
		if rowErr == "" {
			mrp, err = decimal.NewFromString(rawMRP)
			if err != nil {
				rowErr = fmt.Sprintf("mrp %q is not a number", rawMRP)
			} else if mrp.IsNegative() {
				rowErr = fmt.Sprintf("mrp %q is negative", rawMRP)
			}
		}

		if barcode != "" {
			seen[barcode] = true
		}
		results = append(results, RowResult{Row: row, Err: rowErr})
		if rowErr != "" {
			continue
		}
		entities = append(entities, models.Product{
			ID:       uuid.New(),
			ClientID: clientID,
			Barcode:  barcode,
			Name:     name,
			MRP:      mrp,
		})
	}
	return results, entities, nil
}

// ImportInventory ingests a barcode/quantity file of absolute quantity
// overwrites, applied through the stock ledger's bulk path.
func (s *service) ImportInventory(ctx context.Context, input Input) (*Report, error) {
	start := time.Now()
	file, err := parseTSV(input.Filename, input.Content, inventoryColumns, s.limits)
	if err != nil {
		return nil, err
	}

	results, quantities, err := s.validateInventory(ctx, file.rows)
	if err != nil {
		return nil, err
	}

	if len(quantities) > 0 {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.stock.BulkSet(ctx, tx, quantities)
		})
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Header: file.header, Results: results, Malformed: file.malformed}
	s.record(enums.UploadKindInventory, report, start)
	return report, nil
}

func (s *service) validateInventory(ctx context.Context, rows []Row) ([]RowResult, []stock.QuantityRow, error) {
	barcodes := make([]string, 0, len(rows))
	for _, row := range rows {
		barcodes = append(barcodes, products.NormalizeKey(row.Cells[0]))
	}
	known, err := s.products.ListByBarcodes(ctx, barcodes)
	if err != nil {
		return nil, nil, err
	}
	productByBarcode := make(map[string]uuid.UUID, len(known))
	for _, p := range known {
		productByBarcode[p.Barcode] = p.ID
	}

	seen := make(map[string]bool, len(rows))
	results := make([]RowResult, 0, len(rows))
	var quantities []stock.QuantityRow
	for _, row := range rows {
		barcode := products.NormalizeKey(row.Cells[0])
		rawQty := row.Cells[1]

		var rowErr string
		var productID uuid.UUID
		switch {
		case barcode == "" || rawQty == "":
			rowErr = "missing required field"
		case seen[barcode]:
			rowErr = fmt.Sprintf("duplicate barcode %q within file", barcode)
		default:
			var ok bool
			productID, ok = productByBarcode[barcode]
			if !ok {
				rowErr = fmt.Sprintf("unknown barcode %q", row.Cells[0])
			}
		}

		var qty int
		if rowErr == "" {
			qty, err = strconv.Atoi(rawQty)
			if err != nil {
				rowErr = fmt.Sprintf("quantity %q is not a whole number", rawQty)
			} else if qty < 0 {
				rowErr = fmt.Sprintf("quantity %q is negative", rawQty)
			}
		}

		if barcode != "" {
			seen[barcode] = true
		}
		results = append(results, RowResult{Row: row, Err: rowErr})
		if rowErr != "" {
			continue
		}
		quantities = append(quantities, stock.QuantityRow{ProductID: productID, Quantity: qty})
	}
	return results, quantities, nil
}

func (s *service) record(kind enums.UploadKind, report *Report, start time.Time) {
	committed, failed := 0, len(report.Malformed)
	for _, r := range report.Results {
		if r.OK() {
			committed++
		} else {
			failed++
		}
	}
	s.metrics.AddCommitted(kind.String(), committed)
	s.metrics.AddFailed(kind.String(), failed)
	s.metrics.ObserveDuration(kind.String(), time.Since(start))
}
