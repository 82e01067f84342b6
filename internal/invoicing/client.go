package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"github.com/retailgrid/backoffice/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("invoice service base url is required")
	errLoggerRequired  = errors.New("invoice client logger is required")
)

// Generator renders an invoice document for an order and returns the path it
// was stored under.
type Generator interface {
	Generate(ctx context.Context, order *models.Order) (string, error)
}

// Client calls the external invoice-PDF microservice.
type Client struct {
	baseURL    string
	storageDir string
	http       *http.Client
	logger     *logger.Logger
}

// NewClient validates the invoice service configuration and builds the HTTP
// client used for invoice generation.
func NewClient(cfg config.InvoiceConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		storageDir: strings.Trim(cfg.StorageDir, "/"),
		http:       &http.Client{Timeout: timeout},
		logger:     logg,
	}, nil
}

type generateRequest struct {
	OrderID       uuid.UUID       `json:"order_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	StorageDir    string          `json:"storage_dir,omitempty"`
	Items         []invoiceLine   `json:"items"`
}

type invoiceLine struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type generateResponse struct {
	Path string `json:"path"`
}

// Generate posts the order to the invoice service and returns the stored
// document path.
func (c *Client) Generate(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	payload := generateRequest{
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		TotalAmount:   order.TotalAmount,
		StorageDir:    c.storageDir,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, invoiceLine{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode invoice request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build invoice request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call invoice service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn(ctx, fmt.Sprintf("invoice service returned %d: %s", resp.StatusCode, snippet))
		return "", pkgerrors.Newf(pkgerrors.CodeDependency,
			"invoice service returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode invoice response")
	}
	if strings.TrimSpace(out.Path) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "invoice service returned no path")
	}
	return out.Path, nil
}
