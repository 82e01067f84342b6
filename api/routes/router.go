package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailgrid/backoffice/api/controllers"
	"github.com/retailgrid/backoffice/api/middleware"
	"github.com/retailgrid/backoffice/internal/bulkupload"
	"github.com/retailgrid/backoffice/internal/clients"
	"github.com/retailgrid/backoffice/internal/orderitems"
	"github.com/retailgrid/backoffice/internal/orders"
	"github.com/retailgrid/backoffice/internal/products"
	"github.com/retailgrid/backoffice/internal/reports"
	"github.com/retailgrid/backoffice/internal/stock"
	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/logger"
	"github.com/retailgrid/backoffice/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	ordersService orders.Service,
	itemsService orderitems.Service,
	productsService products.Service,
	clientsRepo clients.Repository,
	ledger stock.Ledger,
	uploadsService bulkupload.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cacheP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(ordersService, logg))
			r.Patch("/{orderID}", controllers.UpdateOrder(ordersService, logg))
			r.Delete("/{orderID}", controllers.DeleteOrder(ordersService, logg))
			r.Post("/{orderID}/invoice", controllers.InvoiceOrder(ordersService, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(ordersService, logg))

			r.Route("/{orderID}/items", func(r chi.Router) {
				r.Get("/", controllers.ListOrderItems(itemsService, logg))
				r.Post("/", controllers.AddOrderItem(itemsService, logg))
				r.Patch("/{itemID}", controllers.UpdateOrderItem(itemsService, logg))
				r.Delete("/{itemID}", controllers.DeleteOrderItem(itemsService, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(productsService, logg))
			r.Get("/", controllers.ListProducts(productsService, logg))
			r.Get("/{productID}", controllers.GetProduct(productsService, logg))
			r.Patch("/{productID}", controllers.UpdateProduct(productsService, logg))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", controllers.CreateClient(clientsRepo, logg))
			r.Get("/", controllers.ListClients(clientsRepo, logg))
			r.Get("/{clientID}", controllers.GetClient(clientsRepo, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventory(ledger, logg))
			r.Get("/{productID}", controllers.GetInventory(ledger, logg))
		})

		r.Post("/uploads/{kind}", controllers.Upload(uploadsService, cfg.Upload, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", controllers.SalesReport(reportsService, logg))
			r.Get("/inventory", controllers.InventoryReport(reportsService, logg))
		})
	})

	return r
}
