package controllers

import (
	"net/http"

	"github.com/retailgrid/backoffice/api/responses"
	"github.com/retailgrid/backoffice/api/validators"
	"github.com/retailgrid/backoffice/internal/stock"
	"github.com/retailgrid/backoffice/pkg/logger"
)

func GetInventory(ledger stock.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := ledger.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ListInventory(ledger stock.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := ledger.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
