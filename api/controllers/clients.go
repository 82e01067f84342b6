package controllers

import (
	"net/http"

	"github.com/retailgrid/backoffice/api/responses"
	"github.com/retailgrid/backoffice/api/validators"
	"github.com/retailgrid/backoffice/internal/clients"
	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/logger"
)

type createClientRequest struct {
	Name string `json:"name" validate:"required"`
}

func CreateClient(repo clients.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createClientRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := repo.Create(r.Context(), &models.Client{Name: req.Name})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func GetClient(repo clients.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "clientID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ListClients(repo clients.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
