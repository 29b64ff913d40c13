package handler

import (
	"net/http"

	"roomly/internal/tenants/service"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TenantHandler struct {
	service service.TenantService
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		log:     log,
	}
}

func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := identify(w, r, ps)
	if !ok {
		return
	}

	tenant, err := h.service.GetByID(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandler) Checkout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := identify(w, r, ps)
	if !ok {
		return
	}

	tenant, err := h.service.Checkout(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandler) Terminate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := identify(w, r, ps)
	if !ok {
		return
	}

	var req model.TerminateRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.Terminate(r.Context(), id, actorID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandler) Extend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := identify(w, r, ps)
	if !ok {
		return
	}

	var req model.ExtendRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.Extend(r.Context(), id, actorID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenant)
}

func identify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (actorID, id string, ok bool) {
	actorID, err := httputil.ActorID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	id, err = httputil.PathID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	return actorID, id, true
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tenants/id/:id", h.GetByID)
	router.POST("/api/v1/tenants/id/:id/checkout", h.Checkout)
	router.POST("/api/v1/tenants/id/:id/terminate", h.Terminate)
	router.POST("/api/v1/tenants/id/:id/extend", h.Extend)
}
