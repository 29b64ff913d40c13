package handler

import (
	"net/http"

	"roomly/internal/bookings/service"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// Create is called by the payment flow once the gateway has captured payment.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := httputil.DecodeJSON(r, &booking, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := h.identify(w, r, ps)
	if !ok {
		return
	}

	booking, err := h.service.GetByID(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := h.identify(w, r, ps)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), id, actorID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) FinalizeCheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := h.identify(w, r, ps)
	if !ok {
		return
	}

	result, err := h.service.FinalizeCheckIn(r.Context(), id, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

// Cancel soft deletes the booking. The body with a reason is optional.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID, id, ok := h.identify(w, r, ps)
	if !ok {
		return
	}

	var req model.CancelRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), id, actorID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) identify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (actorID, id string, ok bool) {
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

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/status", h.UpdateStatus)
	router.POST("/api/v1/bookings/id/:id/finalize-check-in", h.FinalizeCheckIn)
	router.DELETE("/api/v1/bookings/id/:id", h.Cancel)
}
