package handler

import (
	"context"
	"net/http"

	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type OccupancyInspector interface {
	Inspect(ctx context.Context, roomID string) (*model.RoomOccupancy, error)
}

// OccupancyHandler exposes the live recount of a room next to its stored flags.
type OccupancyHandler struct {
	inspector OccupancyInspector
	log       *logger.Logger
}

func NewOccupancyHandler(inspector OccupancyInspector, log *logger.Logger) *OccupancyHandler {
	return &OccupancyHandler{
		inspector: inspector,
		log:       log,
	}
}

func (h *OccupancyHandler) GetOccupancy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.PathID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.inspector.Inspect(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if result.Drift {
		h.log.Warn("room occupancy drift observed", "room_id", id, "active_count", result.ActiveCount)
	}
	httputil.WriteSuccess(w, result)
}

func (h *OccupancyHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms/id/:id/occupancy", h.GetOccupancy)
}
