// Package occupancy keeps each room's availability in line with its active
// bookings. Availability is always recomputed from a fresh count; it is never
// incremented or decremented.
package occupancy

import (
	"context"
	"sync"

	roomserrors "roomly/internal/rooms/errors"
	mongotx "roomly/pkg/db/mongo"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/metrics"
	"roomly/pkg/model"

	"golang.org/x/sync/errgroup"
)

const (
	OutcomeAvailable     = "available"
	OutcomeFull          = "full"
	OutcomeDriftRepaired = "drift_repaired"
	OutcomeError         = "error"
)

// ActiveCounter counts bookings that currently hold a slot in a room.
type ActiveCounter interface {
	CountActiveByRoom(ctx context.Context, roomID string) (int64, error)
}

type RoomStore interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	ListIDs(ctx context.Context) ([]string, error)
	Lock(ctx context.Context, id string) (*model.Room, error)
	UpdateAvailability(ctx context.Context, id string, isAvailable bool, status model.RoomStatus) error
}

// Evaluate decides a room's availability from its active booking count and
// capacity. A room with zero capacity is always full.
func Evaluate(activeCount int64, occupancy int) (isAvailable bool, status model.RoomStatus) {
	isFull := occupancy <= 0 || activeCount >= int64(occupancy)
	if isFull {
		return false, model.RoomFull
	}
	return true, model.RoomAvailable
}

type Reconciler struct {
	rooms     RoomStore
	bookings  ActiveCounter
	txManager mongotx.TransactionManager
	log       *logger.Logger
}

func NewReconciler(rooms RoomStore, bookings ActiveCounter, txManager mongotx.TransactionManager, log *logger.Logger) *Reconciler {
	return &Reconciler{
		rooms:     rooms,
		bookings:  bookings,
		txManager: txManager,
		log:       log,
	}
}

// Inspect recounts a room without writing anything.
func (r *Reconciler) Inspect(ctx context.Context, roomID string) (*model.RoomOccupancy, error) {
	room, err := r.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return r.evaluate(ctx, room)
}

// Reconcile recounts the room's active bookings and persists the derived
// availability. Callers that are mutating bookings run it inside their own
// transaction after locking the room. The stored flags still describe the room
// before the mutation at that point, so a change is an expected transition and
// is never reported as drift.
func (r *Reconciler) Reconcile(ctx context.Context, roomID string) (*model.RoomOccupancy, error) {
	return r.reconcile(ctx, roomID, false)
}

// Repair locks the room and reconciles it in a transaction of its own. Any
// difference between the stored flags and the recount is reported as drift.
func (r *Reconciler) Repair(ctx context.Context, roomID string) (*model.RoomOccupancy, error) {
	var result *model.RoomOccupancy
	err := r.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if _, err := r.rooms.Lock(txCtx, roomID); err != nil {
			return mapRoomError(roomID, err)
		}
		var err error
		result, err = r.reconcile(txCtx, roomID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, roomID string, detectDrift bool) (*model.RoomOccupancy, error) {
	room, err := r.findRoom(ctx, roomID)
	if err != nil {
		metrics.ObserveReconciliation(OutcomeError)
		return nil, err
	}

	result, err := r.evaluate(ctx, room)
	if err != nil {
		metrics.ObserveReconciliation(OutcomeError)
		return nil, err
	}
	if !detectDrift {
		result.Drift = false
	}

	if err := r.rooms.UpdateAvailability(ctx, roomID, result.IsAvailable, result.RoomStatus); err != nil {
		metrics.ObserveReconciliation(OutcomeError)
		return nil, mapRoomError(roomID, err)
	}

	log := r.log.ForRoom(roomID)
	switch {
	case result.Drift:
		metrics.ObserveReconciliation(OutcomeDriftRepaired)
		log.Warn("room availability drift repaired",
			"active_count", result.ActiveCount,
			"occupancy", result.Occupancy,
			"stored_is_available", room.IsAvailable,
			"is_available", result.IsAvailable,
		)
	case result.IsAvailable:
		metrics.ObserveReconciliation(OutcomeAvailable)
	default:
		metrics.ObserveReconciliation(OutcomeFull)
	}

	log.Debug("room reconciled",
		"active_count", result.ActiveCount,
		"occupancy", result.Occupancy,
		"is_available", result.IsAvailable,
	)
	return result, nil
}

type Report struct {
	Rooms   int                   `json:"rooms"`
	Drifted []model.RoomOccupancy `json:"drifted"`
	Failed  map[string]string     `json:"failed,omitempty"`
}

// ReconcileAll repairs every room, at most concurrency at a time. A failing
// room is recorded in the report and does not stop the sweep.
func (r *Reconciler) ReconcileAll(ctx context.Context, concurrency int) (*Report, error) {
	ids, err := r.rooms.ListIDs(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list rooms", err)
	}

	report := &Report{Rooms: len(ids), Failed: map[string]string{}}
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, roomID := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := r.Repair(ctx, roomID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[roomID] = err.Error()
				r.log.ForRoom(roomID).Error("room reconciliation failed", "error", err)
				return nil
			}
			if result.Drift {
				report.Drifted = append(report.Drifted, *result)
			}
			return nil
		})
	}
	_ = g.Wait()

	r.log.Info("occupancy sweep finished",
		"rooms", report.Rooms,
		"drifted", len(report.Drifted),
		"failed", len(report.Failed),
	)
	return report, ctx.Err()
}

func (r *Reconciler) findRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := r.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapRoomError(roomID, err)
	}
	return room, nil
}

func (r *Reconciler) evaluate(ctx context.Context, room *model.Room) (*model.RoomOccupancy, error) {
	count, err := r.bookings.CountActiveByRoom(ctx, room.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to count active bookings", err)
	}

	isAvailable, status := Evaluate(count, room.Occupancy)
	// Maintenance is set by property management and survives recounts.
	// IsAvailable still follows the count; see model.Room.
	if room.RoomStatus == model.RoomMaintenance {
		status = model.RoomMaintenance
	}

	return &model.RoomOccupancy{
		RoomID:      room.ID,
		Occupancy:   room.Occupancy,
		ActiveCount: count,
		IsAvailable: isAvailable,
		RoomStatus:  status,
		Drift:       room.IsAvailable != isAvailable || room.RoomStatus != status,
	}, nil
}

func mapRoomError(roomID string, err error) error {
	return roomserrors.ToAppError(roomID, err, "Failed to update room")
}
