package tracking_api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/logger"
	"github.com/BearBump/OrderTrack/internal/services/fleetstats"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
)

type TrackingService interface {
	GetTrackingSnapshot(ctx context.Context, identifier string) (*models.TrackingSnapshot, error)
}

type StatsService interface {
	ForBusiness(ctx context.Context, businessID string) (*fleetstats.Report, error)
	ForDriver(ctx context.Context, driverID string) (*fleetstats.Report, error)
}

type TrackingAPI struct {
	tracking TrackingService
	stats    StatsService
	log      *zap.Logger
}

func New(tracking TrackingService, stats StatsService, log *zap.Logger) *TrackingAPI {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrackingAPI{tracking: tracking, stats: stats, log: log}
}

// Register вешает публичные маршруты на r.
func (a *TrackingAPI) Register(r chi.Router) {
	r.Get("/v1/tracking/{orderId}", a.GetTracking)
	if a.stats != nil {
		r.Get("/v1/stats/businesses/{businessId}", a.GetBusinessStats)
		r.Get("/v1/stats/drivers/{driverId}", a.GetDriverStats)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *TrackingAPI) GetTracking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")

	snap, err := a.tracking.GetTrackingSnapshot(r.Context(), id)
	switch {
	case errors.Is(err, tracking.ErrOrderNotFound):
		a.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	case err != nil:
		logger.FromContext(r.Context(), a.log).Error("get tracking snapshot", zap.String("order_id", id), zap.Error(err))
		a.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "tracking temporarily unavailable"})
		return
	}

	a.writeJSON(w, r, http.StatusOK, snap)
}

func (a *TrackingAPI) GetBusinessStats(w http.ResponseWriter, r *http.Request) {
	a.writeStats(w, r, "businessId", a.stats.ForBusiness)
}

func (a *TrackingAPI) GetDriverStats(w http.ResponseWriter, r *http.Request) {
	a.writeStats(w, r, "driverId", a.stats.ForDriver)
}

func (a *TrackingAPI) writeStats(
	w http.ResponseWriter,
	r *http.Request,
	param string,
	load func(ctx context.Context, id string) (*fleetstats.Report, error),
) {
	id := chi.URLParam(r, param)

	rep, err := load(r.Context(), id)
	switch {
	case errors.Is(err, fleetstats.ErrEmptyID):
		a.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: param + " is required"})
		return
	case err != nil:
		logger.FromContext(r.Context(), a.log).Error("fleet stats", zap.String(param, id), zap.Error(err))
		a.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "stats temporarily unavailable"})
		return
	}

	a.writeJSON(w, r, http.StatusOK, rep)
}

// writeJSON кодирует тело до WriteHeader, иначе ошибка кодирования
// превратится в пустой ответ с уже отправленным статусом.
func (a *TrackingAPI) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context(), a.log).Error("encode response",
			zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
		code = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "internal error"})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.FromContext(r.Context(), a.log).Debug("write response", zap.Error(err))
	}
}
