package tracking_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/services/fleetstats"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
)

type trackingMock struct {
	mock.Mock
}

func (m *trackingMock) GetTrackingSnapshot(ctx context.Context, id string) (*models.TrackingSnapshot, error) {
	args := m.Called(ctx, id)
	snap, _ := args.Get(0).(*models.TrackingSnapshot)
	return snap, args.Error(1)
}

type statsMock struct {
	mock.Mock
}

func (m *statsMock) ForBusiness(ctx context.Context, id string) (*fleetstats.Report, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*fleetstats.Report)
	return r, args.Error(1)
}

func (m *statsMock) ForDriver(ctx context.Context, id string) (*fleetstats.Report, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*fleetstats.Report)
	return r, args.Error(1)
}

func newServer(t *testing.T, tr TrackingService, st StatsService) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(tr, st, nil).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestGetTracking_OK(t *testing.T) {
	tm := &trackingMock{}
	placed := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	tm.On("GetTrackingSnapshot", mock.Anything, "ORD-1").Return(&models.TrackingSnapshot{
		OrderNumber:    "ORD-1",
		Status:         "IN_TRANSIT",
		StatusCategory: "in_transit",
		Progress:       75,
		PlacementTime:  placed,
		OrderItems:     []models.OrderItem{},
		Timeline:       []models.TimelineEvent{},
	}, nil)

	srv := newServer(t, tm, nil)
	resp, body := get(t, srv.URL+"/v1/tracking/ORD-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	require.Equal(t, "ORD-1", body["orderNumber"])
	require.Equal(t, "IN_TRANSIT", body["status"])
	require.EqualValues(t, 75, body["progress"])
	require.Nil(t, body["driver"])
	require.Nil(t, body["deliveryTime"])
	tm.AssertExpectations(t)
}

func TestGetTracking_UnencodableSnapshotIs500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	tm := &trackingMock{}
	tm.On("GetTrackingSnapshot", mock.Anything, "ORD-9").Return(&models.TrackingSnapshot{
		OrderNumber:   "ORD-9",
		PlacementTime: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	r := chi.NewRouter()
	New(tm, nil, zap.New(core)).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/tracking/ORD-9")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "internal error", body["error"])

	entries := logs.FilterMessage("encode response").All()
	require.Len(t, entries, 1)
	require.Equal(t, "/v1/tracking/ORD-9", entries[0].ContextMap()["path"])
}

func TestGetTracking_NotFound(t *testing.T) {
	tm := &trackingMock{}
	tm.On("GetTrackingSnapshot", mock.Anything, "nope").Return(nil, tracking.ErrOrderNotFound)

	resp, body := get(t, newServer(t, tm, nil).URL+"/v1/tracking/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "order not found", body["error"])
}

func TestGetTracking_StoreFailure(t *testing.T) {
	tm := &trackingMock{}
	tm.On("GetTrackingSnapshot", mock.Anything, "ORD-1").Return(nil, errors.Wrap(errors.New("conn refused"), "find order"))

	resp, body := get(t, newServer(t, tm, nil).URL+"/v1/tracking/ORD-1")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotContains(t, body["error"], "conn refused")
}

func TestStats_Routes(t *testing.T) {
	sm := &statsMock{}
	sm.On("ForBusiness", mock.Anything, "biz-1").Return(&fleetstats.Report{TotalOrders: 3, SuccessRate: 66.7, Trend: fleetstats.TrendUp}, nil)
	sm.On("ForDriver", mock.Anything, "drv-1").Return(nil, errors.New("db down"))

	srv := newServer(t, &trackingMock{}, sm)

	resp, body := get(t, srv.URL+"/v1/stats/businesses/biz-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 3, body["totalOrders"])
	require.Equal(t, 66.7, body["successRate"])
	require.Equal(t, "up", body["trend"])

	resp, _ = get(t, srv.URL+"/v1/stats/drivers/drv-1")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	sm.AssertExpectations(t)
}

func TestStats_EmptyID(t *testing.T) {
	sm := &statsMock{}
	sm.On("ForBusiness", mock.Anything, " ").Return(nil, fleetstats.ErrEmptyID)

	resp, body := get(t, newServer(t, &trackingMock{}, sm).URL+"/v1/stats/businesses/%20")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "businessId is required", body["error"])
}

func TestStats_NotRegisteredWithoutService(t *testing.T) {
	resp, err := http.Get(newServer(t, &trackingMock{}, nil).URL + "/v1/stats/businesses/biz-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
