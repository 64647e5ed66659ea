package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/OrderTrack/internal/api/tracking_api"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
)

type fakeTracking struct{}

func (fakeTracking) GetTrackingSnapshot(ctx context.Context, id string) (*models.TrackingSnapshot, error) {
	if id == "ord-1" {
		return &models.TrackingSnapshot{OrderNumber: "ord-1"}, nil
	}
	return nil, tracking.ErrOrderNotFound
}

type fakeConsumer struct {
	err error
}

func (c fakeConsumer) Consume(ctx context.Context, handler kafka.Handler) error {
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func writeSwagger(t *testing.T) string {
	t.Helper()
	sw := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	return sw
}

func startTrackAPI(t *testing.T, deps trackAPIDeps) (string, context.CancelFunc, chan error) {
	t.Helper()
	addrCh := make(chan string, 1)
	opts := trackAPIOpts{
		httpAddr:       "127.0.0.1:0",
		swaggerPath:    writeSwagger(t),
		requestTimeout: time.Second,
		onListen:       func(addr string) { addrCh <- addr },
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runTrackAPI(ctx, opts, deps) }()

	select {
	case addr := <-addrCh:
		return "http://" + addr, cancel, errCh
	case err := <-errCh:
		cancel()
		t.Fatalf("track-api exited early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("timeout waiting listener")
	}
	return "", cancel, errCh
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRunTrackAPI_Routes(t *testing.T) {
	deps := trackAPIDeps{
		api:      tracking_api.New(fakeTracking{}, nil, nil),
		consumer: fakeConsumer{},
		handler:  func(ctx context.Context, key, value []byte) error { return nil },
		ready: []readyCheck{
			{name: "postgres", check: func(ctx context.Context) error { return nil }},
		},
	}
	base, cancel, errCh := startTrackAPI(t, deps)

	code, body := getBody(t, base+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "ok")

	code, _ = getBody(t, base+"/readyz")
	require.Equal(t, http.StatusOK, code)

	code, body = getBody(t, base+"/swagger.json")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"swagger"`)

	code, body = getBody(t, base+"/v1/tracking/ord-1")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "ord-1")

	code, _ = getBody(t, base+"/v1/tracking/missing")
	require.Equal(t, http.StatusNotFound, code)

	code, body = getBody(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "go_goroutines")

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting track-api to stop")
	}
}

func TestRunTrackAPI_ReadyzFailsOnDependency(t *testing.T) {
	deps := trackAPIDeps{
		api: tracking_api.New(fakeTracking{}, nil, nil),
		ready: []readyCheck{
			{name: "redis", check: func(ctx context.Context) error { return errors.New("connection refused") }},
		},
	}
	base, cancel, _ := startTrackAPI(t, deps)
	defer cancel()

	code, body := getBody(t, base+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, body, "redis")
	require.Contains(t, body, "connection refused")
}

func TestRunTrackAPI_ConsumerErrorStopsApp(t *testing.T) {
	opts := trackAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: writeSwagger(t),
	}
	deps := trackAPIDeps{
		api:      tracking_api.New(fakeTracking{}, nil, nil),
		consumer: fakeConsumer{err: errors.New("broker down")},
		handler:  func(ctx context.Context, key, value []byte) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := runTrackAPI(ctx, opts, deps)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broker down")
}

func TestRunTrackAPI_SwaggerRequired(t *testing.T) {
	err := runTrackAPI(context.Background(), trackAPIOpts{httpAddr: "127.0.0.1:0"}, trackAPIDeps{})
	require.Error(t, err)

	err = runTrackAPI(context.Background(), trackAPIOpts{httpAddr: "127.0.0.1:0", swaggerPath: "/nope/swagger.json"}, trackAPIDeps{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "swagger file not found")
}

func TestMillis(t *testing.T) {
	require.Equal(t, 3*time.Second, millis(0, 3*time.Second))
	require.Equal(t, 250*time.Millisecond, millis(250, time.Second))
}
