package fake

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/status"
	"github.com/stretchr/testify/require"
)

func TestClient_Deterministic(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := &Client{now: func() time.Time { return fixed }}

	a, err := c.GetOrder(context.Background(), "PN-1")
	require.NoError(t, err)
	b, err := c.GetOrder(context.Background(), "PN-1")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.True(t, status.Normalize(a.State).Known())
	require.True(t, a.ActivityLog.PlacementTime.Valid())

	p, err := c.GetProgress(context.Background(), a.TrackingID)
	require.NoError(t, err)
	require.NotNil(t, p.Location)
}

func TestClient_Errors(t *testing.T) {
	c := New()
	require.True(t, c.HasCredentials())

	_, err := c.GetOrder(context.Background(), "")
	require.ErrorIs(t, err, provider.ErrOrderNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetOrder(ctx, "PN-1")
	require.ErrorIs(t, err, context.Canceled)
	_, err = c.GetProgress(ctx, "t")
	require.ErrorIs(t, err, context.Canceled)
}

var _ provider.Client = (*Client)(nil)
