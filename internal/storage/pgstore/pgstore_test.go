package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BearBump/OrderTrack/internal/models"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "ordertrack_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/ordertrack_test?sslmode=disable"
	st, err := New(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGStore_Flow(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.Ping(ctx))

	// повторная миграция ничего не ломает
	require.NoError(t, st.migrate(ctx))

	placed := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	active := &models.Order{
		ID:                  "ord-1",
		OrderNumber:         "A-100",
		ProviderOrderNumber: "DN-555",
		BusinessID:          "biz-1",
		DriverID:            pointer.ToString("drv-1"),
		Status:              "in_transit",
		Customer:            models.Party{Name: "Ana"},
		ActivityLog:         &models.ActivityLog{PlacementTime: models.NewFlexTime(placed)},
		CreatedAt:           time.Now().UTC().Add(-time.Hour),
	}
	done := &models.Order{
		ID:                  "ord-2",
		OrderNumber:         "A-101",
		ProviderOrderNumber: "DN-556",
		BusinessID:          "biz-1",
		Status:              "DELIVERED",
		CreatedAt:           time.Now().UTC().Add(-2 * time.Hour),
	}
	other := &models.Order{ID: "ord-3", OrderNumber: "B-1", BusinessID: "biz-2", Status: "pending"}
	for _, o := range []*models.Order{active, done, other} {
		require.NoError(t, st.UpsertOrder(ctx, o))
	}

	t.Run("find by every identifier", func(t *testing.T) {
		for _, id := range []string{"ord-1", "A-100", "DN-555", "  A-100 "} {
			o, err := st.FindOrder(ctx, id)
			require.NoError(t, err, id)
			require.Equal(t, "ord-1", o.ID)
			require.Equal(t, "Ana", o.Customer.Name)
			require.True(t, o.ActivityLog.PlacementTime.Equal(placed))
		}

		_, err := st.FindOrder(ctx, "nope")
		require.ErrorIs(t, err, models.ErrNotFound)
		_, err = st.FindOrder(ctx, "")
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("list orders", func(t *testing.T) {
		list, err := st.ListOrders(ctx, models.OrderFilter{BusinessID: "biz-1", Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "ord-1", list[0].ID)

		list, err = st.ListOrders(ctx, models.OrderFilter{DriverID: "drv-1", Since: time.Now().Add(-24 * time.Hour)})
		require.NoError(t, err)
		require.Len(t, list, 1)

		_, err = st.ListOrders(ctx, models.OrderFilter{})
		require.Error(t, err)
	})

	t.Run("drivers", func(t *testing.T) {
		require.NoError(t, st.UpsertDriver(ctx, &models.Driver{ID: "drv-1", Name: "Luis", AverageRating: 4.7}))
		d, err := st.GetDriver(ctx, "drv-1")
		require.NoError(t, err)
		require.Equal(t, "Luis", d.Name)
		require.Equal(t, 4.7, d.AverageRating)

		_, err = st.GetDriver(ctx, "drv-x")
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("claim and apply sync", func(t *testing.T) {
		now := time.Now().UTC().Add(time.Second)
		lease := 30 * time.Second

		due, err := st.ClaimDueSyncs(ctx, now, 10, lease)
		require.NoError(t, err)
		require.Len(t, due, 1)
		require.Equal(t, "ord-1", due[0].OrderID)
		require.Equal(t, "DN-555", due[0].ProviderOrderNumber)
		require.WithinDuration(t, now.Add(lease), due[0].NextSyncAt, time.Second)

		again, err := st.ClaimDueSyncs(ctx, now, 10, lease)
		require.NoError(t, err)
		require.Empty(t, again)

		_, err = st.GetProviderOrder(ctx, "DN-555")
		require.ErrorIs(t, err, models.ErrNotFound)

		next := now.Add(time.Minute)
		require.NoError(t, st.ApplyProviderSync(ctx, ProviderSync{
			OrderID:             "ord-1",
			ProviderOrderNumber: "DN-555",
			SyncedAt:            now,
			NextSyncAt:          &next,
			Order: &models.ProviderOrder{
				OrderID:     9001,
				OrderNumber: "DN-555",
				State:       "AT_PICKUP",
				AssignedCarrier: &models.Carrier{
					ID: 77, Name: "Carlos", PhoneNumber: "+57 300",
				},
			},
		}))

		po, err := st.GetProviderOrder(ctx, "DN-555")
		require.NoError(t, err)
		require.Equal(t, "AT_PICKUP", po.State)

		c, err := st.GetCarrier(ctx, 77)
		require.NoError(t, err)
		require.Equal(t, "Carlos", c.Name)

		o, err := st.FindOrder(ctx, "ord-1")
		require.NoError(t, err)
		require.NotNil(t, o.AssignedCarrierID)
		require.Equal(t, int64(77), *o.AssignedCarrierID)

		// старый снимок не перетирает новый
		require.NoError(t, st.ApplyProviderSync(ctx, ProviderSync{
			OrderID:             "ord-1",
			ProviderOrderNumber: "DN-555",
			SyncedAt:            now.Add(-time.Hour),
			NextSyncAt:          &next,
			Order:               &models.ProviderOrder{OrderNumber: "DN-555", State: "NOT_ASSIGNED"},
		}))
		po, err = st.GetProviderOrder(ctx, "DN-555")
		require.NoError(t, err)
		require.Equal(t, "AT_PICKUP", po.State)

		retryAt := now.Add(5 * time.Minute)
		require.NoError(t, st.ApplyProviderSync(ctx, ProviderSync{
			OrderID:    "ord-1",
			SyncedAt:   now,
			NextSyncAt: &retryAt,
			Error:      pointer.ToString("provider down"),
		}))

		var fails int32
		var lastErr *string
		require.NoError(t, st.db.QueryRow(ctx,
			`SELECT sync_fail_count, last_sync_error FROM orders WHERE id = 'ord-1'`).Scan(&fails, &lastErr))
		require.Equal(t, int32(1), fails)
		require.Equal(t, "provider down", *lastErr)

		due, err = st.ClaimDueSyncs(ctx, retryAt.Add(time.Second), 10, lease)
		require.NoError(t, err)
		require.Len(t, due, 1)
		require.Equal(t, int32(1), due[0].SyncFailCount)
	})
}
