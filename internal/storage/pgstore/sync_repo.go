package pgstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/status"
)

// ClaimDueSyncs выбирает пачку активных заказов, которые пора обновить у
// провайдера, и "бронирует" их на lease, чтобы другой воркер их не взял.
// Использует SELECT ... FOR UPDATE SKIP LOCKED.
func (s *Storage) ClaimDueSyncs(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.SyncTarget, error) {
	var picked []*models.SyncTarget

	err := s.trm.DoWithSettings(ctx, syncTxSettings, func(ctx context.Context) error {
		rows, err := s.q.Query(ctx, `
SELECT id, provider_order_number, sync_fail_count, next_sync_at
FROM orders
WHERE next_sync_at IS NOT NULL
  AND next_sync_at <= $1
  AND provider_order_number <> ''
  AND status_category NOT IN ($2, $3)
ORDER BY next_sync_at ASC
LIMIT $4
FOR UPDATE SKIP LOCKED
`, now.UTC(), string(status.CategoryCompleted), string(status.CategoryCancelled), limit)
		if err != nil {
			return errors.Wrap(err, "select due syncs")
		}
		defer rows.Close()

		for rows.Next() {
			var t models.SyncTarget
			if err := rows.Scan(&t.OrderID, &t.ProviderOrderNumber, &t.SyncFailCount, &t.NextSyncAt); err != nil {
				return errors.Wrap(err, "scan due sync")
			}
			picked = append(picked, &t)
		}
		if rows.Err() != nil {
			return errors.Wrap(rows.Err(), "rows")
		}
		rows.Close()

		if len(picked) == 0 {
			return nil
		}

		ids := make([]string, 0, len(picked))
		leaseUntil := now.Add(lease).UTC()
		for _, t := range picked {
			ids = append(ids, t.OrderID)
			t.NextSyncAt = leaseUntil
		}

		query, args, err := qb.Update("orders").
			Set("next_sync_at", leaseUntil).
			Where(sq.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build lease update")
		}
		if _, err := s.q.Exec(ctx, query, args...); err != nil {
			return errors.Wrap(err, "lease due syncs")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return picked, nil
}
