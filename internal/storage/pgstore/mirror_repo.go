package pgstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/avito-tech/go-transaction-manager/trm/settings"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/OrderTrack/internal/models"
)

// ProviderSync хранит результат одной попытки синхронизации заказа с провайдером.
type ProviderSync struct {
	OrderID             string
	ProviderOrderNumber string

	SyncedAt time.Time

	// Order == nil и Error != nil: провайдер не ответил.
	Order *models.ProviderOrder

	// NextSyncAt == nil снимает заказ с расписания.
	NextSyncAt *time.Time

	Error *string
}

var syncTxSettings = pgxv5.MustSettings(
	settings.Must(),
	pgxv5.WithTxOptions(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
)

func (s *Storage) GetProviderOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	var doc []byte
	err := s.q.QueryRow(ctx, `SELECT doc FROM provider_orders WHERE order_number = $1`, orderNumber).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select provider order")
	}

	var po models.ProviderOrder
	if err := json.Unmarshal(doc, &po); err != nil {
		return nil, errors.Wrap(err, "decode provider order")
	}
	return &po, nil
}

func (s *Storage) GetCarrier(ctx context.Context, id int64) (*models.Carrier, error) {
	var doc []byte
	err := s.q.QueryRow(ctx, `SELECT doc FROM provider_carriers WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select carrier")
	}

	var c models.Carrier
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, errors.Wrap(err, "decode carrier")
	}
	return &c, nil
}

// ApplyProviderSync пишет зеркало и расписание заказа в одной транзакции.
// Устаревшие снимки (synced_at старше сохранённого) не перезаписывают зеркало.
func (s *Storage) ApplyProviderSync(ctx context.Context, upd ProviderSync) error {
	return s.trm.DoWithSettings(ctx, syncTxSettings, func(ctx context.Context) error {
		if upd.Error != nil && *upd.Error != "" {
			_, err := s.q.Exec(ctx, `
UPDATE orders
SET
  last_synced_at = $2,
  sync_fail_count = sync_fail_count + 1,
  last_sync_error = $3,
  next_sync_at = $4,
  updated_at = now()
WHERE id = $1
`, upd.OrderID, upd.SyncedAt.UTC(), *upd.Error, upd.NextSyncAt)
			if err != nil {
				return errors.Wrap(err, "update order sync (error)")
			}
			return nil
		}

		if upd.Order != nil {
			if err := s.upsertProviderOrder(ctx, upd); err != nil {
				return err
			}
		}

		_, err := s.q.Exec(ctx, `
UPDATE orders
SET
  last_synced_at = $2,
  sync_fail_count = 0,
  last_sync_error = NULL,
  next_sync_at = $3,
  updated_at = now()
WHERE id = $1
`, upd.OrderID, upd.SyncedAt.UTC(), upd.NextSyncAt)
		if err != nil {
			return errors.Wrap(err, "update order sync (ok)")
		}
		return nil
	})
}

func (s *Storage) upsertProviderOrder(ctx context.Context, upd ProviderSync) error {
	number := upd.ProviderOrderNumber
	if number == "" {
		number = upd.Order.OrderNumber
	}
	doc, err := json.Marshal(upd.Order)
	if err != nil {
		return errors.Wrap(err, "marshal provider order")
	}

	_, err = s.q.Exec(ctx, `
INSERT INTO provider_orders (order_number, doc, synced_at)
VALUES ($1, $2, $3)
ON CONFLICT (order_number) DO UPDATE
SET doc = EXCLUDED.doc, synced_at = EXCLUDED.synced_at
WHERE provider_orders.synced_at <= EXCLUDED.synced_at
`, number, doc, upd.SyncedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upsert provider order")
	}

	c := upd.Order.AssignedCarrier
	if c == nil || c.ID == 0 {
		return nil
	}

	cdoc, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal carrier")
	}
	_, err = s.q.Exec(ctx, `
INSERT INTO provider_carriers (id, doc, synced_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET doc = EXCLUDED.doc, synced_at = EXCLUDED.synced_at
WHERE provider_carriers.synced_at <= EXCLUDED.synced_at
`, c.ID, cdoc, upd.SyncedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upsert carrier")
	}

	// id перевозчика на самом заказе нужен для поиска по зеркалу перевозчиков.
	_, err = s.q.Exec(ctx, `
UPDATE orders
SET doc = jsonb_set(doc, '{assignedCarrierId}', to_jsonb($2::bigint))
WHERE id = $1
`, upd.OrderID, c.ID)
	if err != nil {
		return errors.Wrap(err, "set assigned carrier")
	}
	return nil
}
