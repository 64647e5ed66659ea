package pgstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/status"
)

const maxListLimit = 2000

// FindOrder ищет заказ по id, затем по order_number, затем по provider_order_number.
func (s *Storage) FindOrder(ctx context.Context, identifier string) (*models.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, models.ErrNotFound
	}

	row := s.q.QueryRow(ctx, `
SELECT id, doc, created_at, updated_at
FROM orders
WHERE id = $1 OR order_number = $1 OR provider_order_number = $1
ORDER BY (id = $1) DESC, (order_number = $1) DESC, created_at DESC
LIMIT 1
`, identifier)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}
	return o, nil
}

func (s *Storage) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	b := qb.Select("id", "doc", "created_at", "updated_at").From("orders")
	switch {
	case f.BusinessID != "":
		b = b.Where(sq.Eq{"business_id": f.BusinessID})
	case f.DriverID != "":
		b = b.Where(sq.Eq{"driver_id": f.DriverID})
	default:
		return nil, errors.New("list orders: empty filter")
	}
	if !f.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": f.Since.UTC()})
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	b = b.OrderBy("created_at DESC").Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list orders")
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpsertOrder сохраняет документ заказа целиком. Заказ с номером провайдера
// сразу попадает в расписание синхронизации.
func (s *Storage) UpsertOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	doc, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}

	st := status.Normalize(o.Status)
	var nextSync *time.Time
	if o.ProviderOrderNumber != "" && !status.IsTerminal(st) {
		nextSync = &now
	}

	query, args, err := qb.Insert("orders").
		Columns("id", "order_number", "provider_order_number", "business_id", "driver_id",
			"status_category", "doc", "next_sync_at", "created_at", "updated_at").
		Values(o.ID, o.OrderNumber, o.ProviderOrderNumber, o.BusinessID, o.DriverID,
			string(status.CategoryOf(st)), doc, nextSync, o.CreatedAt.UTC(), now).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
  order_number = EXCLUDED.order_number,
  provider_order_number = EXCLUDED.provider_order_number,
  business_id = EXCLUDED.business_id,
  driver_id = EXCLUDED.driver_id,
  status_category = EXCLUDED.status_category,
  doc = EXCLUDED.doc,
  next_sync_at = COALESCE(orders.next_sync_at, EXCLUDED.next_sync_at),
  updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build upsert order")
	}

	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return errors.Wrap(err, "upsert order")
	}
	return nil
}

func (s *Storage) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	var doc []byte
	err := s.q.QueryRow(ctx, `SELECT doc FROM drivers WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select driver")
	}

	var d models.Driver
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, errors.Wrap(err, "decode driver")
	}
	d.ID = id
	return &d, nil
}

func (s *Storage) UpsertDriver(ctx context.Context, d *models.Driver) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	doc, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "marshal driver")
	}
	_, err = s.q.Exec(ctx, `
INSERT INTO drivers (id, doc, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
`, d.ID, doc)
	if err != nil {
		return errors.Wrap(err, "upsert driver")
	}
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		id        string
		doc       []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &doc, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var o models.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	o.ID = id
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
	return &o, nil
}
