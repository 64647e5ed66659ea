package pgstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/internal/pkg/retrier"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	maxConns        = 10
	minConns        = 2
	maxConnLifetime = time.Hour
)

type Storage struct {
	db  *pgxpool.Pool
	q   *querier
	trm *manager.Manager
	log *zap.Logger
}

func New(ctx context.Context, connString string, log *zap.Logger) (*Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	if err := ping(ctx, log, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Storage{
		db:  db,
		q:   newQuerier(db, pgxv5.DefaultCtxGetter),
		trm: manager.Must(pgxv5.NewDefaultFactory(db)),
		log: log,
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Postgres в docker compose поднимается не сразу.
func ping(ctx context.Context, log *zap.Logger, db *pgxpool.Pool) error {
	r := retrier.New(retrier.Config{
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  time.Minute,
		Randomization:   0.5,
		Multiplier:      2,
	})

	var attempt int
	err := r.ExecuteWithContext(ctx, func(ctx context.Context) error {
		attempt++
		log.Debug("pinging postgres", zap.Int("attempt", attempt))
		return db.Ping(ctx)
	})
	if err != nil {
		log.Error("postgres unreachable", zap.Int("attempts", attempt), zap.Error(err))
		return errors.Wrap(err, "ping pg")
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
