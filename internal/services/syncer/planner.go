package syncer

import (
	"math/rand"
	"time"

	"github.com/BearBump/OrderTrack/internal/status"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	PendingDelay time.Duration // default: 2 minutes

	ActiveMinDelay time.Duration // default: 30 seconds
	ActiveMaxDelay time.Duration // default: 60 seconds

	UnknownDelay time.Duration // default: 5 minutes

	Backoff1 time.Duration // default: 1 minute
	Backoff2 time.Duration // default: 5 minutes
	Backoff3 time.Duration // default: 15 minutes
	Backoff4 time.Duration // default: 30 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		PendingDelay: 2 * time.Minute,

		ActiveMinDelay: 30 * time.Second,
		ActiveMaxDelay: 60 * time.Second,

		UnknownDelay: 5 * time.Minute,

		Backoff1: 1 * time.Minute,
		Backoff2: 5 * time.Minute,
		Backoff3: 15 * time.Minute,
		Backoff4: 30 * time.Minute,
	}
}

type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.PendingDelay <= 0 {
		cfg.PendingDelay = def.PendingDelay
	}
	if cfg.ActiveMinDelay <= 0 {
		cfg.ActiveMinDelay = def.ActiveMinDelay
	}
	if cfg.ActiveMaxDelay <= 0 {
		cfg.ActiveMaxDelay = def.ActiveMaxDelay
	}
	if cfg.ActiveMaxDelay < cfg.ActiveMinDelay {
		cfg.ActiveMaxDelay = cfg.ActiveMinDelay
	}
	if cfg.UnknownDelay <= 0 {
		cfg.UnknownDelay = def.UnknownDelay
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

// NextSyncDelay возвращает паузу до следующей синхронизации.
// ok=false: заказ в терминальном статусе, больше не синхронизируем.
func (p *Planner) NextSyncDelay(s status.Status) (time.Duration, bool) {
	switch status.CategoryOf(s) {
	case status.CategoryCompleted, status.CategoryCancelled:
		return 0, false
	case status.CategoryPending:
		return p.cfg.PendingDelay, true
	case status.CategoryAssigned, status.CategoryPickedUp, status.CategoryInTransit:
		return p.jitter(p.cfg.ActiveMinDelay, p.cfg.ActiveMaxDelay), true
	default:
		return p.cfg.UnknownDelay, true
	}
}

func (p *Planner) jitter(min, max time.Duration) time.Duration {
	if max == min {
		return min
	}
	secMin := int(min.Seconds())
	secMax := int(max.Seconds())
	if secMin < 0 {
		secMin = 0
	}
	if secMax < secMin {
		secMax = secMin
	}
	return time.Duration(secMin+p.r.Intn(secMax-secMin+1)) * time.Second
}

func (p *Planner) BackoffDelay(nextFailCount int32) time.Duration {
	switch {
	case nextFailCount <= 1:
		return p.cfg.Backoff1
	case nextFailCount == 2:
		return p.cfg.Backoff2
	case nextFailCount == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
