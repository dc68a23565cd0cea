package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const defaultSweepTimeout = time.Minute

// TradeExpirer expires the negotiations that reached their time to live.
type TradeExpirer interface {
	ExpireStaleTrades(ctx context.Context) (int, error)
}

// Sweeper runs the expiration of stale trades on a cron schedule. Sweeps
// never overlap: a run is skipped if the previous one is still in progress.
type Sweeper struct {
	expirer  TradeExpirer
	schedule string
	cron     *cron.Cron

	lock    sync.Mutex
	started bool
}

func NewSweeper(expirer TradeExpirer, schedule string) (*Sweeper, error) {
	if expirer == nil {
		return nil, fmt.Errorf("missing trade expirer")
	}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %s", schedule, err)
	}

	s := &Sweeper{
		expirer:  expirer,
		schedule: schedule,
		cron:     c,
	}
	if _, err := c.AddFunc(schedule, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	log.Debugf("expiry sweeper started with schedule %s", s.schedule)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Sweeper) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	log.Debug("expiry sweeper stopped")
}

// SweepNow runs a sweep synchronously and returns the number of expired
// trades.
func (s *Sweeper) SweepNow(ctx context.Context) (int, error) {
	return s.expirer.ExpireStaleTrades(ctx)
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSweepTimeout)
	defer cancel()

	count, err := s.expirer.ExpireStaleTrades(ctx)
	if err != nil {
		log.WithError(err).Warn("expiry sweep failed")
		return
	}
	log.Debugf("expiry sweep completed, %d trade(s) expired", count)
}
