package chat

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts idle sessions.
type Sweeper struct {
	cron     *cron.Cron
	svc      *Service
	interval time.Duration
	ttl      time.Duration
}

// NewSweeper schedules eviction of sessions idle for longer than ttl every interval.
func NewSweeper(svc *Service, interval, ttl time.Duration) *Sweeper {
	return &Sweeper{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		svc:      svc,
		interval: interval,
		ttl:      ttl,
	}
}

// Start registers the job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.Sweep); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("[sweeper] started interval=%s ttl=%s", s.interval, s.ttl)
	return nil
}

// Sweep runs one eviction pass.
func (s *Sweeper) Sweep() {
	if n := s.svc.EvictIdle(s.ttl); n > 0 {
		log.Printf("[sweeper] evicted %d idle sessions, %d live", n, s.svc.Len())
	}
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[sweeper] stopped")
}
