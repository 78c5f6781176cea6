package worker

import (
	"log"
	"sync"
	"time"
)

// IdleSweeper is the part of the session service the sweeper drives
type IdleSweeper interface {
	SweepIdle(ttl time.Duration) int
}

// SweeperConfig controls how often idle map sessions are unmounted
type SweeperConfig struct {
	Interval time.Duration
	TTL      time.Duration
}

// StartSessionSweeper starts the worker that unmounts map sessions nobody
// has touched for TTL. The returned func stops it.
func StartSessionSweeper(sessions IdleSweeper, cfg SweeperConfig) func() {
	if cfg.Interval <= 0 || cfg.TTL <= 0 {
		log.Println("Session sweeper disabled")
		return func() {}
	}

	ticker := time.NewTicker(cfg.Interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				sessions.SweepIdle(cfg.TTL)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	log.Println("Session sweeper started with interval:", cfg.Interval, "ttl:", cfg.TTL)

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
