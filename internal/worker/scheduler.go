package worker

import (
	"log"

	"lightningtracker/internal/service/session"
)

// StartAllWorkers initializes and starts all background workers
func StartAllWorkers(sessions *session.Service, cfg SweeperConfig) func() {
	log.Println("Starting all workers...")

	stopSweeper := StartSessionSweeper(sessions, cfg)

	log.Println("All workers started")
	return stopSweeper
}
