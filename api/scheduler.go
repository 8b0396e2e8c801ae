/*
scheduler.go - Background metrics integrity sweeper

PURPOSE:
  Periodically rebuilds every vehicle's derived metrics from its entry
  sequence. Repairs drift left behind by out-of-band changes (manual
  database edits, restores from backup, bugs in older versions).

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Walks all vehicles and reruns the full recalculation per vehicle
  - Each vehicle's rebuild is transactional; an unchanged sequence
    writes nothing

CONFIGURATION:
  - SweepInterval: How often to sweep (default: 6 hours)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewMetricsSweeper(store, engine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: RecalculateVehicle endpoint (manual rebuild)
  - fuel/engine.go: RecalculateVehicle
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tanklog/fuel-engine/fuel"
)

// MetricsSweeper handles automated derived-metrics rebuilds.
type MetricsSweeper struct {
	Store         fuel.TxStore
	Engine        *fuel.Engine
	SweepInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMetricsSweeper creates a new sweeper.
func NewMetricsSweeper(store fuel.TxStore, engine *fuel.Engine) *MetricsSweeper {
	return &MetricsSweeper{
		Store:         store,
		Engine:        engine,
		SweepInterval: 6 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (ms *MetricsSweeper) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	ms.ticker = time.NewTicker(ms.SweepInterval)
	ms.wg.Add(1)

	go ms.run()

	log.Printf("[Sweeper] Started with sweep interval: %v", ms.SweepInterval)
}

// Stop stops the sweeper.
func (ms *MetricsSweeper) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (ms *MetricsSweeper) run() {
	defer ms.wg.Done()

	// Run immediately on start
	ms.sweep()

	for {
		select {
		case <-ms.ticker.C:
			ms.sweep()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MetricsSweeper) sweep() {
	ctx := context.Background()

	vehicles, err := ms.Store.AllVehicles(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error listing vehicles: %v", err)
		return
	}

	sweptCount := 0
	entryCount := 0
	for _, v := range vehicles {
		walked, err := ms.Engine.RecalculateVehicle(ctx, v.UserID, v.ID)
		if err != nil {
			log.Printf("[Sweeper] Error recalculating %s: %v", v.ID, err)
			continue
		}
		sweptCount++
		entryCount += walked
	}

	if sweptCount > 0 {
		log.Printf("[Sweeper] Completed: %d vehicles, %d entries walked", sweptCount, entryCount)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ms *MetricsSweeper) RunNow() {
	ms.sweep()
}

// NextRunTime returns when the next scheduled sweep will occur.
func (ms *MetricsSweeper) NextRunTime() time.Time {
	return time.Now().Add(ms.SweepInterval)
}
