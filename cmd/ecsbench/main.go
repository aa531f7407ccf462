// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command ecsbench runs one of a handful of fixed scenarios against an
// in-process world and prints what happened, for manual inspection of
// scheduling, grouping and change-detection behavior end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/latticeworks/ecsrt"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/ecsconfig"
)

var (
	dashScenario string
	dashEntities int
	dashWorkers  int
	dashConfig   string

	activeConfig ecsconfig.Config
)

func main() {
	flag.StringVar(&dashScenario, "scenario", "basic-query-fan", "scenario to run: basic-query-fan, reuse-generation, stagehand-ordering, added-filter, events, group-prefix")
	flag.IntVar(&dashEntities, "n", 1000, "number of entities to spawn for scenarios that spawn a population")
	flag.IntVar(&dashWorkers, "workers", 0, "worker cap for the parallel executor (0 = serial)")
	flag.StringVar(&dashConfig, "config", "", "path to an ecsconfig YAML file (defaults to ecsconfig.Defaults())")
	flag.Parse()

	run, ok := scenarios[dashScenario]
	if !ok {
		fmt.Fprintf(os.Stderr, "ecsbench: unknown scenario %q\n", dashScenario)
		os.Exit(1)
	}

	cfg := ecsconfig.Defaults()
	if dashConfig != "" {
		loaded, err := ecsconfig.Load(dashConfig)
		if err != nil {
			log.Fatalf("ecsbench: %v", err)
		}
		cfg = loaded
	}
	cfg.WorkerCount = dashWorkers
	activeConfig = cfg

	var stats execStatistics
	stats.Start()
	err := run(context.Background())
	stats.Stop()
	stats.Print(dashScenario)
	if err != nil {
		log.Fatalf("ecsbench: %s: %v", dashScenario, err)
	}
}

var scenarios = map[string]func(context.Context) error{
	"basic-query-fan":   scenarioBasicQueryFan,
	"reuse-generation":  scenarioReuseGeneration,
	"stagehand-ordering": scenarioStagehandOrdering,
	"added-filter":      scenarioAddedFilter,
	"events":            scenarioEvents,
	"group-prefix":      scenarioGroupPrefix,
}

func newWorld() *ecsrt.World {
	return ecsrt.New(activeConfig)
}

// execStatistics tracks elapsed time and allocation counters around one
// scenario run, the same Start/Stop/Print shape cmd/sneller's own
// execStatistics uses, minus the bytes-scanned throughput rate that
// only makes sense for a query engine.
type execStatistics struct {
	mallocs   uint64
	bytes     int64
	startTime time.Time
	elapsed   time.Duration
}

func (e *execStatistics) Start() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	e.mallocs = m.Mallocs
	e.bytes = int64(m.TotalAlloc)
	e.startTime = time.Now()
}

func (e *execStatistics) Stop() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	e.mallocs = m.Mallocs - e.mallocs
	e.bytes = int64(m.TotalAlloc) - e.bytes
	e.elapsed = time.Since(e.startTime)
}

func (e *execStatistics) Print(scenario string) {
	fmt.Fprintf(os.Stderr, "%s: elapsed=%v allocated=%d bytes, allocations=%d\n",
		scenario, e.elapsed, e.bytes, e.mallocs)
}

// Position and Velocity are the stock pair of components every
// scenario below spawns populations of.
type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }

// Health is used by scenarios that exercise removal/despawn.
type Health struct{ HP int }

func spawnMovers(w *ecsrt.World, n int) []ecs.ID {
	ids := make([]ecs.ID, n)
	for i := 0; i < n; i++ {
		ids[i] = ecsrt.Spawn(w,
			ecsrt.With(Position{X: float64(i)}),
			ecsrt.With(Velocity{DX: 1, DY: 0.5}),
		)
	}
	return ids
}
