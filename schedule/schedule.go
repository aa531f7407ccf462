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

package schedule

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/event"
)

// RunnableWorld is everything a Schedule needs from a world beyond the
// bare command.Applier surface: its event bus, to swap buffers before
// systems run, and a way to advance the change tick afterward.
type RunnableWorld interface {
	command.Applier
	Events() *event.Bus
	AdvanceTick()
}

// Schedule is a named, ordered list of systems plus the executor that
// runs them.
type Schedule[W RunnableWorld] struct {
	Label    string
	Executor Executor[W]
	Systems  []System[W]

	// Logger receives the run-start, run-failure and run-done lines Run
	// emits. A nil Logger (the zero value) falls back to log.Default(),
	// matching sneller's own nil-safe logger fields.
	Logger *log.Logger

	sh stagehand
}

// New returns an empty schedule labeled label, defaulting to a serial
// executor and log.Default().
func New[W RunnableWorld](label string) *Schedule[W] {
	return &Schedule[W]{Label: label, Executor: SerialExecutor[W]{}}
}

func (s *Schedule[W]) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// AddSystem appends sys to the schedule.
func (s *Schedule[W]) AddSystem(sys System[W]) {
	s.Systems = append(s.Systems, sys)
}

// RemoveSystem removes the system with the given ID, if present.
func (s *Schedule[W]) RemoveSystem(id string) bool {
	for i, sys := range s.Systems {
		if sys.ID() == id {
			s.Systems = append(s.Systems[:i], s.Systems[i+1:]...)
			return true
		}
	}
	return false
}

// Run executes one full pass: swap event buffers, pack/reuse stages,
// run systems via the configured executor, integrate their commands,
// then advance the world's change tick. Each run is stamped with a
// correlation id for log lines emitted during it.
func (s *Schedule[W]) Run(ctx context.Context, world W) error {
	runID := uuid.New()
	s.logger().Printf("schedule %q run=%s systems=%d start", s.Label, runID, len(s.Systems))

	world.Events().Prepare()

	stages, err := s.sh.stagesFor(wrap(s.Systems))
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.Label, err)
	}

	merged, err := s.Executor.Run(ctx, world, stages, s.Systems)
	if err != nil {
		s.logger().Printf("schedule %q run=%s failed: %v", s.Label, runID, err)
		return err
	}
	merged.Integrate(world)
	world.AdvanceTick()

	s.logger().Printf("schedule %q run=%s stages=%d ops=%d done", s.Label, runID, len(stages), merged.Len())
	return nil
}
