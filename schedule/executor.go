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

	"golang.org/x/sync/errgroup"

	"github.com/latticeworks/ecsrt/command"
)

// System is one unit of schedule work: an identity, its declared data
// access (used by the stage packer), and a body that records mutations
// into cmd instead of applying them directly.
type System[W command.Applier] interface {
	ID() string
	Metadata() Metadata
	Run(ctx context.Context, world W, cmd *command.Buffer[W]) error
}

// wrap adapts a []System[W] to []idAndMeta for the stage packer
// without the packer needing to know about command.Applier.
func wrap[W command.Applier](systems []System[W]) []idAndMeta {
	out := make([]idAndMeta, len(systems))
	for i, s := range systems {
		out[i] = s
	}
	return out
}

// Executor runs a list of systems, already packed into conflict-free
// stages, against world.
type Executor[W command.Applier] interface {
	Run(ctx context.Context, world W, stages [][]int, systems []System[W]) (*command.Buffer[W], error)
}

// SerialExecutor runs every system one at a time, stage by stage in
// stage order and, within a stage, in the order the stage lists them,
// so RunAfter ordering holds. It is the simplest-possible executor and
// the default a new Schedule uses.
type SerialExecutor[W command.Applier] struct{}

func (SerialExecutor[W]) Run(ctx context.Context, world W, stages [][]int, systems []System[W]) (*command.Buffer[W], error) {
	merged := command.NewBuffer[W]()
	for _, stage := range stages {
		for _, i := range stage {
			cmd := command.NewBuffer[W]()
			if err := systems[i].Run(ctx, world, cmd); err != nil {
				return nil, fmt.Errorf("schedule: system %q: %w", systems[i].ID(), err)
			}
			merged.Merge(cmd)
		}
	}
	return merged, nil
}

// ParallelExecutor runs every stage's systems concurrently (capped at
// Workers goroutines, 0 meaning unbounded) and waits for the whole
// stage to finish before starting the next one, the same
// bounded-worker-pool-then-barrier shape as sorting's thread pool
// feeding an errgroup-style join. Each system records into its own
// command buffer so no two systems race on command-buffer state; the
// buffers are merged in declaration order once the stage completes,
// keeping Integrate deterministic regardless of goroutine finish order.
type ParallelExecutor[W command.Applier] struct {
	Workers int
}

func (p ParallelExecutor[W]) Run(ctx context.Context, world W, stages [][]int, systems []System[W]) (*command.Buffer[W], error) {
	merged := command.NewBuffer[W]()
	for _, stage := range stages {
		bufs := make([]*command.Buffer[W], len(stage))
		g, gctx := errgroup.WithContext(ctx)
		if p.Workers > 0 {
			g.SetLimit(p.Workers)
		}
		for pos, i := range stage {
			pos, i := pos, i
			g.Go(func() error {
				cmd := command.NewBuffer[W]()
				bufs[pos] = cmd
				if err := systems[i].Run(gctx, world, cmd); err != nil {
					return fmt.Errorf("schedule: system %q: %w", systems[i].ID(), err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, cmd := range bufs {
			merged.Merge(cmd)
		}
	}
	return merged, nil
}

// UncheckedExecutor runs every system concurrently with no regard for
// stage boundaries or declared conflicts, trusting the caller's own
// assertion that it is safe to do so (e.g. every query in the schedule
// is read-only). It exists for benchmarking an upper bound on
// parallel throughput, not for routine use.
type UncheckedExecutor[W command.Applier] struct{}

func (UncheckedExecutor[W]) Run(ctx context.Context, world W, stages [][]int, systems []System[W]) (*command.Buffer[W], error) {
	bufs := make([]*command.Buffer[W], len(systems))
	g, gctx := errgroup.WithContext(ctx)
	for i := range systems {
		i := i
		g.Go(func() error {
			cmd := command.NewBuffer[W]()
			bufs[i] = cmd
			if err := systems[i].Run(gctx, world, cmd); err != nil {
				return fmt.Errorf("schedule: system %q: %w", systems[i].ID(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	merged := command.NewBuffer[W]()
	for _, cmd := range bufs {
		merged.Merge(cmd)
	}
	return merged, nil
}
