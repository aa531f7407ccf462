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

package main

import (
	"context"
	"fmt"

	"github.com/latticeworks/ecsrt"
	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/event"
	"github.com/latticeworks/ecsrt/query"
	"github.com/latticeworks/ecsrt/schedule"
)

// scenarioBasicQueryFan spawns a population and runs one system that
// integrates velocity into position for every matching entity.
func scenarioBasicQueryFan(ctx context.Context) error {
	w := newWorld()
	ids := spawnMovers(w, dashEntities)

	plan := query.NewPlan(query.Write[Position](), query.T[Velocity]())
	processed := 0
	query.ForEach2(w, plan, func(id ecs.ID, pos *Position, vel *Velocity) {
		pos.X += vel.DX
		pos.Y += vel.DY
		processed++
	})

	first, _ := ecsrt.Component[Position](w, ids[0])
	fmt.Printf("basic-query-fan: processed=%d first=%+v\n", processed, *first)
	return nil
}

// scenarioReuseGeneration despawns and respawns into the same slot,
// demonstrating that the stale id no longer reads as alive.
func scenarioReuseGeneration(ctx context.Context) error {
	w := newWorld()
	a := ecsrt.Spawn(w, ecsrt.With(Position{}))
	ecsrt.Despawn(w, a)
	b := ecsrt.Spawn(w, ecsrt.With(Position{}))

	fmt.Printf("reuse-generation: a=%s b=%s same_slot=%v a_alive=%v b_alive=%v\n",
		a, b, a.Slot == b.Slot, ecsrt.IsAlive(w, a), ecsrt.IsAlive(w, b))
	return nil
}

// scenarioStagehandOrdering registers two systems where the second
// declares RunAfter on the first, and confirms the scheduler still
// runs them in that order even though their component access does not
// conflict (so a naive packer could legally run them concurrently).
func scenarioStagehandOrdering(ctx context.Context) error {
	w := newWorld()
	ecsrt.InsertResource(w, []string(nil))

	first := funcSystem{
		id:   "first",
		meta: schedule.Metadata{Queries: []*query.Plan{query.NewPlan(query.T[Position]())}},
		fn: func(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error {
			order, _ := ecsrt.ResourceMut[[]string](w)
			*order = append(*order, "first")
			return nil
		},
	}
	second := funcSystem{
		id: "second",
		meta: schedule.Metadata{
			Queries:  []*query.Plan{query.NewPlan(query.T[Velocity]())},
			RunAfter: []string{"first"},
		},
		fn: func(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error {
			order, _ := ecsrt.ResourceMut[[]string](w)
			*order = append(*order, "second")
			return nil
		},
	}

	ecsrt.AddSchedule(w, "main")
	if err := ecsrt.AddSystem(w, "main", first); err != nil {
		return err
	}
	if err := ecsrt.AddSystem(w, "main", second); err != nil {
		return err
	}
	if err := ecsrt.Run(ctx, w); err != nil {
		return err
	}
	order, _ := ecsrt.Resource[[]string](w)
	fmt.Printf("stagehand-ordering: order=%v\n", order)
	return nil
}

// scenarioAddedFilter shows that a query.Added filter only matches the
// run immediately after a component was inserted.
func scenarioAddedFilter(ctx context.Context) error {
	w := newWorld()
	id := ecsrt.Spawn(w, ecsrt.With(Position{}))

	addedPlan := query.NewPlan(query.Added[Position]())
	firstHits := addedPlan.FetchAll(w)
	w.AdvanceTick()
	secondHits := addedPlan.FetchAll(w)

	fmt.Printf("added-filter: entity=%s first_run_hits=%d second_run_hits=%d\n",
		id, len(firstHits), len(secondHits))
	return nil
}

// scenarioEvents sends one event per schedule run and reads them back
// a run later, showing the double-buffer retains exactly one
// generation of backlog for a reader that runs once per frame.
func scenarioEvents(ctx context.Context) error {
	type Damage struct{ Amount int }

	w := newWorld()
	ecsrt.InsertResource(w, event.Cursor{})

	sender := funcSystem{
		id: "sender",
		fn: func(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error {
			event.Send(w.Events(), Damage{Amount: 5})
			return nil
		},
	}
	reader := funcSystem{
		id:       "reader",
		meta:     schedule.Metadata{RunAfter: []string{"sender"}},
		fn: func(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error {
			cur, _ := ecsrt.ResourceMut[event.Cursor](w)
			events, next := event.Read[Damage](w.Events(), *cur)
			*cur = next
			fmt.Printf("events: run read %d event(s)\n", len(events))
			return nil
		},
	}

	ecsrt.AddSchedule(w, "main")
	if err := ecsrt.AddSystem(w, "main", sender); err != nil {
		return err
	}
	if err := ecsrt.AddSystem(w, "main", reader); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := ecsrt.Run(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// scenarioGroupPrefix registers an owning group over Position and
// shows its packed size grow as entities gain a Velocity component
// (which the group's signature requires alongside Position).
func scenarioGroupPrefix(ctx context.Context) error {
	w := newWorld()
	sig := ecs.Signature{}
	sig.Set(ecs.TagFor[Position]())
	sig.Set(ecs.TagFor[Velocity]())
	owned := ecs.Signature{}
	owned.Set(ecs.TagFor[Position]())

	// Spawn first so the Position column already exists: a group that
	// owns a tag requires that tag's column to be registered up front.
	posOnly := ecsrt.Spawn(w, ecsrt.With(Position{X: 1}))

	g, err := ecsrt.AddGroup(w, sig, ecs.Signature{}, owned)
	if err != nil {
		return err
	}
	fmt.Printf("group-prefix: size_before=%d\n", g.Size())

	ecsrt.Add(w, posOnly, Velocity{DX: 1})
	fmt.Printf("group-prefix: size_after=%d\n", g.Size())
	return nil
}
