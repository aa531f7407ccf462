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

package ecsrt

import (
	"context"
	"testing"

	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/ecsconfig"
	"github.com/latticeworks/ecsrt/event"
	"github.com/latticeworks/ecsrt/query"
	"github.com/latticeworks/ecsrt/schedule"
)

func newTestWorld() *World {
	return New(ecsconfig.Defaults())
}

// funcSystem adapts a plain function to schedule.System[*World], the
// way cmd/ecsbench declares scenario systems inline.
type funcSystem struct {
	id   string
	meta schedule.Metadata
	fn   func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error
}

func (s funcSystem) ID() string                  { return s.id }
func (s funcSystem) Metadata() schedule.Metadata { return s.meta }
func (s funcSystem) Run(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
	return s.fn(ctx, w, cmd)
}

type Transform struct{ X float64 }
type Gravity struct{ ForceX float64 }
type RigidBody struct{}

// TestBasicQueryFan is literal end-to-end scenario 1: a mixed
// population of four component combinations, queried by Write<Transform>
// plus a Gravity requirement.
func TestBasicQueryFan(t *testing.T) {
	w := newTestWorld()

	for i := 0; i < 500; i++ {
		Spawn(w, With(Gravity{ForceX: 1}))
	}
	for i := 0; i < 500; i++ {
		Spawn(w, With(Transform{}), With(Gravity{ForceX: 1}))
	}
	transformOnly := make([]ecs.ID, 500)
	for i := 0; i < 500; i++ {
		transformOnly[i] = Spawn(w, With(Transform{}))
	}
	for i := 0; i < 500; i++ {
		Spawn(w, With(Transform{}), With(Gravity{ForceX: 1}))
	}

	plan := query.NewPlan(query.Write[Transform](), query.T[Gravity]())
	calls := 0
	query.ForEach2(w, plan, func(id ecs.ID, tr *Transform, g *Gravity) {
		tr.X += g.ForceX
		calls++
	})

	if calls != 1000 {
		t.Fatalf("expected handler called 1000 times, got %d", calls)
	}
	for _, id := range transformOnly {
		tr, ok := Component[Transform](w, id)
		if !ok {
			t.Fatalf("transform-only entity %v lost its component", id)
		}
		if tr.X != 0 {
			t.Fatalf("transform-only entity %v should be untouched, got X=%v", id, tr.X)
		}
	}
}

// TestReuseGeneration is literal end-to-end scenario 2.
func TestReuseGeneration(t *testing.T) {
	w := newTestWorld()
	a := Spawn(w, With(Gravity{}))
	Despawn(w, a)
	b := Spawn(w, With(Gravity{}))

	if a.Slot != b.Slot {
		t.Fatalf("expected the freed slot to be reused, a.Slot=%d b.Slot=%d", a.Slot, b.Slot)
	}
	if a.Generation == b.Generation {
		t.Fatal("a reused slot must carry a different generation")
	}

	Remove[Gravity](w, a) // stale id: no-op
	if _, ok := Component[Gravity](w, b); !ok {
		t.Fatal("removing a stale id must not touch the live occupant's component")
	}

	Remove[Gravity](w, b)
	if _, ok := Component[Gravity](w, b); ok {
		t.Fatal("removing b's own component should leave it absent")
	}
}

// TestStagehandOrdering is literal end-to-end scenario 3: S3 runs after
// S2, with no declared conflicts, and a serial executor must still
// observe S1, S2, S3 in that order.
func TestStagehandOrdering(t *testing.T) {
	w := newTestWorld()
	InsertResource(w, []string(nil))

	record := func(label string) func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
		return func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
			order := MustResourceMut[[]string](w)
			*order = append(*order, label)
			return nil
		}
	}

	s1 := funcSystem{id: "s1", fn: record("s1")}
	s2 := funcSystem{id: "s2", fn: record("s2")}
	s3 := funcSystem{id: "s3", meta: schedule.Metadata{RunAfter: []string{"s2"}}, fn: record("s3")}

	AddSchedule(w, "main")
	for _, s := range []schedule.System[*World]{s1, s2, s3} {
		if err := AddSystem(w, "main", s); err != nil {
			t.Fatalf("AddSystem: %v", err)
		}
	}
	if err := Run(context.Background(), w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	order := MustResource[[]string](w)
	if len(order) != 3 || order[0] != "s1" || order[1] != "s2" || order[2] != "s3" {
		t.Fatalf("expected [s1 s2 s3], got %v", order)
	}
}

type Tracked struct{}

// TestAddedFilterAcrossRuns is literal end-to-end scenario 4.
func TestAddedFilterAcrossRuns(t *testing.T) {
	w := newTestWorld()
	var captured []ecs.ID

	addedSystem := funcSystem{
		id: "added-system",
		fn: func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
			plan := query.NewPlan(query.EntityID(), query.Added[Tracked]())
			captured = nil
			query.ForEach1(w, plan, func(id ecs.ID, _ *Tracked) { captured = append(captured, id) })
			return nil
		},
	}
	AddSchedule(w, "main")
	if err := AddSystem(w, "main", addedSystem); err != nil {
		t.Fatalf("AddSystem: %v", err)
	}

	t1 := Spawn(w, With(Tracked{}))
	if err := Run(context.Background(), w); err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	if len(captured) != 1 || captured[0] != t1 {
		t.Fatalf("run 1 should capture [t1], got %v", captured)
	}

	if err := Run(context.Background(), w); err != nil {
		t.Fatalf("Run 2: %v", err)
	}
	if len(captured) != 0 {
		t.Fatalf("run 2 without changes should capture nothing, got %v", captured)
	}

	t2 := Spawn(w, With(Tracked{}))
	if err := Run(context.Background(), w); err != nil {
		t.Fatalf("Run 3: %v", err)
	}
	if len(captured) != 1 || captured[0] != t2 {
		t.Fatalf("run 3 should capture [t2], got %v", captured)
	}
}

type TestEvent struct{ Value int }

// TestEventsAcrossRuns is literal end-to-end scenario 5: an emitter
// sends one event per run, a drainer (running after the emitter, with
// exclusive drain access) consumes a run's worth one run later, and a
// reader running after the drainer never sees anything.
func TestEventsAcrossRuns(t *testing.T) {
	w := newTestWorld()
	n := 0
	var drained [][]int
	var readerSawAny bool

	emitter := funcSystem{
		id: "emitter",
		fn: func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
			event.Send(w.Events(), TestEvent{Value: n})
			n++
			return nil
		},
	}
	drainer := funcSystem{
		id:   "drainer",
		meta: schedule.Metadata{RunAfter: []string{"emitter"}},
		fn: func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
			got := event.Drain[TestEvent](w.Events())
			values := make([]int, 0, len(got))
			for _, e := range got {
				values = append(values, e.Value)
			}
			drained = append(drained, values)
			return nil
		},
	}
	reader := funcSystem{
		id:   "reader",
		meta: schedule.Metadata{RunAfter: []string{"drainer"}},
		fn: func(ctx context.Context, w *World, cmd *command.Buffer[*World]) error {
			var cur event.Cursor
			got, _ := event.Read[TestEvent](w.Events(), cur)
			if len(got) > 0 {
				readerSawAny = true
			}
			return nil
		},
	}

	AddSchedule(w, "main")
	for _, s := range []schedule.System[*World]{emitter, drainer, reader} {
		if err := AddSystem(w, "main", s); err != nil {
			t.Fatalf("AddSystem: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := Run(context.Background(), w); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	if len(drained) != 3 {
		t.Fatalf("expected 3 drain calls, got %d", len(drained))
	}
	if len(drained[0]) != 0 {
		t.Fatalf("first run's drain must see nothing (one run of lag), got %v", drained[0])
	}
	if len(drained[1]) != 1 || drained[1][0] != 0 {
		t.Fatalf("second run's drain should see run 0's event [0], got %v", drained[1])
	}
	if len(drained[2]) != 1 || drained[2][0] != 1 {
		t.Fatalf("third run's drain should see run 1's event [1], got %v", drained[2])
	}
	if readerSawAny {
		t.Fatal("the reader runs after an exclusive drain and should never observe an event")
	}
}

// TestGroupPackedPrefix is literal end-to-end scenario 6.
func TestGroupPackedPrefix(t *testing.T) {
	w := newTestWorld()

	// e1 first so the Transform and Gravity columns exist before the
	// owning group is registered.
	e1 := Spawn(w, With(Transform{}), With(Gravity{}))

	var required, excluded, owned ecs.Signature
	required.Set(ecs.TagFor[Transform]())
	required.Set(ecs.TagFor[Gravity]())
	excluded.Set(ecs.TagFor[RigidBody]())
	owned.Set(ecs.TagFor[Transform]())
	owned.Set(ecs.TagFor[Gravity]())

	g, err := AddGroup(w, required, excluded, owned)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	Spawn(w, With(Gravity{}))                                        // e2: G only
	Spawn(w, With(Transform{}))                                      // e3: T only
	Spawn(w, With(Transform{}), With(Gravity{}), With(RigidBody{})) // e4: TGR
	e5 := Spawn(w, With(Transform{}), With(Gravity{}))               // e5: TG
	e6 := Spawn(w, With(Transform{}), With(Gravity{}))               // e6: TG

	if g.Size() != 3 {
		t.Fatalf("expected group size 3, got %d", g.Size())
	}

	transformCol, _ := w.TryColumn(ecs.TagFor[Transform]())
	gravityCol, _ := w.TryColumn(ecs.TagFor[Gravity]())
	expect := map[ecs.ID]bool{e1: true, e5: true, e6: true}
	for i := 0; i < 3; i++ {
		ts := transformCol.KeyAt(i)
		gs := gravityCol.KeyAt(i)
		if ts != gs {
			t.Fatalf("position %d disagrees between owned columns: transform slot %d, gravity slot %d", i, ts, gs)
		}
		found := false
		for id := range expect {
			if id.Slot == ts {
				found = true
				delete(expect, id)
				break
			}
		}
		if !found {
			t.Fatalf("position %d slot %d is not one of {e1,e5,e6}", i, ts)
		}
	}
	if len(expect) != 0 {
		t.Fatalf("not every expected member appeared in the packed prefix: missing %v", expect)
	}

	Add(w, e5, RigidBody{})
	if g.Size() != 2 {
		t.Fatalf("expected group size 2 after e5 gains RigidBody, got %d", g.Size())
	}
}

func TestCheckedAddRemoveReportStaleEntity(t *testing.T) {
	w := newTestWorld()
	id := Spawn(w, With(Transform{X: 1}))
	Despawn(w, id)

	if err := CheckedAdd(w, id, Transform{X: 2}); err != ecs.ErrStaleEntity {
		t.Fatalf("CheckedAdd on a despawned id: got %v, want ecs.ErrStaleEntity", err)
	}
	if err := CheckedRemove[Transform](w, id); err != ecs.ErrStaleEntity {
		t.Fatalf("CheckedRemove on a despawned id: got %v, want ecs.ErrStaleEntity", err)
	}

	live := Spawn(w, With(Transform{X: 1}))
	if err := CheckedAdd(w, live, Gravity{ForceX: 3}); err != nil {
		t.Fatalf("CheckedAdd on a live id should succeed, got %v", err)
	}
	g, ok := Component[Gravity](w, live)
	if !ok || g.ForceX != 3 {
		t.Fatalf("expected Gravity{ForceX:3} after CheckedAdd, got %v ok=%v", g, ok)
	}
	if err := CheckedRemove[Gravity](w, live); err != nil {
		t.Fatalf("CheckedRemove on a live id should succeed, got %v", err)
	}
	if _, ok := Component[Gravity](w, live); ok {
		t.Fatal("Gravity should be gone after CheckedRemove")
	}
}

func TestAddScheduleUsesParallelExecutorWhenWorkerCountConfigured(t *testing.T) {
	cfg := ecsconfig.Defaults()
	cfg.WorkerCount = 4
	w := New(cfg)

	s := AddSchedule(w, "main")
	pe, ok := s.Executor.(schedule.ParallelExecutor[*World])
	if !ok {
		t.Fatalf("expected schedule.ParallelExecutor[*World], got %T", s.Executor)
	}
	if pe.Workers != 4 {
		t.Fatalf("expected Workers=4, got %d", pe.Workers)
	}
}
