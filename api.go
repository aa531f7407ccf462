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
	"fmt"

	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/group"
	"github.com/latticeworks/ecsrt/schedule"
)

// Add, like its deferred command.Add counterpart, cannot be a method
// because Go methods cannot take their own type parameters; it is
// implemented as a one-shot command buffer so direct mutation and
// deferred integration share exactly one code path, which is also
// what makes the two observably equivalent to callers.
func Add[T any](w *World, id ecs.ID, value T) {
	buf := newCommandBuffer()
	command.Add[T](buf, id, value)
	buf.Integrate(w)
}

// Remove is Add's removal-side counterpart.
func Remove[T any](w *World, id ecs.ID) {
	buf := newCommandBuffer()
	command.Remove[T](buf, id)
	buf.Integrate(w)
}

// CheckedAdd is Add but reports ecs.ErrStaleEntity instead of silently
// no-op'ing when id no longer names a live entity, for callers that
// need to distinguish "nothing happened because the entity is gone"
// from "nothing happened because nothing changed."
func CheckedAdd[T any](w *World, id ecs.ID, value T) error {
	if !w.IsAlive(id) {
		return ecs.ErrStaleEntity
	}
	Add[T](w, id, value)
	return nil
}

// CheckedRemove is CheckedAdd's removal-side counterpart.
func CheckedRemove[T any](w *World, id ecs.ID) error {
	if !w.IsAlive(id) {
		return ecs.ErrStaleEntity
	}
	Remove[T](w, id)
	return nil
}

// With packages value as a component setter for use with Spawn.
func With[T any](value T) command.ComponentSetter[*World] {
	return command.With[T, *World](value)
}

// Spawn creates a new entity carrying every component in setters and
// returns its id.
func Spawn(w *World, setters ...command.ComponentSetter[*World]) ecs.ID {
	buf := newCommandBuffer()
	var newID ecs.ID
	buf.Spawn(setters, func(_ *World, id ecs.ID) { newID = id })
	buf.Integrate(w)
	return newID
}

// Despawn destroys id immediately.
func Despawn(w *World, id ecs.ID) {
	buf := newCommandBuffer()
	buf.Destroy(id)
	buf.Integrate(w)
}

// IsAlive reports whether id still names a live entity.
func IsAlive(w *World, id ecs.ID) bool { return w.IsAlive(id) }

// Component reads a pointer to id's value for component type T, or
// (nil, false) if it has none.
func Component[T any](w *World, id ecs.ID) (*T, bool) {
	col, ok := w.TryColumn(ecs.TagFor[T]())
	if !ok {
		return nil, false
	}
	return col.(interface {
		Get(slot uint32) (*T, bool)
	}).Get(id.Slot)
}

// InsertResource stores r as the world's singleton instance of R,
// replacing any previous one and advancing its version.
func InsertResource[R any](w *World, r R) {
	ptr := new(R)
	*ptr = r
	w.resources[ecs.ResourceKeyFor[R]()] = &resourceEntry{value: ptr, version: w.bumpResourceVersion()}
}

// Resource reads a copy of the world's singleton R, or
// (zero value, false) if none has been inserted.
func Resource[R any](w *World) (R, bool) {
	e, ok := w.resources[ecs.ResourceKeyFor[R]()]
	if !ok {
		var zero R
		return zero, false
	}
	return *(e.value.(*R)), true
}

// ResourceMut returns a mutable pointer to the world's singleton R,
// bumping its version since the caller's evident intent is to write
// through the pointer it gets back.
func ResourceMut[R any](w *World) (*R, bool) {
	e, ok := w.resources[ecs.ResourceKeyFor[R]()]
	if !ok {
		return nil, false
	}
	e.version = w.bumpResourceVersion()
	return e.value.(*R), true
}

// MustResource is Resource but panics with ecs.ErrMissingResource
// instead of returning ok=false. A resource that was never inserted is
// a programming error at call sites with no sensible fallback; use
// Resource instead wherever a missing value is a normal outcome.
func MustResource[R any](w *World) R {
	v, ok := Resource[R](w)
	if !ok {
		panic(ecs.ErrMissingResource)
	}
	return v
}

// MustResourceMut is ResourceMut's panicking counterpart.
func MustResourceMut[R any](w *World) *R {
	v, ok := ResourceMut[R](w)
	if !ok {
		panic(ecs.ErrMissingResource)
	}
	return v
}

// AddGroup registers a new packed-prefix group, per the one-owner-per-
// tag rule enforced by the group engine.
func AddGroup(w *World, sig, excluded, owned ecs.Signature) (*group.Group, error) {
	return w.groups.Register(w, sig, excluded, owned)
}

// RemoveGroup unregisters g.
func RemoveGroup(w *World, g *group.Group) { w.groups.Remove(g) }

// AddSchedule creates and registers an empty schedule labeled label.
// When the world was configured with a positive WorkerCount, the
// schedule runs its stages through a ParallelExecutor capped at that
// many goroutines instead of the default SerialExecutor.
func AddSchedule(w *World, label string) *schedule.Schedule[*World] {
	s := schedule.New[*World](label)
	if w.cfg.WorkerCount > 0 {
		s.Executor = schedule.ParallelExecutor[*World]{Workers: w.cfg.WorkerCount}
	}
	w.schedules[label] = s
	return s
}

// UpdateSchedule runs fn against the schedule labeled label, e.g. to
// add or remove systems, returning an error if no such schedule exists.
func UpdateSchedule(w *World, label string, fn func(s *schedule.Schedule[*World])) error {
	s, ok := w.schedules[label]
	if !ok {
		return fmt.Errorf("ecsrt: no schedule named %q", label)
	}
	fn(s)
	return nil
}

// AddSystem appends sys to the schedule labeled label.
func AddSystem(w *World, label string, sys schedule.System[*World]) error {
	return UpdateSchedule(w, label, func(s *schedule.Schedule[*World]) { s.AddSystem(sys) })
}

// RemoveSystem removes the system with id sysID from the schedule
// labeled label.
func RemoveSystem(w *World, label, sysID string) error {
	return UpdateSchedule(w, label, func(s *schedule.Schedule[*World]) { s.RemoveSystem(sysID) })
}

// RunSchedule runs the schedule labeled label once.
func RunSchedule(ctx context.Context, w *World, label string) error {
	s, ok := w.schedules[label]
	if !ok {
		return fmt.Errorf("ecsrt: no schedule named %q", label)
	}
	return s.Run(ctx, w)
}

// Run runs the schedule labeled "main", the conventional entry point
// a host application drives once per frame or tick.
func Run(ctx context.Context, w *World) error {
	return RunSchedule(ctx, w, "main")
}
