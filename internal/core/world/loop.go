package world

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// Do queues fn to run on the simulation goroutine. It blocks while the inbox is full and
// reports false once the world has stopped.
func (w *World) Do(fn func()) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.inbox <- fn:
		return true
	case <-w.done:
		return false
	}
}

// RunPending runs every queued closure on the calling goroutine and returns how many ran.
// Run does this itself; it is exposed for driving the world by hand.
func (w *World) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-w.inbox:
			w.safely("inbox", fn)
			n++
		default:
			return n
		}
	}
}

// Run drives the simulation until ctx is cancelled, then saves everything and returns.
func (w *World) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return ErrAlreadyRunning
	}
	defer atomic.StoreInt32(&w.running, 0)

	w.saves = make(chan map[string][]registry.Record, 4)
	w.writers.Add(1)
	go w.writer(ctx)

	ticker := time.NewTicker(w.opts.TickInterval)
	defer ticker.Stop()
	var autosave <-chan time.Time
	if w.opts.AutosaveInterval > 0 {
		t := time.NewTicker(w.opts.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	w.logger.Info("world running", log.Duration("tick", w.opts.TickInterval))
	for {
		select {
		case <-ctx.Done():
			return w.shutdown()
		case fn := <-w.inbox:
			w.safely("inbox", fn)
		case <-ticker.C:
			w.Step()
		case <-autosave:
			w.enqueueSave(w.snapshot())
		}
	}
}

func (w *World) shutdown() error {
	close(w.done)
	w.RunPending()
	for _, id := range w.Sessions() {
		w.dropSession(id, true)
	}
	batches := w.snapshot()
	close(w.saves)
	w.writers.Wait()
	w.saves = nil

	// The run context is already cancelled; the final save gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := w.write(ctx, batches)
	w.logger.Info("world stopped", log.Uint64("ticks", w.tick.Load()))
	return err
}

// Step runs one tick: character controllers in entity order, then sessions in connect order,
// then zone aging, then removal of entities marked for deletion.
func (w *World) Step() {
	w.tick.Add(1)

	for _, id := range w.store.With(components.ControlledType).Collect() {
		if ctrl, ok := w.EntityController(id); ok {
			w.safely("entity update", ctrl.Update)
		}
	}
	for _, id := range w.Sessions() {
		if s, ok := w.sessions[id]; ok {
			w.safely("session update", s.ctrl.Update)
		}
	}
	w.ageZones()
	w.reap()
}

func (w *World) ageZones() {
	for _, zone := range w.graph.Zones() {
		if !zone.Advance() {
			continue
		}
		spawned, err := w.modules.ResetZone(zone.Key, w.mover)
		if err != nil {
			w.logger.Error("zone reset failed", log.String("zone", zone.Key), log.Error(err))
		}
		for _, hook := range w.resetHooks {
			w.safely("zone reset hook", func() { hook(zone, spawned) })
		}
		w.publishZoneReset(zone, spawned)
	}
}

// reap deletes entities marked PendingRemove.
func (w *World) reap() {
	for _, id := range w.store.With(components.PendingRemoveType).Collect() {
		w.modules.Forget(w.store, id)
		w.store.Delete(id)
	}
}

// MarkForRemoval schedules id for deletion at the end of the tick.
func (w *World) MarkForRemoval(id models.EntityID) error {
	return w.store.AddComponent(id, &components.PendingRemove{})
}

// safely keeps one failing closure from taking the simulation down.
func (w *World) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("recovered panic in simulation", log.String("in", what), log.Any("panic", r), log.Tick(w.tick.Load()))
		}
	}()
	fn()
}
