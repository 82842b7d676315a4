package world

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/internal/core/storage"
)

const (
	charactersCollection = "characters"
	zonePrefix           = "zone-"
)

func zoneCollection(zone string) string {
	return zonePrefix + zone
}

// Boot installs content and restores saved state. It must run before Run.
//
// Zones with a saved collection get their saved contents back; the others are reset from
// their spawn rules.
func (w *World) Boot(ctx context.Context, content fs.FS) error {
	if w.isRunning() {
		return ErrAlreadyRunning
	}
	if content != nil {
		if err := w.modules.LoadFS(ctx, content); err != nil {
			return fmt.Errorf("load content: %w", err)
		}
	}
	if err := w.modules.Install(w.graph); err != nil {
		return fmt.Errorf("install content: %w", err)
	}
	if _, ok := w.graph.Room(w.opts.StartRoom); !ok {
		return fmt.Errorf("%w: %q", ErrNoStartRoom, w.opts.StartRoom)
	}
	if err := w.loadCharacters(ctx); err != nil {
		return err
	}
	for _, zone := range w.graph.Zones() {
		if err := w.loadZone(ctx, zone.Key); err != nil {
			return err
		}
	}
	w.logger.Info("world booted",
		log.Int("rooms", len(w.graph.Rooms())),
		log.Int("entities", w.store.Len()),
		log.Int("characters", len(w.offline)),
	)
	return nil
}

func (w *World) loadCharacters(ctx context.Context) error {
	if w.storage == nil {
		return nil
	}
	recs, err := w.storage.Load(ctx, charactersCollection)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	for i, rec := range recs {
		// A load and export pass repairs what integrity checks can fix.
		id, err := w.ser.Deserialize(rec, false)
		if err != nil {
			w.logger.Error("skipping saved character", log.Int("index", i), log.Error(err))
			continue
		}
		name := components.DisplayName(w.store, id, "")
		repaired, err := w.ser.Export(id)
		w.store.Delete(id)
		if err != nil {
			w.logger.Error("skipping saved character", log.String("name", name), log.Error(err))
			continue
		}
		key := characterKey(name)
		if _, dup := w.offline[key]; dup {
			w.logger.Warn("duplicate saved character", log.String("name", name))
			continue
		}
		w.offline[key] = repaired
		w.lastPlayerID = max(w.lastPlayerID, recordPlayerID(repaired))
	}
	return nil
}

func (w *World) loadZone(ctx context.Context, zone string) error {
	if w.storage == nil {
		return w.resetZone(zone)
	}
	recs, err := w.storage.Load(ctx, zoneCollection(zone))
	if errors.Is(err, storage.ErrNotFound) {
		return w.resetZone(zone)
	}
	if err != nil {
		return fmt.Errorf("load zone %s: %w", zone, err)
	}
	loaded := w.ser.DeserializeAll(recs, true)
	w.logger.Debug("zone restored", log.String("zone", zone), log.Int("entities", len(loaded)))
	return nil
}

func (w *World) resetZone(zone string) error {
	if _, err := w.modules.ResetZone(zone, w.mover); err != nil {
		return fmt.Errorf("reset zone %s: %w", zone, err)
	}
	return nil
}

// snapshot exports everything durable: all characters and the indexed contents of every zone.
func (w *World) snapshot() map[string][]registry.Record {
	batches := map[string][]registry.Record{charactersCollection: w.characterRecords()}
	for _, zone := range w.graph.Zones() {
		recs := make([]registry.Record, 0)
		for _, key := range zone.Rooms() {
			for _, id := range w.graph.Occupants(key) {
				if w.store.HasComponent(id, components.PlayerCharacterType) ||
					!w.store.HasComponent(id, components.IdentityType) {
					continue
				}
				rec, err := w.ser.Export(id)
				if err != nil {
					w.logger.Error("entity export failed", log.Entity(id), log.Error(err))
					continue
				}
				recs = append(recs, rec)
			}
		}
		batches[zoneCollection(zone.Key)] = recs
	}
	return batches
}

// characterRecords returns every character, online ones freshly exported, sorted by name.
func (w *World) characterRecords() []registry.Record {
	all := maps.Clone(w.offline)
	for key, id := range w.online {
		rec, err := w.ser.Export(id)
		if err != nil {
			w.logger.Error("character export failed", log.String("name", key), log.Error(err))
			continue
		}
		all[key] = rec
	}
	out := make([]registry.Record, 0, len(all))
	for _, key := range slices.Sorted(maps.Keys(all)) {
		out = append(out, all[key])
	}
	return out
}

// Save writes a full snapshot and waits for it. Call it on the simulation goroutine (through
// Do) or before Run.
func (w *World) Save(ctx context.Context) error {
	return w.write(ctx, w.snapshot())
}

// enqueueSave hands batches to the writer goroutine, or writes them directly when the world is
// not running.
func (w *World) enqueueSave(batches map[string][]registry.Record) {
	if w.saves != nil {
		w.saves <- batches
		return
	}
	if err := w.write(context.Background(), batches); err != nil {
		w.logger.Error("save failed", log.Error(err))
	}
}

// writer applies queued saves in order. Saves already queued at shutdown still complete.
func (w *World) writer(ctx context.Context) {
	defer w.writers.Done()
	ctx = context.WithoutCancel(ctx)
	for batches := range w.saves {
		if err := w.write(ctx, batches); err != nil {
			w.logger.Error("save failed", log.Error(err))
		}
	}
}

func (w *World) write(ctx context.Context, batches map[string][]registry.Record) error {
	if w.storage == nil {
		return nil
	}
	n, err := storage.SaveAll(ctx, w.storage, batches)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	w.logger.Debug("saved", log.Int("collections", len(batches)), log.Int("written", n))
	return nil
}
