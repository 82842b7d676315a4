package world

import (
	"fmt"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/observability/log"
)

// EventZoneReset is published on ZoneTopic(zone) after a zone has been topped up.
const EventZoneReset = "zone.reset"

const eventSource = "world"

// ZoneReset is the data of an EventZoneReset event.
type ZoneReset struct {
	Zone    string
	Spawned []models.EntityID
}

// ZoneTopic is the bus topic carrying events about one zone.
func ZoneTopic(zone string) string {
	return "zone:" + zone
}

// subscribe turns movement events into messages for the other occupants.
func (w *World) subscribe() error {
	if w.bus == nil {
		return nil
	}
	w.bus.AddObserver(deliveryLogger{logger: w.logger})
	if _, err := w.bus.Subscribe(navigation.EventDeparted, w.onDeparted); err != nil {
		return fmt.Errorf("subscribe %s: %w", navigation.EventDeparted, err)
	}
	if _, err := w.bus.Subscribe(navigation.EventArrived, w.onArrived); err != nil {
		return fmt.Errorf("subscribe %s: %w", navigation.EventArrived, err)
	}
	return nil
}

func (w *World) onDeparted(e bus.Event) error {
	res, ok := e.Data().(navigation.MoveResult)
	if !ok || !res.Moved || res.From == "" {
		return nil
	}
	name := components.DisplayName(w.store, res.Mover, "Something")
	text := name + " disappears."
	if res.Dir.Valid() {
		text = name + " leaves " + res.Dir.String() + "."
	}
	w.tellOccupants(res.From, res.Mover, text)
	return nil
}

func (w *World) onArrived(e bus.Event) error {
	res, ok := e.Data().(navigation.MoveResult)
	if !ok || !res.Moved || res.To == "" {
		return nil
	}
	name := components.DisplayName(w.store, res.Mover, "Something")
	text := name + " appears."
	if res.Dir.Valid() {
		text = name + " arrives from " + res.Dir.ArrivalFrom() + "."
	}
	w.tellOccupants(res.To, res.Mover, text)
	return nil
}

// tellRoom messages everyone sharing a room with id.
func (w *World) tellRoom(id models.EntityID, text string) {
	if room, ok := w.mover.Where(id); ok {
		w.tellOccupants(room.Key, id, text)
	}
}

func (w *World) tellOccupants(room navigation.RoomKey, except models.EntityID, text string) {
	for _, other := range w.graph.Occupants(room) {
		if other != except {
			w.SendTo(other, text)
		}
	}
}

func (w *World) publishZoneReset(zone *navigation.Zone, spawned []models.EntityID) {
	if w.bus == nil {
		return
	}
	event := bus.NewEvent(EventZoneReset, eventSource, ZoneReset{Zone: zone.Key, Spawned: spawned})
	if err := w.bus.PublishToTopic(ZoneTopic(zone.Key), event); err != nil {
		w.logger.Warn("zone reset handler failed", log.String("zone", zone.Key), log.Error(err))
	}
}

// deliveryLogger traces bus traffic at debug level.
type deliveryLogger struct {
	logger log.Log
}

func (d deliveryLogger) OnDelivered(topic, eventType string, handlers int, err error) {
	fields := []log.Field{log.String("event", eventType), log.Int("handlers", handlers)}
	if topic != "" {
		fields = append(fields, log.String("topic", topic))
	}
	if err != nil {
		fields = append(fields, log.Error(err))
	}
	d.logger.Debug("event delivered", fields...)
}
