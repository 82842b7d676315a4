package world

import (
	"fmt"
	"strings"

	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/commands/builtin"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

func characterKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateCharacter builds a new character for account and keeps it offline until puppeted.
func (w *World) CreateCharacter(account, name string) error {
	key := characterKey(name)
	if _, taken := w.offline[key]; taken {
		return commands.Errorf("That name is taken.")
	}
	if _, taken := w.online[key]; taken {
		return commands.Errorf("That name is taken.")
	}

	w.lastPlayerID++
	id, err := w.ser.Deserialize(registry.Record{
		"Name":            name,
		"PlayerCharacter": map[string]any{"player_id": w.lastPlayerID},
		"AccountOwner":    map[string]any{"account_id": account},
	}, false)
	if err != nil {
		return fmt.Errorf("create character %q: %w", name, err)
	}
	rec, err := w.ser.Export(id)
	w.store.Delete(id)
	if err != nil {
		return fmt.Errorf("create character %q: %w", name, err)
	}
	w.offline[key] = rec
	w.enqueueSave(map[string][]registry.Record{charactersCollection: w.characterRecords()})
	w.logger.Info("character created", log.String("name", name), log.String("account", account))
	return nil
}

// Puppet loads the named character into the world and hands the session to it.
func (w *World) Puppet(sessionID, name string) error {
	s, ok := w.sessions[sessionID]
	if !ok {
		return fmt.Errorf("puppet %q: %w", sessionID, ErrUnknownSession)
	}
	if s.entity.Valid() {
		return commands.Errorf("You are already playing a character.")
	}
	key := characterKey(name)
	if _, ok := w.online[key]; ok {
		return commands.Errorf("%s is already in the world.", name)
	}
	rec, ok := w.offline[key]
	if !ok {
		return commands.Errorf("There is no character named %s.", name)
	}
	if owner := recordOwner(rec); owner != s.Account && !w.isAdmin(s.Account) {
		return commands.Errorf("That character does not belong to you.")
	}

	id, err := w.ser.Deserialize(rec, false)
	if err != nil {
		return fmt.Errorf("puppet %q: %w", name, err)
	}
	ctrl := commands.NewController(w.commands, &entityOwner{world: w, id: id},
		commands.WithDefaultMode(builtin.ModePlay),
		commands.WithControllerLogger(w.logger.With(log.Entity(id))),
	)
	for _, c := range []models.Component{
		&components.HasSession{SessionID: s.ID},
		&components.InGame{},
		&components.Controlled{Controller: ctrl},
	} {
		if err := w.store.AddComponent(id, c); err != nil {
			w.store.Delete(id)
			return fmt.Errorf("puppet %q: %w", name, err)
		}
	}

	if _, placed := w.mover.Where(id); !placed {
		if _, err := w.mover.Teleport(id, w.opts.StartRoom); err != nil {
			w.store.Delete(id)
			return fmt.Errorf("puppet %q: %w", name, err)
		}
	} else {
		w.tellRoom(id, components.DisplayName(w.store, id, name)+" appears.")
	}

	delete(w.offline, key)
	w.online[key] = id
	s.entity = id
	s.character = key

	if err := s.ctrl.SetHandler(builtin.ModePuppet); err != nil {
		return err
	}
	if err := ctrl.SetHandler(builtin.ModePlay); err != nil {
		return err
	}
	w.logger.Info("character puppeted", log.String("session", s.ID), log.String("name", name), log.Entity(id))
	return nil
}

// Quit saves the session's character and closes the connection.
func (w *World) Quit(sessionID string) {
	w.dropSession(sessionID, true)
}

// unpuppet saves the session's character back to the offline set and removes it from the world.
func (w *World) unpuppet(s *Session) {
	id, key := s.entity, s.character
	s.entity, s.character = models.NoEntity, ""
	delete(w.online, key)

	if !w.store.Exists(id) {
		return
	}
	rec, err := w.ser.Export(id)
	if err != nil {
		w.logger.Error("character export failed", log.String("name", key), log.Entity(id), log.Error(err))
	} else {
		w.offline[key] = rec
	}
	if _, placed := w.mover.Where(id); placed {
		if err := w.mover.Extract(id); err != nil {
			w.logger.Warn("character extract failed", log.Entity(id), log.Error(err))
		}
	}
	w.modules.Forget(w.store, id)
	w.store.Delete(id)

	if err == nil {
		w.enqueueSave(map[string][]registry.Record{charactersCollection: w.characterRecords()})
	}
}

func recordOwner(rec registry.Record) string {
	owner, err := registry.As[components.AccountOwner](rec["AccountOwner"])
	if err != nil {
		return ""
	}
	return owner.AccountID
}

func recordPlayerID(rec registry.Record) int64 {
	pc, err := registry.As[components.PlayerCharacter](rec["PlayerCharacter"])
	if err != nil {
		return 0
	}
	return pc.PlayerID
}
