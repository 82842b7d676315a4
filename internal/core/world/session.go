package world

import (
	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/commands/builtin"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/observability/log"
)

// Conn is the transport side of a session. Send is called from the simulation goroutine and
// must not block on the network.
type Conn interface {
	Send(text string) error
	Close() error
}

// Session is one connected client. It owns a connection-level controller and, while
// puppeting, a character entity.
type Session struct {
	ID      string
	Account string
	Level   int

	conn      Conn
	ctrl      *commands.Controller
	entity    models.EntityID
	character string
	world     *World
}

var _ commands.Owner = (*Session)(nil)

// Send writes to the client. Failures are logged; the transport notices dead connections.
func (s *Session) Send(text string) {
	if err := s.conn.Send(text); err != nil {
		s.world.logger.Debug("send failed", log.String("session", s.ID), log.Error(err))
	}
}

func (s *Session) Actor() commands.Actor {
	return commands.Actor{Account: s.Account, Level: s.Level, Session: s.ID, Entity: s.entity}
}

// Entity returns the puppeted character, or models.NoEntity.
func (s *Session) Entity() models.EntityID {
	return s.entity
}

// Controller returns the connection-level controller.
func (s *Session) Controller() *commands.Controller {
	return s.ctrl
}

// entityOwner is the owner of a character's own controller. Output goes to whichever session
// is driving the character, if any.
type entityOwner struct {
	world *World
	id    models.EntityID
}

func (o *entityOwner) Send(text string) {
	o.world.SendTo(o.id, text)
}

func (o *entityOwner) Actor() commands.Actor {
	actor := commands.Actor{Entity: o.id}
	if owner, ok := models.Get[*components.AccountOwner](o.world.store, o.id); ok {
		actor.Account = owner.AccountID
	}
	if s, ok := o.world.sessionOf(o.id); ok {
		actor.Session = s.ID
		actor.Level = s.Level
	}
	return actor
}

// Connect registers a new session. It is safe to call from any goroutine; the session becomes
// live once the simulation picks it up.
func (w *World) Connect(id, account string, conn Conn) bool {
	return w.Do(func() { w.addSession(id, account, conn) })
}

// Input hands a line of client text to the session's controller.
func (w *World) Input(id, line string) bool {
	return w.Do(func() {
		s, ok := w.sessions[id]
		if !ok {
			return
		}
		if err := s.ctrl.Push(line); err != nil {
			w.logger.Warn("input dropped", log.String("session", id), log.Error(err))
		}
	})
}

// Disconnect ends a session whose transport went away. Its character is saved and removed.
func (w *World) Disconnect(id string) bool {
	return w.Do(func() { w.dropSession(id, false) })
}

func (w *World) addSession(id, account string, conn Conn) *Session {
	s := &Session{ID: id, Account: account, conn: conn, world: w}
	if w.isAdmin(account) {
		s.Level = builtin.AdminLevel
	}
	s.ctrl = commands.NewController(w.commands, s,
		commands.WithDefaultMode(builtin.ModeLogin),
		commands.WithControllerLogger(w.logger.With(log.String("session", id))),
	)
	w.sessions[id] = s
	w.order = append(w.order, id)
	if err := s.ctrl.SetHandler(builtin.ModeLogin); err != nil {
		w.logger.Error("login mode missing", log.Error(err))
	}
	w.logger.Info("session connected", log.String("session", id), log.String("account", account))
	return s
}

// dropSession removes a session. With hangup set the transport is closed as well.
func (w *World) dropSession(id string, hangup bool) {
	s, ok := w.sessions[id]
	if !ok {
		return
	}
	if s.entity.Valid() {
		w.unpuppet(s)
	}
	s.ctrl.Close()
	delete(w.sessions, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if hangup {
		if err := s.conn.Close(); err != nil {
			w.logger.Debug("close failed", log.String("session", id), log.Error(err))
		}
	}
	w.logger.Info("session disconnected", log.String("session", id))
}

// Session looks a live session up.
func (w *World) Session(id string) (*Session, bool) {
	s, ok := w.sessions[id]
	return s, ok
}

// Sessions lists session ids in connect order.
func (w *World) Sessions() []string {
	return append([]string(nil), w.order...)
}

func (w *World) sessionOf(id models.EntityID) (*Session, bool) {
	hs, ok := models.Get[*components.HasSession](w.store, id)
	if !ok {
		return nil, false
	}
	s, ok := w.sessions[hs.SessionID]
	return s, ok
}

// SendTo writes to the session driving id. Entities nobody is playing ignore it.
func (w *World) SendTo(id models.EntityID, text string) {
	if s, ok := w.sessionOf(id); ok {
		s.Send(text)
	}
}
