package notify

import (
	"time"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// DefaultTimeout is the auto-dismiss delay applied when a client leaves
// the expiration unspecified.
const DefaultTimeout = 3000 * time.Millisecond

// ClosedEvent accompanies a notification's removal from the live
// collection.
type ClosedEvent struct {
	ID     uint32
	Reason CloseReason
}

// ActionEvent reports an action invocation to be relayed to the client.
type ActionEvent struct {
	ID       uint32
	ActionID string
}

// Store owns the notification collection: id allocation, auto-dismiss
// timers, the dismissed-history model, and cache persistence. All
// methods must be called on the event loop.
type Store struct {
	loop  *eventloop.Loop
	cache *Cache

	nextID uint32
	list   []*Notification
	byID   map[uint32]*Notification

	// Added fires for new notifications and for in-place replacements.
	Added observe.Signal[*Notification]
	// Dismissed fires when a notification becomes history without being
	// removed.
	Dismissed observe.Signal[*Notification]
	// Closed fires when a notification leaves the live collection.
	Closed observe.Signal[ClosedEvent]
	// ActionInvoked is relayed to the notification daemon.
	ActionInvoked observe.Signal[ActionEvent]
}

// NewStore creates a store persisting through cache. A nil cache
// disables persistence. Cached notifications are restored as dismissed
// history and the id counter continues past the highest restored id.
func NewStore(loop *eventloop.Loop, cache *Cache) *Store {
	s := &Store{
		loop:   loop,
		cache:  cache,
		nextID: 1,
		byID:   make(map[uint32]*Notification),
	}
	if cache == nil {
		return s
	}
	entries, err := cache.Load()
	if err != nil {
		logging.Warn("Failed to read notification cache", zap.Error(err))
		return s
	}
	for _, e := range entries {
		n := e.restore()
		n.dismissed = true
		s.list = append(s.list, n)
		s.byID[n.id] = n
		if n.id >= s.nextID {
			s.nextID = n.id + 1
		}
	}
	return s
}

// Notifications returns the full collection, history included, in
// arrival order.
func (s *Store) Notifications() []*Notification {
	return append([]*Notification(nil), s.list...)
}

// Popups returns the non-dismissed subset, the ones still eligible for
// on-screen display.
func (s *Store) Popups() []*Notification {
	out := make([]*Notification, 0, len(s.list))
	for _, n := range s.list {
		if !n.dismissed {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the notification with the given id, or nil.
func (s *Store) Get(id uint32) *Notification {
	return s.byID[id]
}

// Notify creates a notification or, when replacesID names a live one,
// updates it in place without changing the collection length. The
// expiration is in milliseconds; negative means server default,
// zero disables auto-dismiss. Returns the notification id.
func (s *Store) Notify(appName string, replacesID uint32, summary, body string, actions []string, hints map[string]any, expiration int) uint32 {
	n, replacing := s.byID[replacesID]
	if !replacing {
		n = &Notification{id: s.nextID}
		s.nextID++
		s.list = append(s.list, n)
		s.byID[n.id] = n
	}

	n.appName = appName
	n.summary = summary
	n.body = body
	n.time = time.Now()
	n.dismissed = false
	n.applyHints(hints)
	n.setActions(actions)

	if expiration < 0 {
		expiration = int(DefaultTimeout / time.Millisecond)
	}
	n.timeout = expiration
	s.armTimer(n)

	s.Added.Emit(n)
	s.scheduleSave()
	return n.id
}

// Dismiss marks the notification as history. Terminal and non-removing:
// a dismissed notification stays in the collection but leaves the popup
// set, and its timer never fires again.
func (s *Store) Dismiss(id uint32) {
	n, ok := s.byID[id]
	if !ok || n.dismissed {
		return
	}
	n.stopTimer()
	n.dismissed = true
	s.Dismissed.Emit(n)
	s.scheduleSave()
}

// Close removes the notification from the collection and reports the
// reason to subscribers.
func (s *Store) Close(id uint32, reason CloseReason) {
	n, ok := s.byID[id]
	if !ok {
		return
	}
	n.stopTimer()
	for _, a := range n.actions {
		a.owner = nil
	}
	delete(s.byID, id)
	for i, e := range s.list {
		if e == n {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	s.Closed.Emit(ClosedEvent{ID: id, Reason: reason})
	s.scheduleSave()
}

// Block pauses the auto-dismiss timer while the pointer hovers the
// popup. Nested blocks stack.
func (s *Store) Block(id uint32) {
	n, ok := s.byID[id]
	if !ok {
		return
	}
	n.blocked++
	n.stopTimer()
}

// Unblock releases one hover block; when the last block is released the
// full timeout starts over.
func (s *Store) Unblock(id uint32) {
	n, ok := s.byID[id]
	if !ok || n.blocked == 0 {
		return
	}
	n.blocked--
	if n.blocked == 0 && !n.dismissed {
		s.armTimer(n)
	}
}

// InvokeAction relays an action to subscribers. A non-resident
// notification is dismissed by its own invocation.
func (s *Store) InvokeAction(a *Action) {
	n := a.owner
	if n == nil {
		return
	}
	s.ActionInvoked.Emit(ActionEvent{ID: n.id, ActionID: a.id})
	if !n.resident {
		s.Dismiss(n.id)
	}
}

func (s *Store) armTimer(n *Notification) {
	n.stopTimer()
	if n.timeout <= 0 || n.blocked > 0 {
		return
	}
	id := n.id
	n.timer = s.loop.After(time.Duration(n.timeout)*time.Millisecond, func() {
		s.Dismiss(id)
	})
}

// scheduleSave snapshots the persistable collection and hands it to the
// cache worker; transient notifications never reach disk. The
// completion comes back on the loop and a failed write only logs.
func (s *Store) scheduleSave() {
	if s.cache == nil {
		return
	}
	entries := make([]cacheEntry, 0, len(s.list))
	for _, n := range s.list {
		if n.transient {
			continue
		}
		entries = append(entries, snapshotEntry(n))
	}
	s.cache.Store(entries, func(err error) {
		if err != nil {
			logging.Warn("Failed to write notification cache", zap.Error(err))
		}
	})
}
