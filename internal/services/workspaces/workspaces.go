// Package workspaces reconciles compositor workspace events into an
// id-sorted list with an active marker. The compositor IPC itself sits
// behind the Source interface so any protocol can feed the reconciler.
package workspaces

import (
	"sort"

	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// ID identifies a workspace within the compositor.
type ID int

// Workspace is one published workspace row.
type Workspace struct {
	ID     ID
	Name   string
	Active bool
}

// Source is the mutating half of the compositor API.
type Source interface {
	Activate(id ID) error
}

// Reconciler mirrors the compositor's workspace set. All methods must
// be called on the event loop.
type Reconciler struct {
	loop   *eventloop.Loop
	source Source

	names  map[ID]string
	active ID

	// Changed fires with the sorted list after any update.
	Changed observe.Signal[[]Workspace]
}

// New creates an empty reconciler driving source for activation.
func New(loop *eventloop.Loop, source Source) *Reconciler {
	return &Reconciler{
		loop:   loop,
		source: source,
		names:  make(map[ID]string),
	}
}

// Workspaces returns the current list sorted by id, with the active
// workspace marked.
func (r *Reconciler) Workspaces() []Workspace {
	out := make([]Workspace, 0, len(r.names))
	for id, name := range r.names {
		out = append(out, Workspace{ID: id, Name: name, Active: id == r.active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Active returns the active workspace id, or 0 when none is known.
func (r *Reconciler) Active() ID {
	return r.active
}

// Upsert feeds a workspace-created or renamed event.
func (r *Reconciler) Upsert(id ID, name string) {
	if existing, ok := r.names[id]; ok && existing == name {
		return
	}
	r.names[id] = name
	r.publish()
}

// Remove feeds a workspace-destroyed event. Removing the active
// workspace clears the marker until the compositor reports a new one.
func (r *Reconciler) Remove(id ID) {
	if _, ok := r.names[id]; !ok {
		return
	}
	delete(r.names, id)
	if r.active == id {
		r.active = 0
	}
	r.publish()
}

// SetActive feeds a focus-change event.
func (r *Reconciler) SetActive(id ID) {
	if r.active == id {
		return
	}
	r.active = id
	r.publish()
}

// Activate asks the compositor to focus a workspace. The focus-change
// event confirms it.
func (r *Reconciler) Activate(id ID) {
	source := r.source
	go func() {
		if err := source.Activate(id); err != nil {
			r.loop.Post(func() {
				logging.Warn("Failed to activate workspace",
					zap.Int("workspace", int(id)), zap.Error(err))
			})
		}
	}()
}

func (r *Reconciler) publish() {
	r.Changed.Emit(r.Workspaces())
}
