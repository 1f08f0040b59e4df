package workspaces

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
)

type fakeSource struct {
	activated atomic.Int32
}

func (f *fakeSource) Activate(id ID) error {
	f.activated.Store(int32(id))
	return nil
}

func newTestReconciler(t *testing.T) (*Reconciler, *fakeSource) {
	t.Helper()
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	source := &fakeSource{}
	return New(loop, source), source
}

func TestReconciler_ListIsSortedByID(t *testing.T) {
	r, _ := newTestReconciler(t)

	r.Upsert(3, "web")
	r.Upsert(1, "term")
	r.Upsert(2, "mail")

	list := r.Workspaces()
	if len(list) != 3 {
		t.Fatalf("len(Workspaces()) = %d, want 3", len(list))
	}
	for i, want := range []ID{1, 2, 3} {
		if list[i].ID != want {
			t.Errorf("Workspaces()[%d].ID = %d, want %d", i, list[i].ID, want)
		}
	}
}

func TestReconciler_ActiveMarkerMoves(t *testing.T) {
	r, _ := newTestReconciler(t)

	r.Upsert(1, "term")
	r.Upsert(2, "web")
	r.SetActive(1)

	if list := r.Workspaces(); !list[0].Active || list[1].Active {
		t.Errorf("Workspaces() = %v, want only workspace 1 active", list)
	}

	r.SetActive(2)
	if list := r.Workspaces(); list[0].Active || !list[1].Active {
		t.Errorf("Workspaces() = %v, want only workspace 2 active", list)
	}
}

func TestReconciler_RemovingActiveClearsMarker(t *testing.T) {
	r, _ := newTestReconciler(t)

	r.Upsert(1, "term")
	r.SetActive(1)
	r.Remove(1)

	if got := r.Active(); got != 0 {
		t.Errorf("Active() = %d after removing the active workspace, want 0", got)
	}
}

func TestReconciler_ActivateReachesSource(t *testing.T) {
	r, source := newTestReconciler(t)

	r.Upsert(1, "term")
	r.Activate(1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if source.activated.Load() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Activate() never reached the source")
}

func TestReconciler_UnchangedUpsertDoesNotPublish(t *testing.T) {
	r, _ := newTestReconciler(t)

	var published int
	r.Changed.Subscribe(func([]Workspace) { published++ })

	r.Upsert(1, "term")
	r.Upsert(1, "term")

	if published != 1 {
		t.Errorf("Changed fired %d times, want 1", published)
	}
}
