package notify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
)

func startLoop(t *testing.T) *eventloop.Loop {
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
	return loop
}

// onLoop runs fn on the loop and waits for it to finish.
func onLoop(t *testing.T, loop *eventloop.Loop, fn func()) {
	t.Helper()
	done := make(chan struct{})
	loop.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the event loop")
	}
}

func TestStore_NotifyAllocatesSequentialIDs(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		first := s.Notify("app", 0, "one", "", nil, nil, 0)
		second := s.Notify("app", 0, "two", "", nil, nil, 0)
		if first != 1 || second != 2 {
			t.Errorf("ids = %d, %d, want 1, 2", first, second)
		}
	})
}

func TestStore_ReplaceUpdatesInPlace(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		id := s.Notify("app", 0, "original", "", nil, nil, 0)
		replaced := s.Notify("app", id, "updated", "", nil, nil, 0)

		if replaced != id {
			t.Errorf("replace returned id %d, want the original %d", replaced, id)
		}
		if got := len(s.Notifications()); got != 1 {
			t.Errorf("len(Notifications()) = %d after replace, want 1", got)
		}
		if got := s.Get(id).Summary(); got != "updated" {
			t.Errorf("Summary() = %q after replace, want %q", got, "updated")
		}
	})
}

func TestStore_ReplaceUnknownIDCreatesNew(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		id := s.Notify("app", 99, "summary", "", nil, nil, 0)
		if id != 1 {
			t.Errorf("id = %d for unknown replaces-id, want a fresh 1", id)
		}
	})
}

func TestStore_AutoDismissAfterTimeout(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	var id uint32
	onLoop(t, loop, func() {
		id = s.Notify("app", 0, "summary", "", nil, nil, 30)
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var dismissed bool
		onLoop(t, loop, func() { dismissed = s.Get(id).Dismissed() })
		if dismissed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	onLoop(t, loop, func() {
		if !s.Get(id).Dismissed() {
			t.Fatal("notification did not auto-dismiss after its timeout")
		}
		// Dismissal is terminal and non-removing.
		if got := len(s.Notifications()); got != 1 {
			t.Errorf("len(Notifications()) = %d after auto-dismiss, want 1", got)
		}
		if got := len(s.Popups()); got != 0 {
			t.Errorf("len(Popups()) = %d after auto-dismiss, want 0", got)
		}
	})
}

func TestStore_BlockPausesAutoDismiss(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	var id uint32
	onLoop(t, loop, func() {
		id = s.Notify("app", 0, "summary", "", nil, nil, 30)
		s.Block(id)
	})

	time.Sleep(150 * time.Millisecond)

	onLoop(t, loop, func() {
		if s.Get(id).Dismissed() {
			t.Fatal("blocked notification must not auto-dismiss")
		}
		s.Unblock(id)
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var dismissed bool
		onLoop(t, loop, func() { dismissed = s.Get(id).Dismissed() })
		if dismissed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("notification did not auto-dismiss after unblock")
}

func TestStore_CloseRemovesAndReportsReason(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		var closed []ClosedEvent
		s.Closed.Subscribe(func(e ClosedEvent) { closed = append(closed, e) })

		id := s.Notify("app", 0, "summary", "", []string{"default", "Open"}, nil, 0)
		action := s.Get(id).Actions()[0]

		s.Close(id, ReasonClosed)

		if len(closed) != 1 || closed[0].ID != id || closed[0].Reason != ReasonClosed {
			t.Errorf("closed events = %v, want one event for id %d reason %d", closed, id, ReasonClosed)
		}
		if s.Get(id) != nil {
			t.Error("Get() should return nil after close")
		}

		// Stale action invokes are no-ops once the back-reference clears.
		var invoked []ActionEvent
		s.ActionInvoked.Subscribe(func(e ActionEvent) { invoked = append(invoked, e) })
		s.InvokeAction(action)
		if len(invoked) != 0 {
			t.Errorf("invoked = %v for a removed notification, want none", invoked)
		}
	})
}

func TestStore_InvokeActionDismissesNonResident(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		var invoked []ActionEvent
		s.ActionInvoked.Subscribe(func(e ActionEvent) { invoked = append(invoked, e) })

		id := s.Notify("app", 0, "summary", "", []string{"default", "Open"}, nil, 0)
		s.InvokeAction(s.Get(id).Actions()[0])

		if len(invoked) != 1 || invoked[0].ActionID != "default" {
			t.Fatalf("invoked = %v, want one event for action %q", invoked, "default")
		}
		if !s.Get(id).Dismissed() {
			t.Error("invoking an action on a non-resident notification should dismiss it")
		}

		resident := s.Notify("app", 0, "summary", "", []string{"default", "Open"},
			map[string]any{"resident": true}, 0)
		s.InvokeAction(s.Get(resident).Actions()[0])
		if s.Get(resident).Dismissed() {
			t.Error("a resident notification must survive its action invocation")
		}
	})
}

func TestStore_ImagePathTakesPriorityOverData(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		hints := map[string]any{
			"image-path": "/tmp/icon.png",
			"image-data": []any{1, 1, 1, false, 8, 4, []byte{0xff}},
		}
		id := s.Notify("app", 0, "summary", "", nil, hints, 0)
		n := s.Get(id)
		if n.ImagePath() != "/tmp/icon.png" {
			t.Errorf("ImagePath() = %q, want %q", n.ImagePath(), "/tmp/icon.png")
		}
		if n.ImageData() != "" {
			t.Error("ImageData() should be empty when a path is present")
		}
	})
}

func TestStore_DefaultTimeoutWhenUnspecified(t *testing.T) {
	loop := startLoop(t)
	s := NewStore(loop, nil)

	onLoop(t, loop, func() {
		id := s.Notify("app", 0, "summary", "", nil, nil, -1)
		want := int(DefaultTimeout / time.Millisecond)
		if got := s.Get(id).Timeout(); got != want {
			t.Errorf("Timeout() = %d for unspecified expiration, want %d", got, want)
		}
	})
}

func waitForCacheFile(t *testing.T, path string, entries int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil {
			var got []cacheEntry
			if json.Unmarshal(data, &got) == nil && len(got) == entries {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("cache file %s never reached %d entries", path, entries)
}

func TestStore_CacheReloadMarksHistory(t *testing.T) {
	loop := startLoop(t)
	path := filepath.Join(t.TempDir(), "notifications.json")
	s := NewStore(loop, NewCache(loop, path))

	onLoop(t, loop, func() {
		s.Notify("app", 0, "kept", "", []string{"default", "Open"}, nil, 0)
		s.Notify("app", 0, "fleeting", "", nil, map[string]any{"transient": true}, 0)
		s.Notify("app", 0, "kept too", "", nil, nil, 0)
	})

	// Transient notifications never reach disk.
	waitForCacheFile(t, path, 2)

	restored := NewStore(loop, NewCache(loop, path))
	onLoop(t, loop, func() {
		if got := len(restored.Notifications()); got != 2 {
			t.Fatalf("len(Notifications()) = %d after reload, want 2", got)
		}
		for _, n := range restored.Notifications() {
			if !n.Dismissed() {
				t.Errorf("restored notification %d is not dismissed", n.ID())
			}
		}
		if got := len(restored.Popups()); got != 0 {
			t.Errorf("len(Popups()) = %d after reload, want 0 (history only)", got)
		}

		// The id counter continues past the highest restored id.
		if id := restored.Notify("app", 0, "fresh", "", nil, nil, 0); id != 4 {
			t.Errorf("first fresh id = %d, want max(restored)+1 = 4", id)
		}
	})

	// Drain the write the fresh notification scheduled so it cannot
	// race the TempDir cleanup.
	waitForCacheFile(t, path, 3)
}
