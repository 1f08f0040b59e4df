package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/keyfile"
)

// startLoop runs an event loop for the duration of the test.
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

func writeConfig(t *testing.T, path string, mutate func(*Config)) {
	t.Helper()
	c := Default()
	if mutate != nil {
		mutate(c)
	}
	store := keyfile.New()
	c.Store(store)
	if err := store.WriteFile(path); err != nil {
		t.Fatal(err)
	}
}

// settle waits out the debounce window plus scheduling slack.
func settle() {
	time.Sleep(DebounceDelay + 400*time.Millisecond)
}

func TestWatcher_WritesDefaultWhenMissing(t *testing.T) {
	loop := startLoop(t)
	path := filepath.Join(t.TempDir(), "lumen.ini")

	w, err := NewWatcher(loop, path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}

	onLoop(t, loop, func() {
		if !w.Current().Equal(Default()) {
			t.Error("Current() should equal Default() after writing the default file")
		}
	})

	// The freshly written file must load back to the same tree.
	store, err := keyfile.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if !Load(store).Equal(Default()) {
		t.Error("written default file does not round-trip to Default()")
	}
}

func TestWatcher_DebouncesBurstsIntoOneReload(t *testing.T) {
	loop := startLoop(t)
	path := filepath.Join(t.TempDir(), "lumen.ini")
	writeConfig(t, path, nil)

	w, err := NewWatcher(loop, path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	var published int
	onLoop(t, loop, func() {
		w.Subscribe(func(*Config) { published++ })
	})

	// A burst of writes within the debounce window. Only the last
	// content matters and only one reload may be attempted.
	for i := 1; i <= 4; i++ {
		margin := i
		writeConfig(t, path, func(c *Config) { c.Panel.Margin = margin })
		time.Sleep(20 * time.Millisecond)
	}

	settle()

	onLoop(t, loop, func() {
		if published != 1 {
			t.Errorf("published %d times, want exactly 1", published)
		}
		if got := w.Current().Panel.Margin; got != 4 {
			t.Errorf("Current().Panel.Margin = %d, want 4 (last write wins)", got)
		}
	})
}

func TestWatcher_MalformedReloadKeepsCurrentTree(t *testing.T) {
	loop := startLoop(t)
	path := filepath.Join(t.TempDir(), "lumen.ini")
	writeConfig(t, path, func(c *Config) { c.Panel.Margin = 3 })

	w, err := NewWatcher(loop, path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	var published int
	onLoop(t, loop, func() {
		w.Subscribe(func(*Config) { published++ })
	})

	if err := os.WriteFile(path, []byte("[unclosed\ngarbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	settle()

	onLoop(t, loop, func() {
		if published != 0 {
			t.Errorf("published %d times after a malformed write, want 0", published)
		}
		if got := w.Current().Panel.Margin; got != 3 {
			t.Errorf("Current().Panel.Margin = %d, want the pre-corruption value 3", got)
		}
	})

	// A subsequent valid write still reloads.
	writeConfig(t, path, func(c *Config) { c.Panel.Margin = 9 })
	settle()

	onLoop(t, loop, func() {
		if published != 1 {
			t.Errorf("published %d times after recovery, want 1", published)
		}
		if got := w.Current().Panel.Margin; got != 9 {
			t.Errorf("Current().Panel.Margin = %d, want 9", got)
		}
	})
}

func TestWatcher_EqualTreeIsNotPublished(t *testing.T) {
	loop := startLoop(t)
	path := filepath.Join(t.TempDir(), "lumen.ini")
	writeConfig(t, path, nil)

	w, err := NewWatcher(loop, path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	var published int
	onLoop(t, loop, func() {
		w.Subscribe(func(*Config) { published++ })
	})

	// Rewrite identical content; the reload runs but must not publish.
	writeConfig(t, path, nil)
	settle()

	onLoop(t, loop, func() {
		if published != 0 {
			t.Errorf("published %d times for an unchanged tree, want 0", published)
		}
	})
}

func TestWatcher_FollowsSymlinkTarget(t *testing.T) {
	loop := startLoop(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "store", "lumen.ini")
	link := filepath.Join(dir, "lumen.ini")

	writeConfig(t, target, nil)
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlinks here: %v", err)
	}

	w, err := NewWatcher(loop, link)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	var published int
	onLoop(t, loop, func() {
		w.Subscribe(func(*Config) { published++ })
	})

	// Modify the target, not the symlink path.
	writeConfig(t, target, func(c *Config) { c.Launcher.Width = 777 })
	settle()

	onLoop(t, loop, func() {
		if published != 1 {
			t.Errorf("published %d times after target write, want 1", published)
		}
		if got := w.Current().Launcher.Width; got != 777 {
			t.Errorf("Current().Launcher.Width = %d, want 777", got)
		}
	})
}
