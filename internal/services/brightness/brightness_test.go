package brightness

import (
	"context"
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

// fakeSysfs lays out a backlight device tree the way the kernel does.
func fakeSysfs(t *testing.T, maxBrightness, brightness string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "intel_backlight")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"max_brightness": maxBrightness,
		"brightness":     brightness,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestOpen_ReadsInitialPercent(t *testing.T) {
	loop := startLoop(t)
	root := fakeSysfs(t, "400\n", "100\n")

	b, err := Open(loop, root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if got := b.Percent(); got != 25 {
		t.Errorf("Percent() = %d, want 25", got)
	}
}

func TestOpen_FailsWithoutDevice(t *testing.T) {
	loop := startLoop(t)

	if _, err := Open(loop, t.TempDir()); err == nil {
		t.Error("Open() on an empty sysfs root should fail")
	}
}

func TestSetPercent_WritesRawValue(t *testing.T) {
	loop := startLoop(t)
	root := fakeSysfs(t, "400", "0")

	b, err := Open(loop, root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if err := b.SetPercent(50); err != nil {
		t.Fatalf("SetPercent() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(b.Device(), "brightness"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "200" {
		t.Errorf("brightness file = %q, want %q", data, "200")
	}
	if got := b.Percent(); got != 50 {
		t.Errorf("Percent() = %d, want 50", got)
	}
}

func TestSetPercent_Clamps(t *testing.T) {
	loop := startLoop(t)
	root := fakeSysfs(t, "400", "0")

	b, err := Open(loop, root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if err := b.SetPercent(150); err != nil {
		t.Fatalf("SetPercent() error = %v", err)
	}
	if got := b.Percent(); got != 100 {
		t.Errorf("Percent() = %d after SetPercent(150), want 100", got)
	}
}

func TestExternalWriteIsPickedUp(t *testing.T) {
	loop := startLoop(t)
	root := fakeSysfs(t, "400", "0")

	b, err := Open(loop, root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	// Another tool changes the brightness behind our back.
	if err := os.WriteFile(filepath.Join(b.Device(), "brightness"), []byte("400"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var got int
		done := make(chan struct{})
		loop.Post(func() {
			got = b.Percent()
			close(done)
		})
		<-done
		if got == 100 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("external brightness write was never picked up")
}
