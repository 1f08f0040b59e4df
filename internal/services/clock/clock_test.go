package clock

import (
	"context"
	"testing"
	"time"

	"github.com/lumenshell/lumen/internal/eventloop"
)

func TestResolution(t *testing.T) {
	tests := []struct {
		format string
		want   time.Duration
	}{
		{"15:04:05", time.Second},
		{"15:04", time.Minute},
		{"Mon 2 Jan 15:04", time.Minute},
		{"3:04:05 PM", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := resolution(tt.format); got != tt.want {
				t.Errorf("resolution(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestClock_StartPublishesImmediately(t *testing.T) {
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

	c := New(loop, "15:04")
	got := make(chan string, 1)
	loop.Post(func() {
		c.Changed.Subscribe(func(text string) {
			select {
			case got <- text:
			default:
			}
		})
		c.Start()
	})

	select {
	case text := <-got:
		if text == "" {
			t.Error("Changed emitted an empty string")
		}
		if text != time.Now().Format("15:04") {
			t.Errorf("Changed emitted %q, want the current minute", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() never published")
	}

	loop.Post(func() { c.Stop() })
}

func TestClock_SetFormatRepublishes(t *testing.T) {
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

	c := New(loop, "15:04")
	texts := make(chan string, 4)
	ready := make(chan struct{})
	loop.Post(func() {
		c.Changed.Subscribe(func(text string) { texts <- text })
		c.Start()
		c.SetFormat("2006-01-02")
		close(ready)
	})
	<-ready

	want := []string{time.Now().Format("15:04"), time.Now().Format("2006-01-02")}
	for _, w := range want {
		select {
		case text := <-texts:
			if text != w {
				t.Errorf("Changed emitted %q, want %q", text, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing publication %q", w)
		}
	}

	loop.Post(func() { c.Stop() })
}
