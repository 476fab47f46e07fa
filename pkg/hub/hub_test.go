package hub

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	h := New("frames")
	if h.Name() != "frames" {
		t.Errorf("Expected name frames, got %s", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("Hub should not be running before Run")
	}
}

func TestBroadcast_NeverBlocks(t *testing.T) {
	h := New("status")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.BroadcastBinary([]byte{byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
	if h.Dropped() == 0 {
		t.Error("Expected overflowing broadcasts to be counted as dropped")
	}
}

func TestRetainingHub_KeepsLatest(t *testing.T) {
	h := NewRetaining("frames")
	if _, ok := h.Latest(); ok {
		t.Error("Expected no retained message initially")
	}

	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})

	msg, ok := h.Latest()
	if !ok || msg.Type != BinaryMessage || msg.Data[0] != 2 {
		t.Errorf("Expected latest binary message 2, got %+v", msg)
	}
}

func TestPlainHub_DoesNotRetain(t *testing.T) {
	h := New("status")
	if err := h.BroadcastJSON(map[string]int{"a": 1}); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}
	if _, ok := h.Latest(); ok {
		t.Error("Expected plain hub not to retain messages")
	}
}

func TestBroadcastJSON_Invalid(t *testing.T) {
	h := New("status")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("Expected error for unencodable value")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := New("status")
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	deadline := time.Now().Add(time.Second)
	for !h.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !h.IsRunning() {
		t.Fatal("Expected hub to be running")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.IsRunning() {
		t.Error("Expected hub to report stopped")
	}
}
