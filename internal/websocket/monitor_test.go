package websocket

import (
	"testing"
	"time"
)

func TestMonitorEvictsStaleConnections(t *testing.T) {
	hub := NewHub(Config{
		SweepInterval: 10 * time.Millisecond,
		StaleTimeout:  40 * time.Millisecond,
	}, nil)
	silent := &fakeConn{}
	hub.Connect("silent", silent, "42")

	go hub.Run()
	defer hub.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount() == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if hub.ConnectionCount() != 0 {
		t.Fatal("silent client should have been evicted by the sweep")
	}
	if silent.closeCount() != 1 {
		t.Errorf("evicted handle should be closed once, got %d", silent.closeCount())
	}
	if got := hub.RoomMembers("42"); len(got) != 0 {
		t.Errorf("solely-occupied room should be gone after eviction, got %v", got)
	}
	if len(hub.OnlineClients()) != 0 {
		t.Error("online_clients should no longer list the evicted client")
	}
}

func TestMonitorKeepsFreshConnections(t *testing.T) {
	hub := NewHub(Config{
		SweepInterval: 10 * time.Millisecond,
		StaleTimeout:  40 * time.Millisecond,
	}, nil)
	lively := &fakeConn{}
	hub.Connect("lively", lively, "")

	go hub.Run()
	defer hub.Stop()

	// Keep heartbeating well inside the threshold.
	for i := 0; i < 15; i++ {
		hub.Heartbeat("lively")
		time.Sleep(10 * time.Millisecond)
	}

	if hub.ConnectionCount() != 1 {
		t.Error("a client heartbeating within the threshold must never be evicted")
	}
}

func TestStopDisconnectsEveryone(t *testing.T) {
	hub := NewHub(Config{
		SweepInterval: 10 * time.Millisecond,
		StaleTimeout:  time.Minute,
	}, nil)
	connA := &fakeConn{}
	connB := &fakeConn{}
	hub.Connect("A", connA, "1")
	hub.Connect("B", connB, "2")

	go hub.Run()
	hub.Stop()

	if hub.ConnectionCount() != 0 {
		t.Errorf("Stop should disconnect all clients, %d remain", hub.ConnectionCount())
	}
	if connA.closeCount() != 1 || connB.closeCount() != 1 {
		t.Errorf("every handle must be closed exactly once, got %d and %d",
			connA.closeCount(), connB.closeCount())
	}

	// Stopping twice must not hang or panic.
	hub.Stop()
}

func TestStopWithoutRun(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil)
	conn := &fakeConn{}
	hub.Connect("A", conn, "")

	// Stop must not block waiting on a monitor that never started.
	done := make(chan struct{})
	go func() {
		hub.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop deadlocked without a running monitor")
	}
	if conn.closeCount() != 1 {
		t.Errorf("handle should still be closed on shutdown, got %d", conn.closeCount())
	}
}
