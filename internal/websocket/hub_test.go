package websocket

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeConn records every envelope the hub delivers to it.
type fakeConn struct {
	mu        sync.Mutex
	envelopes []Envelope
	closes    int
	failSends bool
}

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends {
		return errors.New("broken pipe")
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	f.envelopes = append(f.envelopes, env)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeConn) received(kind MessageType) []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Envelope
	for _, env := range f.envelopes {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) types() []MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MessageType, len(f.envelopes))
	for i, env := range f.envelopes {
		out[i] = env.Type
	}
	return out
}

func newTestHub() *Hub {
	return NewHub(DefaultConfig(), nil)
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestConnectSendsConfirmation(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}

	hub.Connect("A", conn, "")

	got := conn.received(MessageTypeConnect)
	if len(got) != 1 {
		t.Fatalf("expected 1 connect envelope, got %d", len(got))
	}
	if got[0].ClientID != "A" {
		t.Errorf("expected client_id A, got %q", got[0].ClientID)
	}
	if got[0].Timestamp == "" {
		t.Error("connect envelope should carry a timestamp")
	}
	if _, err := time.Parse(time.RFC3339, got[0].Timestamp); err != nil {
		t.Errorf("timestamp is not RFC3339: %v", err)
	}
}

func TestConnectReplacesExistingConnection(t *testing.T) {
	hub := newTestHub()
	first := &fakeConn{}
	second := &fakeConn{}

	hub.Connect("A", first, "")
	hub.Connect("A", second, "")

	if first.closeCount() != 1 {
		t.Errorf("displaced handle should be closed once, got %d", first.closeCount())
	}
	if hub.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection after replacement, got %d", hub.ConnectionCount())
	}
}

func TestStaleHandleCannotEvictReplacement(t *testing.T) {
	hub := newTestHub()
	first := &fakeConn{}
	second := &fakeConn{}

	hub.Connect("A", first, "42")
	hub.Connect("A", second, "42")

	// The displaced session's teardown trigger carries its own handle
	// and must be a no-op now that the registry holds the new one.
	hub.disconnectConn("A", first)

	if hub.ConnectionCount() != 1 {
		t.Fatalf("expected replacement to survive stale teardown, got %d connections", hub.ConnectionCount())
	}
	if got, _ := hub.RoomOf("A"); got != "42" {
		t.Errorf("expected A to stay in room 42, got %q", got)
	}
	if second.closeCount() != 0 {
		t.Errorf("replacement handle must not be closed, got %d closes", second.closeCount())
	}

	// The current handle remains a valid trigger.
	hub.disconnectConn("A", second)
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected current handle to tear down, got %d connections", hub.ConnectionCount())
	}
}

func TestJoinNotifiesOthersNotSelf(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	hub.Connect("A", connA, "42")
	hub.Connect("B", connB, "42")

	joined := connA.received(MessageTypeUserJoined)
	if len(joined) != 1 {
		t.Fatalf("A should see exactly one user_joined, got %d", len(joined))
	}
	if joined[0].UserID != "B" || joined[0].PetID != "42" {
		t.Errorf("unexpected join notice: %+v", joined[0])
	}
	if len(connB.received(MessageTypeUserJoined)) != 0 {
		t.Error("joining client must not receive its own join notice")
	}
}

func TestJoinSwitchesRooms(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	connC := &fakeConn{}

	hub.Connect("A", connA, "1")
	hub.Connect("B", connB, "1")
	hub.Connect("C", connC, "2")

	hub.JoinRoom("A", "2")

	if room, _ := hub.RoomOf("A"); room != "2" {
		t.Errorf("A should be in room 2, got %q", room)
	}
	if got := hub.RoomMembers("1"); len(got) != 1 || got[0] != "B" {
		t.Errorf("room 1 should contain only B, got %v", got)
	}
	if got := sorted(hub.RoomMembers("2")); len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("room 2 should contain A and C, got %v", got)
	}

	left := connB.received(MessageTypeUserLeft)
	if len(left) != 1 || left[0].UserID != "A" || left[0].PetID != "1" {
		t.Errorf("B should see A leave room 1, got %v", left)
	}
	joined := connC.received(MessageTypeUserJoined)
	if len(joined) != 1 || joined[0].UserID != "A" || joined[0].PetID != "2" {
		t.Errorf("C should see A join room 2, got %v", joined)
	}
}

func TestJoinSameRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	hub.Connect("A", connA, "1")
	hub.Connect("B", connB, "1")

	hub.JoinRoom("B", "1")

	if got := connA.received(MessageTypeUserJoined); len(got) != 1 {
		t.Errorf("rejoining the same room must not re-announce, got %d notices", len(got))
	}
}

func TestJoinWithoutConnectionIsNoop(t *testing.T) {
	hub := newTestHub()

	hub.JoinRoom("ghost", "1")

	if got := hub.RoomMembers("1"); len(got) != 0 {
		t.Errorf("unregistered client must not join a room, got %v", got)
	}
}

func TestLeaveGarbageCollectsEmptyRoom(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}

	hub.Connect("A", conn, "42")
	hub.LeaveRoom("A", "42")

	if got := hub.RoomMembers("42"); len(got) != 0 {
		t.Errorf("empty room should be gone, members=%v", got)
	}
	if _, ok := hub.RoomOf("A"); ok {
		t.Error("reverse index should be cleared on leave")
	}
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}

	hub.Connect("A", conn, "1")
	hub.LeaveRoom("A", "99")

	if room, _ := hub.RoomOf("A"); room != "1" {
		t.Errorf("leaving a foreign room must not move A, got %q", room)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	hub.Connect("A", connA, "42")
	hub.Connect("B", connB, "42")

	hub.Disconnect("B")
	hub.Disconnect("B")

	if connB.closeCount() != 1 {
		t.Errorf("handle must be closed exactly once, got %d", connB.closeCount())
	}
	if got := connA.received(MessageTypeUserLeft); len(got) != 1 {
		t.Errorf("at most one user_left notice, got %d", len(got))
	}
}

func TestDisconnectConcurrentTriggers(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	hub.Connect("A", connA, "42")
	hub.Connect("B", connB, "42")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Disconnect("B")
		}()
	}
	wg.Wait()

	if connB.closeCount() != 1 {
		t.Errorf("handle must be closed exactly once under racing triggers, got %d", connB.closeCount())
	}
	if got := connA.received(MessageTypeUserLeft); len(got) != 1 {
		t.Errorf("racing triggers must emit at most one user_left, got %d", len(got))
	}
}

func TestBroadcastToRoomRespectsExclusion(t *testing.T) {
	hub := newTestHub()
	conns := map[string]*fakeConn{}
	for _, id := range []string{"A", "B", "C"} {
		conns[id] = &fakeConn{}
		hub.Connect(id, conns[id], "42")
	}
	outsider := &fakeConn{}
	hub.Connect("D", outsider, "7")

	hub.BroadcastToRoom("42", NewChatMessage("A", "42", "hi"), "C")

	if len(conns["A"].received(MessageTypeMessage)) != 1 {
		t.Error("A should receive the room broadcast")
	}
	if len(conns["B"].received(MessageTypeMessage)) != 1 {
		t.Error("B should receive the room broadcast")
	}
	if len(conns["C"].received(MessageTypeMessage)) != 0 {
		t.Error("excluded member C must not receive the broadcast")
	}
	if len(outsider.received(MessageTypeMessage)) != 0 {
		t.Error("client outside the room must not receive the broadcast")
	}
}

func TestBroadcastAll(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	hub.Connect("A", connA, "")
	hub.Connect("B", connB, "")

	hub.BroadcastAll(NewNotification("server restart soon", "normal"), "A")

	if len(connA.received(MessageTypeNotification)) != 0 {
		t.Error("excluded client must be skipped")
	}
	if len(connB.received(MessageTypeNotification)) != 1 {
		t.Error("B should receive the global broadcast")
	}
}

func TestSendFailureDisconnectsPeer(t *testing.T) {
	hub := newTestHub()
	good := &fakeConn{}
	bad := &fakeConn{failSends: true}

	hub.Connect("good", good, "42")
	hub.Connect("bad", bad, "42")

	hub.BroadcastToRoom("42", NewChatMessage("good", "42", "still here?"))

	if hub.ConnectionCount() != 1 {
		t.Errorf("broken peer should be evicted, count=%d", hub.ConnectionCount())
	}
	if bad.closeCount() != 1 {
		t.Errorf("broken peer handle should be closed once, got %d", bad.closeCount())
	}
	if len(good.received(MessageTypeMessage)) != 1 {
		t.Error("one bad peer must not block delivery to others")
	}
	// The survivor also learns the broken peer left the room.
	if got := good.received(MessageTypeUserLeft); len(got) != 1 || got[0].UserID != "bad" {
		t.Errorf("expected user_left for the evicted peer, got %v", got)
	}
}

func TestHeartbeatAck(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Connect("A", conn, "")

	hub.Heartbeat("A")

	acks := conn.received(MessageTypeHeartbeat)
	if len(acks) != 1 {
		t.Fatalf("expected 1 heartbeat ack, got %d", len(acks))
	}
	if acks[0].Status != "alive" {
		t.Errorf("expected status alive, got %q", acks[0].Status)
	}
}

func TestHeartbeatUnknownClientIsNoop(t *testing.T) {
	hub := newTestHub()
	// Must not panic or register anything.
	hub.Heartbeat("ghost")
	if hub.ConnectionCount() != 0 {
		t.Errorf("heartbeat must not create connections, count=%d", hub.ConnectionCount())
	}
}

func TestSendNotificationPriorityMapping(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Connect("A", conn, "")

	hub.SendNotification("A", "water the plants", "normal")
	hub.SendNotification("A", "pet is sick!", "critical")

	if len(conn.received(MessageTypeNotification)) != 1 {
		t.Error("normal priority should map to notification")
	}
	alerts := conn.received(MessageTypeAlert)
	if len(alerts) != 1 {
		t.Fatal("critical priority should map to alert")
	}
	if alerts[0].Priority != "critical" {
		t.Errorf("alert should keep its priority, got %q", alerts[0].Priority)
	}
}

// TestCollaborativeCareScenario walks the end-to-end flow of two users
// caring for the same pet.
func TestCollaborativeCareScenario(t *testing.T) {
	hub := newTestHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	hub.Connect("A", connA, "42")
	hub.Connect("B", connB, "42")

	joined := connA.received(MessageTypeUserJoined)
	if len(joined) != 1 || joined[0].UserID != "B" {
		t.Fatalf("A should see B join, got %v", joined)
	}

	hub.SendMetricsUpdate("42", map[string]interface{}{"hunger": 10.0, "happiness": 80.0})

	for name, conn := range map[string]*fakeConn{"A": connA, "B": connB} {
		updates := conn.received(MessageTypePetMetricsUpdate)
		if len(updates) != 1 {
			t.Fatalf("%s should receive the metrics update, got %d", name, len(updates))
		}
		if updates[0].PetID != "42" {
			t.Errorf("%s: expected pet_id 42, got %q", name, updates[0].PetID)
		}
		if updates[0].Metrics["hunger"] != 10.0 {
			t.Errorf("%s: expected hunger 10, got %v", name, updates[0].Metrics["hunger"])
		}
	}

	hub.Disconnect("B")

	left := connA.received(MessageTypeUserLeft)
	if len(left) != 1 || left[0].UserID != "B" {
		t.Fatalf("A should see B leave, got %v", left)
	}
	if got := hub.RoomMembers("42"); len(got) != 1 || got[0] != "A" {
		t.Errorf("room 42 should contain only A, got %v", got)
	}
}

func TestSendTaskUpdateKinds(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{}
	hub.Connect("A", conn, "42")

	hub.SendTaskUpdate("42", MessageTypeTaskCompleted, map[string]interface{}{"title": "walk the cat"})

	got := conn.received(MessageTypeTaskCompleted)
	if len(got) != 1 {
		t.Fatalf("expected 1 task_completed envelope, got %d", len(got))
	}
	if got[0].Task["title"] != "walk the cat" {
		t.Errorf("unexpected task payload: %v", got[0].Task)
	}
}

func TestConcurrentOperationsKeepStateConsistent(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	ids := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	rooms := []string{"1", "2", "3"}

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			hub.Connect(id, &fakeConn{}, "")
			for i := 0; i < 50; i++ {
				hub.JoinRoom(id, rooms[i%len(rooms)])
				hub.Heartbeat(id)
			}
		}(id)
	}
	wg.Wait()

	// Every client is in exactly one room, and room memberships agree
	// with the reverse index.
	seen := map[string]string{}
	for _, room := range rooms {
		for _, member := range hub.RoomMembers(room) {
			if prev, dup := seen[member]; dup {
				t.Fatalf("client %s is in rooms %s and %s", member, prev, room)
			}
			seen[member] = room
			if got, ok := hub.RoomOf(member); !ok || got != room {
				t.Errorf("RoomOf(%s)=%q, membership says %q", member, got, room)
			}
		}
	}
	if len(seen) != len(ids) {
		t.Errorf("expected %d clients in rooms, got %d", len(ids), len(seen))
	}
}
