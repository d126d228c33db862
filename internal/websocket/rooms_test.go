package websocket

import "testing"

func TestRoomIndexJoinCreatesRoom(t *testing.T) {
	ri := newRoomIndex()

	prev, switched := ri.join("A", "1")
	if switched || prev != "" {
		t.Errorf("first join must not report a previous room, got %q", prev)
	}
	if got := ri.membersOf("1"); len(got) != 1 || got[0] != "A" {
		t.Errorf("expected [A], got %v", got)
	}
	if room, ok := ri.roomOf("A"); !ok || room != "1" {
		t.Errorf("reverse index should say room 1, got %q", room)
	}
}

func TestRoomIndexSingleRoomInvariant(t *testing.T) {
	ri := newRoomIndex()

	ri.join("A", "1")
	prev, switched := ri.join("A", "2")

	if !switched || prev != "1" {
		t.Errorf("expected switch from room 1, got prev=%q switched=%v", prev, switched)
	}
	if got := ri.membersOf("1"); len(got) != 0 {
		t.Errorf("room 1 should be empty and gone, got %v", got)
	}
	if room, _ := ri.roomOf("A"); room != "2" {
		t.Errorf("A should be in room 2 only, got %q", room)
	}
}

func TestRoomIndexEmptyRoomIsAbsent(t *testing.T) {
	ri := newRoomIndex()

	ri.join("A", "1")
	ri.join("B", "1")
	ri.leave("A", "1")

	if ri.roomCount() != 1 {
		t.Errorf("room with members should persist, count=%d", ri.roomCount())
	}

	ri.leave("B", "1")
	if ri.roomCount() != 0 {
		t.Errorf("empty room must be garbage-collected, count=%d", ri.roomCount())
	}
}

func TestRoomIndexLeaveIsIdempotent(t *testing.T) {
	ri := newRoomIndex()

	if ri.leave("A", "1") {
		t.Error("leaving an absent room should report false")
	}

	ri.join("A", "1")
	if !ri.leave("A", "1") {
		t.Error("first leave should report true")
	}
	if ri.leave("A", "1") {
		t.Error("second leave should be a no-op")
	}
}

func TestRoomIndexMembersOfReturnsCopy(t *testing.T) {
	ri := newRoomIndex()
	ri.join("A", "1")

	members := ri.membersOf("1")
	members[0] = "mutated"

	if got := ri.membersOf("1"); got[0] != "A" {
		t.Error("membersOf must return a copy, internal state was mutated")
	}
}

func TestRoomIndexConsistencyAcrossSequences(t *testing.T) {
	ri := newRoomIndex()

	ops := []struct {
		join bool
		id   string
		room string
	}{
		{true, "A", "1"},
		{true, "B", "1"},
		{true, "A", "2"},
		{false, "B", "1"},
		{true, "B", "2"},
		{true, "C", "2"},
		{false, "A", "2"},
		{true, "A", "1"},
	}

	for _, op := range ops {
		if op.join {
			ri.join(op.id, op.room)
		} else {
			ri.leave(op.id, op.room)
		}

		// Invariant: reverse index and memberships agree at every step.
		for _, room := range []string{"1", "2"} {
			for _, member := range ri.membersOf(room) {
				if got, ok := ri.roomOf(member); !ok || got != room {
					t.Fatalf("after %+v: member %s of room %s has roomOf=%q", op, member, room, got)
				}
			}
		}
	}

	if room, _ := ri.roomOf("A"); room != "1" {
		t.Errorf("A should end in room 1, got %q", room)
	}
	if room, _ := ri.roomOf("B"); room != "2" {
		t.Errorf("B should end in room 2, got %q", room)
	}
}
