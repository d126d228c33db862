package websocket

// roomIndex tracks pet room membership both ways: room to members and
// client to room. A client views at most one pet room at a time, and a
// room with no members does not exist. Like the registry it is
// unlocked; the hub's mutex serializes access.
type roomIndex struct {
	rooms    map[string]map[string]struct{}
	byClient map[string]string
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms:    make(map[string]map[string]struct{}),
		byClient: make(map[string]string),
	}
}

// join puts the client into roomID, implicitly leaving any previous
// room. It reports the previous room when a switch happened.
func (ri *roomIndex) join(clientID, roomID string) (prevRoom string, switched bool) {
	if current, ok := ri.byClient[clientID]; ok && current != roomID {
		ri.leave(clientID, current)
		prevRoom, switched = current, true
	}
	members, ok := ri.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		ri.rooms[roomID] = members
	}
	members[clientID] = struct{}{}
	ri.byClient[clientID] = roomID
	return prevRoom, switched
}

// leave removes the client from roomID, deleting the room when it
// empties. Leaving a room the client is not in reports false.
func (ri *roomIndex) leave(clientID, roomID string) bool {
	members, ok := ri.rooms[roomID]
	if !ok {
		return false
	}
	if _, in := members[clientID]; !in {
		return false
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(ri.rooms, roomID)
	}
	delete(ri.byClient, clientID)
	return true
}

// membersOf returns a copy of the room's membership, empty when the
// room does not exist.
func (ri *roomIndex) membersOf(roomID string) []string {
	members := ri.rooms[roomID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// roomOf reports the room the client currently views.
func (ri *roomIndex) roomOf(clientID string) (string, bool) {
	room, ok := ri.byClient[clientID]
	return room, ok
}

func (ri *roomIndex) roomCount() int {
	return len(ri.rooms)
}
