package websocket

import "time"

// Conn is the transport handle the hub holds per client. The gorilla
// Client satisfies it in production; tests substitute a recorder.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// entry pairs a handle with its last observed heartbeat.
type entry struct {
	conn          Conn
	lastHeartbeat time.Time
}

// registry tracks every live connection. It carries no lock of its own:
// the hub's mutex serializes all access.
type registry struct {
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

// register stores a connection under the client id and hands back the
// displaced handle, if any, so the caller can close it.
func (r *registry) register(clientID string, conn Conn) Conn {
	var displaced Conn
	if prev, ok := r.entries[clientID]; ok {
		displaced = prev.conn
	}
	r.entries[clientID] = &entry{conn: conn, lastHeartbeat: time.Now()}
	return displaced
}

// touch refreshes the client's heartbeat timestamp.
func (r *registry) touch(clientID string) bool {
	e, ok := r.entries[clientID]
	if !ok {
		return false
	}
	e.lastHeartbeat = time.Now()
	return true
}

// remove deletes the client and hands its handle back exactly once.
func (r *registry) remove(clientID string) (Conn, bool) {
	e, ok := r.entries[clientID]
	if !ok {
		return nil, false
	}
	delete(r.entries, clientID)
	return e.conn, true
}

func (r *registry) get(clientID string) (Conn, bool) {
	e, ok := r.entries[clientID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// snapshot returns a copy of all client ids.
func (r *registry) snapshot() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// staleSince returns the clients whose last heartbeat predates the cutoff.
func (r *registry) staleSince(cutoff time.Time) []string {
	var stale []string
	for id, e := range r.entries {
		if e.lastHeartbeat.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

func (r *registry) count() int {
	return len(r.entries)
}
