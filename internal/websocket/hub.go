package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Presence is the optional collaborator that mirrors connect/disconnect
// into shared presence bookkeeping (Redis).
type Presence interface {
	SetUserOnline(ctx context.Context, clientID string) error
	SetUserOffline(ctx context.Context, clientID string) error
}

// Config holds the heartbeat monitor timings.
type Config struct {
	// SweepInterval is how often the monitor scans for stale connections.
	SweepInterval time.Duration

	// StaleTimeout is how long a client may go without a heartbeat before
	// it is evicted. Two missed sweeps by default.
	StaleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepInterval: 30 * time.Second,
		StaleTimeout:  60 * time.Second,
	}
}

// Hub owns all live-connection and room state and fans state-change events
// out to the users caring for a shared pet. All exported methods are safe
// for concurrent use; one mutex guards the registry and room index so no
// caller observes a half-updated state. Outbound writes always happen
// after the lock is released, so a dead peer cannot stall room operations.
type Hub struct {
	mu       sync.Mutex
	registry *registry
	rooms    *roomIndex

	cfg      Config
	presence Presence

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

func NewHub(cfg Config, presence Presence) *Hub {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = DefaultConfig().StaleTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry: newRegistry(),
		rooms:    newRoomIndex(),
		cfg:      cfg,
		presence: presence,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// target pairs a client id with its handle, snapshotted under the lock so
// delivery can proceed without it.
type target struct {
	id   string
	conn Conn
}

// Connect registers a connection, optionally joins a pet room, and sends
// the new client a connection confirmation. A second connect for the same
// client id replaces the prior entry; the old handle is closed.
func (h *Hub) Connect(clientID string, conn Conn, roomID string) {
	h.mu.Lock()
	displaced := h.registry.register(clientID, conn)
	var joined []target
	if roomID != "" {
		h.rooms.join(clientID, roomID)
		joined = h.targetsLocked(h.rooms.membersOf(roomID), clientID)
	}
	h.mu.Unlock()

	if displaced != nil {
		slog.Info("Replacing existing connection", "clientID", clientID)
		displaced.Close()
	}

	if h.presence != nil {
		if err := h.presence.SetUserOnline(h.ctx, clientID); err != nil {
			slog.Error("Failed to set user online", "clientID", clientID, "error", err)
		}
	}

	if roomID != "" {
		h.deliver(joined, NewUserJoined(clientID, roomID))
	}
	h.send(clientID, conn, NewConnectEnvelope(clientID))

	slog.Info("Client connected", "clientID", clientID, "roomID", roomID)
}

// Disconnect is the single teardown path, invoked from explicit requests,
// send failures and heartbeat timeouts. It is idempotent and safe under
// concurrent triggers: the handle is closed exactly once and at most one
// "user left" notice is emitted.
func (h *Hub) Disconnect(clientID string) {
	h.teardown(clientID, nil)
}

// disconnectConn tears the client down only while conn is still its
// registered handle. Transport callbacks and send-failure paths hold a
// handle snapshot that may since have been replaced by a newer session
// for the same client id; those triggers must never evict the
// replacement.
func (h *Hub) disconnectConn(clientID string, conn Conn) {
	h.teardown(clientID, conn)
}

func (h *Hub) teardown(clientID string, expect Conn) {
	h.mu.Lock()
	if expect != nil {
		if current, ok := h.registry.get(clientID); !ok || current != expect {
			h.mu.Unlock()
			return
		}
	}
	conn, removed := h.registry.remove(clientID)
	var remaining []target
	var roomID string
	if room, ok := h.rooms.roomOf(clientID); ok {
		roomID = room
		h.rooms.leave(clientID, room)
		remaining = h.targetsLocked(h.rooms.membersOf(room), clientID)
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	if err := conn.Close(); err != nil {
		slog.Debug("Error closing connection", "clientID", clientID, "error", err)
	}

	if h.presence != nil {
		if err := h.presence.SetUserOffline(h.ctx, clientID); err != nil {
			slog.Error("Failed to set user offline", "clientID", clientID, "error", err)
		}
	}

	if roomID != "" {
		h.deliver(remaining, NewUserLeft(clientID, roomID))
	}

	slog.Info("Client disconnected", "clientID", clientID)
}

// JoinRoom adds the client to a pet room, implicitly leaving any previous
// one. The old room's other members get a "user left" notice and the new
// room's other members a "user joined" notice; the client itself gets
// neither. Joining without a live connection is a no-op.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	if _, ok := h.registry.get(clientID); !ok {
		h.mu.Unlock()
		return
	}
	if current, ok := h.rooms.roomOf(clientID); ok && current == roomID {
		h.mu.Unlock()
		return
	}
	prevRoom, switched := h.rooms.join(clientID, roomID)
	var oldRemaining []target
	if switched {
		oldRemaining = h.targetsLocked(h.rooms.membersOf(prevRoom), clientID)
	}
	newOthers := h.targetsLocked(h.rooms.membersOf(roomID), clientID)
	h.mu.Unlock()

	if switched {
		h.deliver(oldRemaining, NewUserLeft(clientID, prevRoom))
	}
	h.deliver(newOthers, NewUserJoined(clientID, roomID))

	slog.Info("Client joined pet room", "clientID", clientID, "roomID", roomID)
}

// LeaveRoom removes the client from a pet room. Leaving a room the client
// does not belong to is a no-op.
func (h *Hub) LeaveRoom(clientID, roomID string) {
	h.mu.Lock()
	left := h.rooms.leave(clientID, roomID)
	var remaining []target
	if left {
		remaining = h.targetsLocked(h.rooms.membersOf(roomID), clientID)
	}
	h.mu.Unlock()

	if !left {
		return
	}
	h.deliver(remaining, NewUserLeft(clientID, roomID))

	slog.Info("Client left pet room", "clientID", clientID, "roomID", roomID)
}

// SendToOne delivers an envelope to a single client, best effort. A send
// failure disconnects that client rather than surfacing an error.
func (h *Hub) SendToOne(clientID string, env *Envelope) {
	h.mu.Lock()
	conn, ok := h.registry.get(clientID)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.send(clientID, conn, env)
}

// BroadcastAll delivers an envelope to every registered client except the
// excluded ids. Per-recipient failures are isolated and trigger that
// peer's disconnect.
func (h *Hub) BroadcastAll(env *Envelope, exclude ...string) {
	h.mu.Lock()
	targets := h.targetsLocked(h.registry.snapshot(), exclude...)
	h.mu.Unlock()
	h.deliver(targets, env)
}

// BroadcastToRoom delivers an envelope to every member of a pet room
// except the excluded ids.
func (h *Hub) BroadcastToRoom(roomID string, env *Envelope, exclude ...string) {
	h.mu.Lock()
	targets := h.targetsLocked(h.rooms.membersOf(roomID), exclude...)
	h.mu.Unlock()
	h.deliver(targets, env)
}

// SendMetricsUpdate pushes a pet metrics snapshot to the pet's room.
func (h *Hub) SendMetricsUpdate(roomID string, metrics map[string]interface{}) {
	h.BroadcastToRoom(roomID, NewMetricsUpdate(roomID, metrics))
}

// SendTaskUpdate pushes a task event of the given kind to the pet's room.
func (h *Hub) SendTaskUpdate(roomID string, kind MessageType, task map[string]interface{}) {
	h.BroadcastToRoom(roomID, NewTaskUpdate(kind, roomID, task))
}

// SendNotification delivers a notification to one user. Priority
// "critical" maps to the alert envelope class.
func (h *Hub) SendNotification(clientID string, content interface{}, priority string) {
	h.SendToOne(clientID, NewNotification(content, priority))
}

// Heartbeat refreshes the client's liveness timestamp and acknowledges it.
// Unknown clients are ignored; the connection may have just been evicted.
func (h *Hub) Heartbeat(clientID string) {
	h.mu.Lock()
	alive := h.registry.touch(clientID)
	var conn Conn
	if alive {
		conn, _ = h.registry.get(clientID)
	}
	h.mu.Unlock()

	if alive && conn != nil {
		h.send(clientID, conn, NewHeartbeatAck())
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.count()
}

// RoomMembers returns a copy of a pet room's membership.
func (h *Hub) RoomMembers(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.membersOf(roomID)
}

// RoomOf reports which pet room the client currently views.
func (h *Hub) RoomOf(clientID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.roomOf(clientID)
}

// OnlineClients returns a copy of all connected client ids.
func (h *Hub) OnlineClients() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.snapshot()
}

// targetsLocked snapshots handles for the given ids, skipping the excluded
// ones and any id without a live connection. Callers must hold h.mu.
func (h *Hub) targetsLocked(ids []string, exclude ...string) []target {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	targets := make([]target, 0, len(ids))
	for _, id := range ids {
		if _, skip := excluded[id]; skip {
			continue
		}
		if conn, ok := h.registry.get(id); ok {
			targets = append(targets, target{id: id, conn: conn})
		}
	}
	return targets
}

// deliver writes an envelope to each target. Must be called without h.mu
// held: a failed write disconnects that peer, which re-enters the lock.
func (h *Hub) deliver(targets []target, env *Envelope) {
	if len(targets) == 0 {
		return
	}
	data, err := env.Marshal()
	if err != nil {
		slog.Error("Failed to marshal envelope", "type", env.Type, "error", err)
		return
	}
	for _, tgt := range targets {
		if err := tgt.conn.Send(data); err != nil {
			slog.Warn("Send failed, disconnecting peer", "clientID", tgt.id, "type", env.Type, "error", err)
			h.disconnectConn(tgt.id, tgt.conn)
		}
	}
}

// send marshals and writes one envelope to one client.
func (h *Hub) send(clientID string, conn Conn, env *Envelope) {
	data, err := env.Marshal()
	if err != nil {
		slog.Error("Failed to marshal envelope", "type", env.Type, "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("Send failed, disconnecting peer", "clientID", clientID, "type", env.Type, "error", err)
		h.disconnectConn(clientID, conn)
	}
}
