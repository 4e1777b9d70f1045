package hub

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"coderhub-relay-server/domain"
)

var (
	ErrRoomLocked = errors.New("room is locked")
	ErrNotAdmin   = errors.New("not the room admin")
)

type member struct {
	conn     domain.Connection
	username string
	joinedAt time.Time
}

// room is the mutable state shared by one collaboration session. Rooms
// are created lazily on first join and deleted when the last member
// leaves, which also discards the document and clears admin and lock.
type room struct {
	members  map[string]*member
	document string
	language string
	admin    string
	locked   bool
	mu       sync.RWMutex
}

type Hub struct {
	rooms           map[string]*room
	defaultLanguage string
	mu              sync.RWMutex
}

func New(defaultLanguage string) *Hub {
	return &Hub{
		rooms:           make(map[string]*room),
		defaultLanguage: defaultLanguage,
	}
}

// JoinState is everything the caller needs after an admitted join: the
// membership broadcast fields plus the snapshot for the joiner.
type JoinState struct {
	Joined   domain.Member
	Members  []domain.Member
	Admin    string
	Locked   bool
	Document string
	Language string
}

// LeaveState mirrors JoinState for a departure. Members, Admin and
// Locked are only meaningful when Empty is false.
type LeaveState struct {
	Left    domain.Member
	Members []domain.Member
	Admin   string
	Locked  bool
	Empty   bool
}

// Join admits conn into roomID, creating the room if needed. A locked
// room rejects every username except the current admin's. The first
// member of a fresh room becomes admin. A connection already in the
// room is refreshed rather than duplicated, and keeps the admin role
// it holds.
func (h *Hub) Join(conn domain.Connection, roomID, username string, joinedAt time.Time) (JoinState, error) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		r = &room{
			members:  make(map[string]*member),
			language: h.defaultLanguage,
		}
		h.rooms[roomID] = r
		metricOpenRooms.Inc()
		slog.Debug("room created", "room", roomID)
	}
	r.mu.Lock()
	h.mu.Unlock()
	defer r.mu.Unlock()

	if r.locked && username != r.admin {
		metricJoinsRejected.Inc()
		return JoinState{}, ErrRoomLocked
	}

	if prev, rejoin := r.members[conn.ID()]; rejoin {
		// Same connection joining its room again: refresh the entry in
		// place. Admin follows a renamed member when the old name held
		// it and no other member still carries that name.
		r.members[conn.ID()] = &member{conn: conn, username: username, joinedAt: joinedAt}
		if r.admin == prev.username && !r.hasMemberNamed(prev.username) {
			r.admin = username
		}
	} else {
		if len(r.members) == 0 {
			r.admin = username
		}
		r.members[conn.ID()] = &member{conn: conn, username: username, joinedAt: joinedAt}
		metricConnectedClients.Inc()
	}

	slog.Info("client joined", "room", roomID, "clientId", conn.ID(), "username", username, "clients", len(r.members))

	return JoinState{
		Joined:   domain.Member{ClientID: conn.ID(), Username: username, JoinedAt: joinedAt},
		Members:  r.memberList(),
		Admin:    r.admin,
		Locked:   r.locked,
		Document: r.document,
		Language: r.language,
	}, nil
}

// Leave removes connID from roomID. When the departing member held the
// admin role, the earliest-joined remaining member inherits it. The
// room is deleted once its last member leaves. Unknown rooms and
// unknown members report false.
func (h *Hub) Leave(roomID, connID string) (LeaveState, bool) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		h.mu.Unlock()
		return LeaveState{}, false
	}
	r.mu.Lock()

	m, exists := r.members[connID]
	if !exists {
		r.mu.Unlock()
		h.mu.Unlock()
		return LeaveState{}, false
	}
	delete(r.members, connID)
	metricConnectedClients.Dec()

	st := LeaveState{
		Left: domain.Member{ClientID: connID, Username: m.username, JoinedAt: m.joinedAt},
	}

	if len(r.members) == 0 {
		delete(h.rooms, roomID)
		metricOpenRooms.Dec()
		st.Empty = true
		r.mu.Unlock()
		h.mu.Unlock()
		slog.Info("room empty, removed", "room", roomID)
		return st, true
	}
	h.mu.Unlock()

	st.Members = r.memberList()
	if r.admin == m.username {
		r.admin = st.Members[0].Username
		slog.Info("admin reassigned", "room", roomID, "admin", r.admin)
	}
	st.Admin = r.admin
	st.Locked = r.locked
	r.mu.Unlock()

	slog.Info("client left", "room", roomID, "clientId", connID, "username", m.username, "clients", len(st.Members))
	return st, true
}

// SetLocked flips the room's lock flag. Only the admin's username may
// do so; locking an already-locked room succeeds and reports the same
// state again. An unknown room has no admin, so every caller is denied.
func (h *Hub) SetLocked(roomID, username string, locked bool) (domain.LockStatus, error) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()
	if !exists {
		return domain.LockStatus{}, ErrNotAdmin
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if username != r.admin {
		return domain.LockStatus{}, ErrNotAdmin
	}
	r.locked = locked
	slog.Info("room lock changed", "room", roomID, "locked", locked, "admin", r.admin)
	return domain.LockStatus{IsLocked: r.locked, Admin: r.admin}, nil
}

// SetDocument replaces the room's document wholesale (last writer
// wins). A mutation against a room nobody joined is a silent no-op.
func (h *Hub) SetDocument(roomID, value string) bool {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()
	if !exists {
		return false
	}
	r.mu.Lock()
	r.document = value
	r.mu.Unlock()
	return true
}

func (h *Hub) SetLanguage(roomID, language string) bool {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()
	if !exists {
		return false
	}
	r.mu.Lock()
	r.language = language
	r.mu.Unlock()
	return true
}

// Broadcast sends data to every member of roomID, skipping except when
// it is non-empty. Sends are fire-and-forget; a failed send is logged
// and the read pump of the dead connection handles the cleanup.
func (h *Hub) Broadcast(roomID string, data []byte, except string) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()
	if !exists {
		return
	}

	r.mu.RLock()
	recipients := make([]domain.Connection, 0, len(r.members))
	for id, m := range r.members {
		if id == except {
			continue
		}
		recipients = append(recipients, m.conn)
	}
	r.mu.RUnlock()

	for _, conn := range recipients {
		if err := conn.Send(data); err != nil {
			slog.Warn("send failed, dropping frame", "room", roomID, "clientId", conn.ID(), "error", err)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.members)
		r.mu.RUnlock()
	}
	return rooms, clients
}

// hasMemberNamed reports whether any member carries the given
// username. Callers must hold r.mu.
func (r *room) hasMemberNamed(name string) bool {
	for _, m := range r.members {
		if m.username == name {
			return true
		}
	}
	return false
}

// memberList returns members ordered by join time, connection ID as
// tie-break. Callers must hold r.mu.
func (r *room) memberList() []domain.Member {
	out := make([]domain.Member, 0, len(r.members))
	for id, m := range r.members {
		out = append(out, domain.Member{ClientID: id, Username: m.username, JoinedAt: m.joinedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out
}
