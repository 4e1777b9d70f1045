package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"coderhub-relay-server/domain"
	"coderhub-relay-server/hub"
	"coderhub-relay-server/registry"
)

// Handler turns inbound wire events into hub state transitions and the
// resulting outbound events. One instance serves every connection; the
// hub's per-room locking gives each room a total order over mutations.
type Handler struct {
	hub      *hub.Hub
	registry *registry.Registry
	routes   map[string]func(domain.Connection, json.RawMessage)
}

func NewHandler(h *hub.Hub, reg *registry.Registry) *Handler {
	hd := &Handler{hub: h, registry: reg}
	hd.routes = map[string]func(domain.Connection, json.RawMessage){
		domain.EventJoin:           hd.handleJoin,
		domain.EventEditorChange:   hd.handleEditorChange,
		domain.EventLanguageChange: hd.handleLanguageChange,
		domain.EventLockRoom:       hd.handleLockRoom,
		domain.EventUnlockRoom:     hd.handleUnlockRoom,
	}
	return hd
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var evt domain.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		metricInvalidFrames.Inc()
		slog.Warn("invalid frame", "clientId", conn.ID(), "error", err)
		return
	}

	route, ok := h.routes[evt.Name]
	if !ok {
		metricInvalidFrames.Inc()
		slog.Warn("unknown event", "clientId", conn.ID(), "event", evt.Name)
		return
	}

	metricEvents.WithLabelValues(evt.Name).Inc()
	route(conn, evt.Data)
}

// Disconnect tears down whatever session conn holds. Safe to call for
// connections that never joined or were already cleaned up.
func (h *Handler) Disconnect(conn domain.Connection) {
	sess, ok := h.registry.Remove(conn.ID())
	if !ok {
		return
	}
	h.leaveRoom(conn, sess)
}

func (h *Handler) handleJoin(conn domain.Connection, data json.RawMessage) {
	var req domain.JoinRequest
	if !h.decode(conn, data, &req) {
		return
	}

	oldSess, hadSess := h.registry.Get(conn.ID())

	joinedAt := time.Now().UTC()
	st, err := h.hub.Join(conn, req.RoomID, req.Username, joinedAt)
	if err != nil {
		if errors.Is(err, hub.ErrRoomLocked) {
			slog.Info("join rejected, room locked", "room", req.RoomID, "clientId", conn.ID(), "username", req.Username)
			h.send(conn, domain.EventRoomLocked, nil)
		}
		// A rejected join leaves the caller's existing membership and
		// session untouched.
		return
	}

	// A second join from a live connection moves it between rooms
	// rather than double-booking it; the old room is released only
	// once the new one has admitted the caller.
	if hadSess && oldSess.RoomID != req.RoomID {
		h.leaveRoom(conn, oldSess)
	}
	h.registry.Put(conn.ID(), registry.Session{Username: req.Username, RoomID: req.RoomID, JoinedAt: joinedAt})

	h.broadcast(req.RoomID, domain.EventUpdateMembers, domain.MembersUpdate{
		Clients:    st.Members,
		JoinedUser: &st.Joined,
		Admin:      st.Admin,
		IsLocked:   st.Locked,
	}, "")

	// Snapshot goes to the joiner only.
	h.send(conn, domain.EventEditorUpdate, domain.EditorUpdate{Value: st.Document, Language: st.Language})
}

func (h *Handler) handleEditorChange(conn domain.Connection, data json.RawMessage) {
	var req domain.EditorChange
	if !h.decode(conn, data, &req) {
		return
	}
	if !h.hub.SetDocument(req.RoomID, req.Value) {
		return
	}
	h.broadcast(req.RoomID, domain.EventEditorUpdate, domain.EditorUpdate{Value: req.Value}, conn.ID())
}

func (h *Handler) handleLanguageChange(conn domain.Connection, data json.RawMessage) {
	var req domain.LanguageChange
	if !h.decode(conn, data, &req) {
		return
	}
	if !h.hub.SetLanguage(req.RoomID, req.Language) {
		return
	}
	h.broadcast(req.RoomID, domain.EventLanguageUpdate, domain.LanguageUpdate{Language: req.Language}, conn.ID())
}

func (h *Handler) handleLockRoom(conn domain.Connection, data json.RawMessage) {
	h.setLocked(conn, data, true)
}

func (h *Handler) handleUnlockRoom(conn domain.Connection, data json.RawMessage) {
	h.setLocked(conn, data, false)
}

func (h *Handler) setLocked(conn domain.Connection, data json.RawMessage, locked bool) {
	var req domain.RoomRef
	if !h.decode(conn, data, &req) {
		return
	}

	sess, ok := h.registry.Get(conn.ID())
	if !ok {
		h.denyPermission(conn, req.RoomID)
		return
	}
	st, err := h.hub.SetLocked(req.RoomID, sess.Username, locked)
	if err != nil {
		h.denyPermission(conn, req.RoomID)
		return
	}
	h.broadcast(req.RoomID, domain.EventRoomLockedStatus, st, "")
}

func (h *Handler) denyPermission(conn domain.Connection, roomID string) {
	metricPermissionDenied.Inc()
	slog.Info("lock change denied", "room", roomID, "clientId", conn.ID())
	h.send(conn, domain.EventNoPermission, nil)
}

func (h *Handler) leaveRoom(conn domain.Connection, sess registry.Session) {
	st, ok := h.hub.Leave(sess.RoomID, conn.ID())
	if !ok || st.Empty {
		return
	}
	h.broadcast(sess.RoomID, domain.EventUpdateMembers, domain.MembersUpdate{
		Clients:  st.Members,
		LeftUser: &st.Left,
		Admin:    st.Admin,
		IsLocked: st.Locked,
	}, "")
}

// decode unmarshals an event payload. An absent payload yields zero
// values; missing fields are treated as empty rather than rejected.
func (h *Handler) decode(conn domain.Connection, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		metricInvalidFrames.Inc()
		slog.Warn("invalid payload", "clientId", conn.ID(), "error", err)
		return false
	}
	return true
}

func (h *Handler) send(conn domain.Connection, name string, payload any) {
	data, err := encode(name, payload)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "event", name, "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("send failed", "clientId", conn.ID(), "event", name, "error", err)
	}
}

func (h *Handler) broadcast(roomID, name string, payload any, except string) {
	data, err := encode(name, payload)
	if err != nil {
		slog.Warn("marshal error", "room", roomID, "event", name, "error", err)
		return
	}
	h.hub.Broadcast(roomID, data, except)
}

func encode(name string, payload any) ([]byte, error) {
	evt := domain.Event{Name: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Data = raw
	}
	return json.Marshal(evt)
}
