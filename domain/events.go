package domain

import "time"

// Inbound event names (client to server).
const (
	EventJoin           = "join"
	EventEditorChange   = "editorChange"
	EventLanguageChange = "languageChange"
	EventLockRoom       = "lockRoom"
	EventUnlockRoom     = "unlockRoom"
)

// Outbound event names (server to clients).
const (
	EventUpdateMembers    = "updateMembers"
	EventEditorUpdate     = "editorUpdate"
	EventLanguageUpdate   = "languageUpdate"
	EventRoomLockedStatus = "roomLockedStatus"
	EventRoomLocked       = "roomLocked"
	EventNoPermission     = "noPermission"
)

// Member is one room participant as seen on the wire. Usernames are
// client-supplied and not unique; ClientID is.
type Member struct {
	ClientID string    `json:"clientId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type EditorChange struct {
	RoomID string `json:"roomId"`
	Value  string `json:"value"`
}

type LanguageChange struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type RoomRef struct {
	RoomID string `json:"roomId"`
}

type MembersUpdate struct {
	Clients    []Member `json:"clients"`
	JoinedUser *Member  `json:"joinedUser,omitempty"`
	LeftUser   *Member  `json:"leftUser,omitempty"`
	Admin      string   `json:"admin"`
	IsLocked   bool     `json:"isLocked"`
}

// EditorUpdate doubles as the live edit broadcast (value only) and the
// snapshot sent to a new joiner (value plus language).
type EditorUpdate struct {
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
}

type LanguageUpdate struct {
	Language string `json:"language"`
}

type LockStatus struct {
	IsLocked bool   `json:"isLocked"`
	Admin    string `json:"admin"`
}
