package domain

import "encoding/json"

// Event is the wire envelope: every frame carries an event name and an
// opaque payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type EventHandler interface {
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
