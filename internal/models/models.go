package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// SessionToken is the opaque identifier pairing one desktop viewer with its
// mobile uploaders. Any holder of the token may upload into the session.
type SessionToken string

// NewSessionToken mints a fresh token from a 128-bit random space. Nothing is
// registered anywhere — the token is "reserved" purely by convention.
func NewSessionToken() SessionToken {
	return SessionToken(uuid.New().String())
}

// Artifact locates one stored upload. The name encodes the owning session
// token, a fixed-width monotonic timestamp, and the file extension, so names
// are unique store-wide and sort lexicographically in creation order.
type Artifact struct {
	Name string `json:"name"`
}

// Session extracts the owning session token from the artifact name.
func (a Artifact) Session() SessionToken {
	base := strings.TrimSuffix(a.Name, path.Ext(a.Name))
	if i := strings.LastIndex(base, "_"); i >= 0 {
		return SessionToken(base[:i])
	}
	return ""
}

// Websocket event kinds.
const (
	EventJoin     = "join"
	EventNewImage = "new_image"
)

// JoinRequest is the client→server event subscribing the connection to a
// session's room. An empty Room is ignored, not an error.
type JoinRequest struct {
	Event string `json:"event"`
	Room  string `json:"room"`
}

// NewImageEvent is the server→room notification fired after each successful
// ingest. Transient: it exists only on the wire, never stored or replayed.
type NewImageEvent struct {
	Event    string `json:"event"`
	ImageURL string `json:"image_url"`
}
