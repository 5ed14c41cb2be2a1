// Package models defines the data structures shared across the service.
package models

// Room is the metadata record for an ephemeral chat room. The connected
// token set, key map and message list live under sibling store keys and
// share the room's expiry horizon.
type Room struct {
	RoomID    string `json:"roomId"`    // opaque URL-safe identifier
	CreatedAt int64  `json:"createdAt"` // creation time (Unix timestamp)
}

// Envelope is one stored encrypted message plus its metadata. The server
// never interprets Ciphertext or IV. Token is the session token of the
// sender; it is omitted from responses unless the requester owns it.
type Envelope struct {
	ID         string `json:"id"`
	Sender     string `json:"sender"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Timestamp  int64  `json:"timestamp"`
	RoomID     string `json:"roomId"`
	Token      string `json:"token,omitempty"`
}

// Redacted returns a copy of the envelope with the owning token blanked
// unless it matches the caller's token.
func (e Envelope) Redacted(callerToken string) Envelope {
	if e.Token != callerToken {
		e.Token = ""
	}
	return e
}

// KeySharedPayload is broadcast when a participant publishes its public key.
type KeySharedPayload struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
}

// DestroyPayload is broadcast right before a room's records are deleted.
type DestroyPayload struct {
	IsDestroyed bool `json:"isDestroyed"`
}
