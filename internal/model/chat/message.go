// Package chat defines chat messages.
package chat

import "time"

// Kind tags what Content holds.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindVoice Kind = "voice"
)

// Message is one entry of a room's sequence. Content is text or a media URL.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Kind      Kind      `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Redacted  bool      `json:"redacted,omitempty"`
}

const redactionPrefix = "[MESSAGE BLOCKED BY ADMIN: "

// RedactionMarker builds the placeholder that replaces a blocked message.
func RedactionMarker(reason string) string {
	return redactionPrefix + reason + "]"
}
