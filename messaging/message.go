package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
)

type Message struct {
	ID        string      `json:"id"`
	Command   string      `json:"command"`
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	ReplyTo   string      `json:"reply_to,omitempty"`
	Fault     *Fault      `json:"fault,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (msg *Message) IsRequest() bool {
	return msg.Type == MessageTypeRequest
}

func (msg *Message) IsResponse() bool {
	return msg.Type == MessageTypeResponse
}

// Err returns the response Fault as an error, or nil when the message
// carries a result.
func (msg *Message) Err() error {
	if msg.Fault == nil {
		return nil
	}
	return msg.Fault
}

func (msg *Message) String() string {
	return fmt.Sprintf(
		"Message{ID: %s, Command: %s, Type: %s, ReplyTo: %s}",
		msg.ID,
		msg.Command,
		msg.Type,
		msg.ReplyTo,
	)
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
