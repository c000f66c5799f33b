// Package streaming defines the messages exchanged with a link ingest server.
package streaming

import (
	"encoding/json"
	"fmt"
)

// Message type constants of the link streaming protocol.
const (
	TypeSession    = "session"
	TypeLinkUpsert = "link_upsert"
	TypeLinkDelete = "link_delete"
	TypeAck        = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// SessionPayload announces which level subsequent link messages belong to.
type SessionPayload struct {
	Level            string `json:"level"`
	ExtensionVersion string `json:"extensionVersion,omitempty"`
}

// LinkDeletePayload identifies a removed link.
type LinkDeletePayload struct {
	ID string `json:"id"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
