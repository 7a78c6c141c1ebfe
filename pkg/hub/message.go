package hub

import "encoding/json"

// MessageType selects the websocket frame type used for a message.
type MessageType int

const (
	// JSONMessage is sent as a text frame (status, logs)
	JSONMessage MessageType = iota
	// BinaryMessage is sent as a binary frame (JPEG previews)
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// EncodeJSON marshals v into a JSON message.
func EncodeJSON(v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}

// frameType maps the message to a websocket frame opcode.
func (m Message) frameType(text, binary int) int {
	if m.Type == BinaryMessage {
		return binary
	}
	return text
}
