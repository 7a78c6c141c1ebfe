// Package protocol defines the WebSocket messages exchanged between the
// vehicle and a topside station.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Vehicle → topside
	TypeTelemetry MessageType = "telemetry" // Per-frame decision summary
	TypeFrame     MessageType = "frame"     // Annotated preview JPEG

	// Topside → vehicle
	TypeControl MessageType = "control" // Operator control request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`                // Unique message ID
	Session   string          `json:"session,omitempty"` // Vehicle run ID
	Timestamp int64           `json:"ts,omitempty"`      // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with a fresh ID and the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// WithSession stamps the message with a session ID and returns it.
func (m *Message) WithSession(session string) *Message {
	m.Session = session
	return m
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// NewSessionID returns a random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// =============================================================================
// Vehicle → Topside Message Types
// =============================================================================

// TelemetryData summarises one processed frame
type TelemetryData struct {
	Frame      uint64            `json:"frame"`
	FPS        float64           `json:"fps"`
	Mode       string            `json:"mode"`
	Command    string            `json:"command"`
	Reason     string            `json:"reason"`
	Active     bool              `json:"active"`
	Manual     bool              `json:"manual"`
	Detections []DetectionReport `json:"detections"`
}

// DetectionReport is one detection with its estimated distance
type DetectionReport struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	WidthPx    int      `json:"width_px"`
	DistanceCM *float64 `json:"distance_cm,omitempty"` // nil when unknown
	X          int      `json:"x"`
	Y          int      `json:"y"`
	W          int      `json:"w"`
	H          int      `json:"h"`
}

// FrameData contains a preview frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// =============================================================================
// Topside → Vehicle Message Types
// =============================================================================

// ControlData is an operator request.
// Action is one of stop, arm, pause, resume, manual, screenshots.
type ControlData struct {
	Action string `json:"action"`
	Move   string `json:"move,omitempty"` // For manual: forward, backward, left, right, up, down
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
