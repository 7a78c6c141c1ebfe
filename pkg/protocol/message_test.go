package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "telemetry message",
			msgType: TypeTelemetry,
			data:    TelemetryData{Frame: 3, Mode: "evading", Command: "left"},
			wantErr: false,
		},
		{
			name:    "control message",
			msgType: TypeControl,
			data:    ControlData{Action: "manual", Move: "up"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeTelemetry,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
			if _, err := uuid.Parse(msg.ID); err != nil {
				t.Errorf("NewMessage() id %q is not a uuid: %v", msg.ID, err)
			}
		})
	}
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	a, _ := NewMessage(TypePing, nil)
	b, _ := NewMessage(TypePing, nil)
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, both %s", a.ID)
	}
}

func TestTelemetry_UnknownDistanceOmitted(t *testing.T) {
	d := 64.0
	msg, err := NewTelemetryMessage(TelemetryData{
		Detections: []DetectionReport{
			{Label: "Cylinder", Confidence: 0.9, WidthPx: 356, DistanceCM: &d},
			{Label: "fish", Confidence: 0.7, WidthPx: 40},
		},
	})
	if err != nil {
		t.Fatalf("NewTelemetryMessage: %v", err)
	}

	var raw struct {
		Detections []map[string]interface{} `json:"detections"`
	}
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw.Detections[0]["distance_cm"] != 64.0 {
		t.Errorf("known distance: got %v", raw.Detections[0]["distance_cm"])
	}
	if _, ok := raw.Detections[1]["distance_cm"]; ok {
		t.Error("unknown distance should be omitted")
	}
}

func TestTelemetry_EmptyDetectionsIsArray(t *testing.T) {
	msg, _ := NewTelemetryMessage(TelemetryData{Frame: 1})
	data, _ := msg.GetTelemetryData()
	if data.Detections == nil {
		t.Error("detections should decode as an empty array, not null")
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		action  string
	}{
		{"control", `{"type":"control","id":"x","data":{"action":"stop"}}`, false, "stop"},
		{"manual", `{"type":"control","data":{"action":"manual","move":"left"}}`, false, "manual"},
		{"no type", `{"data":{}}`, true, ""},
		{"garbage", `not json`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			ctl, err := msg.GetControlData()
			if err != nil {
				t.Fatalf("GetControlData: %v", err)
			}
			if ctl.Action != tt.action {
				t.Errorf("action: got %q, want %q", ctl.Action, tt.action)
			}
		})
	}
}

func TestPongFor(t *testing.T) {
	ping, err := NewPingMessage("abc")
	if err != nil {
		t.Fatal(err)
	}
	pong, err := PongFor(ping)
	if err != nil {
		t.Fatalf("PongFor: %v", err)
	}
	if pong.Type != TypePong {
		t.Errorf("type: got %s", pong.Type)
	}
	data, _ := pong.GetPongData()
	if data.ID != "abc" || data.LatencyMs < 0 {
		t.Errorf("pong data: %+v", data)
	}
}

func TestFrameMessage_Decode(t *testing.T) {
	msg, _ := NewFrameMessage(640, 360, []byte{0xff, 0xd8, 0xff}, 9)
	f, err := msg.GetFrameData()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := f.DecodeFrameData()
	if err != nil || len(raw) != 3 || raw[0] != 0xff {
		t.Errorf("decoded %v, err %v", raw, err)
	}
}

func TestWithSession(t *testing.T) {
	msg, _ := NewMessage(TypePing, nil)
	sid := NewSessionID()
	if msg.WithSession(sid).Session != sid {
		t.Error("session not set")
	}
}
