package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/pilot"
)

// mockController records submitted controls.
type mockController struct {
	controls []pilot.Control
	full     bool
}

func (m *mockController) Submit(c pilot.Control) bool {
	if m.full {
		return false
	}
	m.controls = append(m.controls, c)
	return true
}

func newTestServer(ctl Controller) *Server {
	return NewServer(Options{Addr: ":0", Config: map[string]string{"profile": "close"}}, ctl)
}

func TestManualMove(t *testing.T) {
	ctl := &mockController{}
	s := newTestServer(ctl)

	resp, err := s.App().Test(httptest.NewRequest("POST", "/api/motor/left", nil))
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	require.Len(t, ctl.controls, 1)
	assert.Equal(t, pilot.ActionManual, ctl.controls[0].Action)
	assert.Equal(t, decision.MoveLeft, ctl.controls[0].Move)

	var body map[string]string
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "left", body["move"])
}

func TestManualMove_Unknown(t *testing.T) {
	ctl := &mockController{}
	s := newTestServer(ctl)

	resp, err := s.App().Test(httptest.NewRequest("POST", "/api/motor/sideways", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Empty(t, ctl.controls)
}

func TestActions(t *testing.T) {
	routes := map[string]pilot.Action{
		"/api/stop":        pilot.ActionStop,
		"/api/arm":         pilot.ActionArm,
		"/api/pause":       pilot.ActionPause,
		"/api/resume":      pilot.ActionResume,
		"/api/screenshots": pilot.ActionScreenshots,
	}

	for path, want := range routes {
		t.Run(path, func(t *testing.T) {
			ctl := &mockController{}
			s := newTestServer(ctl)

			resp, err := s.App().Test(httptest.NewRequest("POST", path, nil))
			require.NoError(t, err)
			assert.Equal(t, 202, resp.StatusCode)
			require.Len(t, ctl.controls, 1)
			assert.Equal(t, want, ctl.controls[0].Action)
		})
	}
}

func TestQueueFull(t *testing.T) {
	s := newTestServer(&mockController{full: true})

	resp, err := s.App().Test(httptest.NewRequest("POST", "/api/stop", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestStatusAndLogs(t *testing.T) {
	s := newTestServer(&mockController{})
	s.UpdateState(func(st *VehicleState) {
		st.Mode = "evading"
		st.Frame = 42
	})
	s.AddLog("info", "armed")

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	require.NoError(t, err)
	var st VehicleState
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "evading", st.Mode)
	assert.Equal(t, uint64(42), st.Frame)

	resp, err = s.App().Test(httptest.NewRequest("GET", "/api/logs", nil))
	require.NoError(t, err)
	var logs []LogEntry
	data, _ = io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "armed", logs[0].Message)
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(&mockController{})
	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, err)

	var cfg map[string]string
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "close", cfg["profile"])
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(&mockController{})
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func TestControlMessage(t *testing.T) {
	ctl := &mockController{}
	s := newTestServer(ctl)

	s.handleControlMessage([]byte(`{"type":"control","data":{"action":"manual","move":"down"}}`))
	s.handleControlMessage([]byte(`{"type":"ping"}`))
	s.handleControlMessage([]byte(`{"type":"control","data":{"action":"fly"}}`))

	require.Len(t, ctl.controls, 1)
	assert.Equal(t, decision.MoveDown, ctl.controls[0].Move)
}
