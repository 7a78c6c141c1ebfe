package motor

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/teslashibe/go-polrov/pkg/decision"
)

// mockPWM records writes and can fail on a chosen channel.
type mockPWM struct {
	writes   []ChannelWrite
	failOn   int
	closed   bool
	closeErr error
}

func newMockPWM() *mockPWM {
	return &mockPWM{failOn: -1}
}

func (m *mockPWM) SetChannel(channel, pulseUS int) error {
	if channel == m.failOn {
		return errors.New("bus error")
	}
	m.writes = append(m.writes, ChannelWrite{Channel: channel, PulseUS: pulseUS})
	return nil
}

func (m *mockPWM) Close() error {
	m.closed = true
	return m.closeErr
}

// nopCloser adapts a bytes.Buffer to io.WriteCloser.
type nopCloser struct{ bytes.Buffer }

func (nopCloser) Close() error { return nil }

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := NewPlanner(DefaultLayout(), DefaultLevels())
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	return p
}

func TestDuty16(t *testing.T) {
	tests := []struct {
		us    int
		duty  int
		ticks int
	}{
		{700, 2293, 143},
		{1000, 3276, 204},
		{1300, 4259, 266},
		{2000, 6553, 409},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if got := Duty16(tt.us); got != tt.duty {
			t.Errorf("Duty16(%d) = %d, want %d", tt.us, got, tt.duty)
		}
		if got := Ticks(tt.us); got != tt.ticks {
			t.Errorf("Ticks(%d) = %d, want %d", tt.us, got, tt.ticks)
		}
	}
}

func TestPlan(t *testing.T) {
	p := newTestPlanner(t)

	// Every plan is a full frame; driven lists the thrusters above Min.
	tests := []struct {
		name   string
		cmd    decision.Command
		driven map[Motor]int
	}{
		{"forward", decision.Forward(decision.SpeedCruise), map[Motor]int{M5: 1300, M6: 1300}},
		{"forward slow", decision.Forward(decision.SpeedSlow), map[Motor]int{M5: 1000, M6: 1000}},
		{"backward", decision.Single(decision.MoveBackward, decision.SpeedCruise), map[Motor]int{M1: 1300, M2: 1300}},
		{"left", decision.Single(decision.MoveLeft, decision.SpeedCruise), map[Motor]int{M1: 1300, M5: 1300}},
		{"right", decision.Single(decision.MoveRight, decision.SpeedCruise), map[Motor]int{M2: 1300, M6: 1300}},
		{"up", decision.Single(decision.MoveUp, decision.SpeedCruise), map[Motor]int{}},
		{"down", decision.Single(decision.MoveDown, decision.SpeedCruise), map[Motor]int{M3: 1300, M4: 1300}},
		{"combined", decision.Combined(
			decision.Step{Move: decision.MoveDown},
			decision.Step{Move: decision.MoveLeft},
		), map[Motor]int{M3: 1300, M4: 1300, M1: 1300, M5: 1300}},
		{"stop all", decision.StopAll(), map[Motor]int{}},
	}

	layout := DefaultLayout()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Plan(tt.cmd)
			if len(got) != len(AllMotors) {
				t.Fatalf("got %d settings %v, want %d", len(got), got, len(AllMotors))
			}
			for i, s := range got {
				m := AllMotors[i]
				want, ok := tt.driven[m]
				if !ok {
					want = 700
				}
				if s.Motor != m || s.Channel != layout[m] || s.PulseUS != want {
					t.Errorf("setting %d: got %s ch%d=%d, want %s ch%d=%d",
						i, s.Motor, s.Channel, s.PulseUS, m, layout[m], want)
				}
			}
		})
	}
}

func TestDriver_ForwardAfterEvadeStopsOtherThrusters(t *testing.T) {
	d := NewDriverWith(newMockPWM(), newTestPlanner(t))

	if err := d.Apply(decision.Single(decision.MoveLeft, decision.SpeedCruise)); err != nil {
		t.Fatalf("Apply left: %v", err)
	}
	if got := d.Pulses()[M1]; got != 1300 {
		t.Fatalf("M1 after left = %d, want 1300", got)
	}

	if err := d.Apply(decision.Forward(decision.SpeedCruise)); err != nil {
		t.Fatalf("Apply forward: %v", err)
	}
	want := map[Motor]int{M1: 700, M2: 700, M3: 700, M4: 700, M5: 1300, M6: 1300}
	for m, us := range want {
		if got := d.Pulses()[m]; got != us {
			t.Errorf("%s after forward = %d, want %d", m, got, us)
		}
	}
}

func TestDriver_GateAfterEvadeDoesNotPushBackward(t *testing.T) {
	d := NewDriverWith(newMockPWM(), newTestPlanner(t))

	_ = d.Apply(decision.Single(decision.MoveLeft, decision.SpeedCruise))
	if err := d.Apply(decision.Forward(decision.SpeedSlow)); err != nil {
		t.Fatalf("Apply slow forward: %v", err)
	}
	pulses := d.Pulses()
	if pulses[M1] != 700 || pulses[M2] != 700 {
		t.Errorf("backward thrusters still running: M1=%d M2=%d", pulses[M1], pulses[M2])
	}
	if pulses[M5] != 1000 || pulses[M6] != 1000 {
		t.Errorf("forward thrusters: M5=%d M6=%d", pulses[M5], pulses[M6])
	}
}

func TestLayout_Validate(t *testing.T) {
	if err := DefaultLayout().Validate(); err != nil {
		t.Fatalf("default layout: %v", err)
	}

	dup := DefaultLayout()
	dup[M2] = dup[M1]
	if err := dup.Validate(); err == nil {
		t.Error("expected duplicate channel error")
	}

	missing := DefaultLayout()
	delete(missing, M6)
	if err := missing.Validate(); err == nil {
		t.Error("expected missing motor error")
	}

	bad := DefaultLayout()
	bad[M3] = 16
	if err := bad.Validate(); err == nil {
		t.Error("expected out of range error")
	}
}

func TestLevels_Validate(t *testing.T) {
	if err := DefaultLevels().Validate(); err != nil {
		t.Fatalf("default levels: %v", err)
	}
	if err := (Levels{Min: 1000, Slow: 900, Medium: 1300, Max: 2000}).Validate(); err == nil {
		t.Error("expected ordering error")
	}
	if err := (Levels{Min: 700, Slow: 1000, Medium: 1300, Max: 20000}).Validate(); err == nil {
		t.Error("expected frame period error")
	}
}

func TestDriver_ApplyRecordsPulses(t *testing.T) {
	pwm := newMockPWM()
	d := NewDriverWith(pwm, newTestPlanner(t))

	if err := d.Apply(decision.Forward(decision.SpeedCruise)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	pulses := d.Pulses()
	if pulses[M5] != 1300 || pulses[M6] != 1300 {
		t.Errorf("pulses after forward: %v", pulses)
	}
	if pulses[M1] != 700 || pulses[M2] != 700 {
		t.Errorf("backward thrusters should be at min: %v", pulses)
	}
}

func TestDriver_ApplyContinuesPastFailure(t *testing.T) {
	pwm := newMockPWM()
	pwm.failOn = 1
	d := NewDriverWith(pwm, newTestPlanner(t))

	err := d.StopAll()
	if err == nil {
		t.Fatal("expected error from failing channel")
	}
	if len(pwm.writes) != 5 {
		t.Errorf("expected the other 5 channels written, got %d", len(pwm.writes))
	}
	if applied, failed := d.Stats(); applied != 1 || failed != 1 {
		t.Errorf("Stats: applied=%d failed=%d", applied, failed)
	}
}

func TestDriver_CloseStopsFirst(t *testing.T) {
	pwm := newMockPWM()
	d := NewDriverWith(pwm, newTestPlanner(t))

	_ = d.Apply(decision.Forward(decision.SpeedCruise))
	pwm.writes = nil

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pwm.closed {
		t.Error("backend not closed")
	}
	if len(pwm.writes) != 6 {
		t.Fatalf("expected 6 stop writes, got %d", len(pwm.writes))
	}
	for _, w := range pwm.writes {
		if w.PulseUS != 700 {
			t.Errorf("channel %d left at %dus", w.Channel, w.PulseUS)
		}
	}

	if err := d.Apply(decision.Forward(decision.SpeedCruise)); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply after Close: got %v, want ErrClosed", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSerialBridge_WritesLines(t *testing.T) {
	var port nopCloser
	d := NewDriverWith(NewSerialBridge(&port), newTestPlanner(t))

	if err := d.Apply(decision.Single(decision.MoveUp, decision.SpeedCruise)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := "PWM 1 700\nPWM 14 700\nPWM 3 700\nPWM 12 700\nPWM 5 700\nPWM 10 700\n"
	if got := port.String(); got != want {
		t.Errorf("serial output:\n%q\nwant\n%q", got, want)
	}

	_ = d.Close()
	if !strings.HasSuffix(port.String(), "PWM 10 700\n") {
		t.Errorf("close did not stop last motor: %q", port.String())
	}
}

func TestNewDriver_DryRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendDryRun

	d, err := NewDriver(cfg)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	dry, ok := d.pwm.(*DryRun)
	if !ok {
		t.Fatalf("expected *DryRun backend, got %T", d.pwm)
	}

	_ = d.Apply(decision.Single(decision.MoveDown, decision.SpeedSlow))
	if w := dry.Writes(); len(w) != 6 || w[2].PulseUS != 1000 || w[3].PulseUS != 1000 || w[0].PulseUS != 700 {
		t.Errorf("dry-run writes: %v", w)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Backend = "can" }, true},
		{"serial without port", func(c *Config) { c.Backend = BackendSerial }, true},
		{"serial ok", func(c *Config) { c.Backend = BackendSerial; c.SerialPort = "/dev/ttyACM0" }, false},
		{"bad address", func(c *Config) { c.I2CAddr = 0x80 }, true},
		{"backend case", func(c *Config) { c.Backend = "DryRun" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Backend = "can"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
