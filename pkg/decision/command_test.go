package decision

import (
	"math"
	"testing"
)

func TestCommand_StepsAreCopied(t *testing.T) {
	steps := []Step{{Move: MoveDown}, {Move: MoveLeft}}
	cmd := Combined(steps...)

	steps[1].Move = MoveRight
	if side, _ := cmd.Lateral(); side != MoveLeft {
		t.Errorf("Combined shares caller slice: lateral=%v", side)
	}

	out := cmd.Steps()
	out[0].Move = MoveUp
	if cmd.Steps()[0].Move != MoveDown {
		t.Error("Steps() exposes internal slice")
	}
}

func TestCommand_CombinedCollapses(t *testing.T) {
	if Combined().Kind() != KindStopAll {
		t.Errorf("empty Combined: got %v, want stop_all", Combined().Kind())
	}
	one := Combined(Step{Move: MoveUp})
	if one.Kind() != KindUp {
		t.Errorf("single-step Combined: got %v, want up", one.Kind())
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{StopAll(), "stop_all"},
		{Forward(SpeedCruise), "forward"},
		{Forward(SpeedSlow), "forward(slow)"},
		{Single(MoveRight, SpeedCruise), "right"},
		{Combined(Step{Move: MoveDown}, Step{Move: MoveLeft}), "combined[down+left]"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommand_Equal(t *testing.T) {
	if !StopAll().Equal(StopAll()) {
		t.Error("StopAll should equal StopAll")
	}
	if Forward(SpeedCruise).Equal(Forward(SpeedSlow)) {
		t.Error("speeds must differ")
	}
	if (Command{}).Equal(StopAll()) {
		t.Error("zero Command is forward-kind without steps, not stop_all")
	}
}

func TestParseMove(t *testing.T) {
	for i, name := range moveNames {
		m, ok := ParseMove(name)
		if !ok || m != Move(i) {
			t.Errorf("ParseMove(%q) = %v, %v", name, m, ok)
		}
	}
	if _, ok := ParseMove("sideways"); ok {
		t.Error("ParseMove accepted unknown move")
	}
	if m, ok := ParseMove(" LEFT "); !ok || m != MoveLeft {
		t.Errorf("ParseMove should normalise case: %v %v", m, ok)
	}
}

func TestBand_Matches(t *testing.T) {
	tests := []struct {
		name  string
		band  Band
		cm    float64
		known bool
		want  bool
	}{
		{"at most below", AtMost(150), 10, true, true},
		{"at most boundary", AtMost(150), 150, true, true},
		{"at most above", AtMost(150), 150.5, true, false},
		{"at most unknown", AtMost(150), 0, false, false},
		{"tolerance inside", WithinTolerance(200, 10), 205, true, true},
		{"tolerance boundary", WithinTolerance(200, 10), 190, true, true},
		{"tolerance outside", WithinTolerance(200, 10), 180, true, false},
		{"tolerance NaN", WithinTolerance(200, 10), math.NaN(), true, false},
		{"presence unknown", Presence(), 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.band.Matches(tt.cm, tt.known); got != tt.want {
				t.Errorf("Matches(%v, %v) = %v, want %v", tt.cm, tt.known, got, tt.want)
			}
		})
	}
}

func TestBand_Validate(t *testing.T) {
	valid := []Band{AtMost(150), WithinTolerance(200, 0), Presence()}
	for _, b := range valid {
		if err := b.Validate(); err != nil {
			t.Errorf("%v: unexpected error %v", b, err)
		}
	}
	invalid := []Band{AtMost(0), AtMost(math.Inf(1)), WithinTolerance(-5, 1), WithinTolerance(200, math.NaN()), {Kind: BandKind(9)}}
	for _, b := range invalid {
		if err := b.Validate(); err == nil {
			t.Errorf("%+v: expected error", b)
		}
	}
}

func TestParseBandKind(t *testing.T) {
	for in, want := range map[string]BandKind{
		"at_most":          BandAtMost,
		"close":            BandAtMost,
		"within_tolerance": BandWithinTolerance,
		"away":             BandWithinTolerance,
		"Presence":         BandPresence,
	} {
		got, err := ParseBandKind(in)
		if err != nil || got != want {
			t.Errorf("ParseBandKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBandKind("nearby"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRandomChooser_SeededSequence(t *testing.T) {
	a := RandomChooser(42)
	b := RandomChooser(42)
	left, right := 0, 0
	for i := 0; i < 200; i++ {
		ma, mb := a(), b()
		if ma != mb {
			t.Fatalf("draw %d differs for the same seed: %v vs %v", i, ma, mb)
		}
		switch ma {
		case MoveLeft:
			left++
		case MoveRight:
			right++
		default:
			t.Fatalf("unexpected move %v", ma)
		}
	}
	if left == 0 || right == 0 {
		t.Errorf("expected both directions over 200 draws, got left=%d right=%d", left, right)
	}
}

func TestProfileConfig(t *testing.T) {
	for _, name := range []string{"", "close", "away", "presence"} {
		cfg, err := ProfileConfig(name)
		if err != nil {
			t.Fatalf("ProfileConfig(%q): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("profile %q invalid: %v", name, err)
		}
	}
	if _, err := ProfileConfig("reckless"); err == nil {
		t.Error("expected error for unknown profile")
	}
}
