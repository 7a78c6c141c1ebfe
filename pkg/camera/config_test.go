package camera

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if len(PresetNames()) != len(Presets()) {
		t.Errorf("PresetNames and Presets disagree")
	}
}

func TestGetPreset_Unknown(t *testing.T) {
	if GetPreset("8k") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"negative index", Config{Index: -1, Width: 640, Height: 480, Framerate: 30, Quality: 80}, 1},
		{"too small", Config{Width: 100, Height: 100, Framerate: 30, Quality: 80}, 2},
		{"bad rate and quality", Config{Width: 640, Height: 480, Framerate: 0, Quality: 101}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Validate(); len(got) != tt.want {
				t.Errorf("got %d errors %v, want %d", len(got), got, tt.want)
			}
		})
	}
}
