package decision

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/go-polrov/pkg/distance"
)

// Sentinel errors for decision configuration.
var (
	// ErrInvalidThreshold is returned when a confidence threshold is outside [0,1].
	ErrInvalidThreshold = errors.New("decision: invalid confidence threshold")

	// ErrInvalidBand is returned for malformed distance bands.
	ErrInvalidBand = errors.New("decision: invalid distance band")

	// ErrUnknownProfile is returned by ProfileConfig for unknown names.
	ErrUnknownProfile = errors.New("decision: unknown profile")
)

// Distances used by the pool profiles (centimetres).
const (
	DefaultCloseDistanceCM = 150.0
	DefaultAwayDistanceCM  = 200.0
	DefaultToleranceCM     = 10.0

	DefaultCylinderThreshold = 0.85
	DefaultGateThreshold     = 0.80
)

// Config holds the tunable decision rules.
type Config struct {
	// Profile names the preset the config was derived from (for logs).
	Profile string

	// Thresholds is the minimum confidence for a class to count as present.
	Thresholds map[distance.Class]float64

	// EvadeBand decides whether a present Cylinder triggers evasion.
	EvadeBand Band

	// DiveOnEvade descends while moving sideways.
	DiveOnEvade bool

	// DescendOnForward descends while cruising forward.
	DescendOnForward bool

	// DisarmAfterEvade clears the Active flag after an evasion, so the
	// vehicle idles instead of resuming forward once the obstacle is gone.
	DisarmAfterEvade bool
}

func defaultThresholds() map[distance.Class]float64 {
	return map[distance.Class]float64{
		distance.ClassCylinder: DefaultCylinderThreshold,
		distance.ClassGate:     DefaultGateThreshold,
	}
}

// CloseConfig evades a Cylinder once it is within 150 cm.
func CloseConfig() Config {
	return Config{
		Profile:    "close",
		Thresholds: defaultThresholds(),
		EvadeBand:  AtMost(DefaultCloseDistanceCM),
	}
}

// DefaultConfig returns the recommended configuration (the close profile).
func DefaultConfig() Config {
	return CloseConfig()
}

// AwayConfig evades a Cylinder seen around 200 cm (±10 cm) and then holds
// position until re-armed.
func AwayConfig() Config {
	cfg := CloseConfig()
	cfg.Profile = "away"
	cfg.EvadeBand = WithinTolerance(DefaultAwayDistanceCM, DefaultToleranceCM)
	cfg.DisarmAfterEvade = true
	return cfg
}

// PresenceConfig evades any confident Cylinder regardless of distance and
// dives while doing so.
func PresenceConfig() Config {
	cfg := CloseConfig()
	cfg.Profile = "presence"
	cfg.EvadeBand = Presence()
	cfg.DiveOnEvade = true
	return cfg
}

// ProfileConfig returns the preset with the given name.
func ProfileConfig(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "close", "default":
		return CloseConfig(), nil
	case "away":
		return AwayConfig(), nil
	case "presence":
		return PresenceConfig(), nil
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Threshold returns the confidence threshold for a class.
// Classes without a threshold are never considered present.
func (c Config) Threshold(class distance.Class) (float64, bool) {
	t, ok := c.Thresholds[class]
	return t, ok
}

// Validate checks thresholds and the band.
func (c Config) Validate() error {
	for _, class := range distance.KnownClasses {
		t, ok := c.Thresholds[class]
		if !ok {
			return fmt.Errorf("%w: none for class %s", ErrInvalidThreshold, class)
		}
		if math.IsNaN(t) || t < 0 || t > 1 {
			return fmt.Errorf("%w: %v for class %s", ErrInvalidThreshold, t, class)
		}
	}
	if err := c.EvadeBand.Validate(); err != nil {
		return err
	}
	return nil
}

// Clone returns a copy that does not share the threshold map.
func (c Config) Clone() Config {
	out := c
	out.Thresholds = make(map[distance.Class]float64, len(c.Thresholds))
	for k, v := range c.Thresholds {
		out.Thresholds[k] = v
	}
	return out
}
