package motor

import (
	"sync"

	"github.com/teslashibe/go-polrov/internal/log"
)

// ChannelWrite is one write recorded by DryRun.
type ChannelWrite struct {
	Channel int
	PulseUS int
}

// DryRun records channel writes instead of driving hardware.
type DryRun struct {
	mu     sync.Mutex
	writes []ChannelWrite
	closed bool
}

// NewDryRun returns an empty recorder.
func NewDryRun() *DryRun {
	return &DryRun{}
}

// SetChannel records the write.
func (d *DryRun) SetChannel(channel, pulseUS int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.writes = append(d.writes, ChannelWrite{Channel: channel, PulseUS: pulseUS})
	log.Debug("dry-run pwm", "channel", channel, "pulse_us", pulseUS, "ticks", Ticks(pulseUS))
	return nil
}

// Writes returns a copy of every recorded write.
func (d *DryRun) Writes() []ChannelWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ChannelWrite, len(d.writes))
	copy(out, d.writes)
	return out
}

// Reset clears the record.
func (d *DryRun) Reset() {
	d.mu.Lock()
	d.writes = nil
	d.mu.Unlock()
}

// Close marks the recorder closed.
func (d *DryRun) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
