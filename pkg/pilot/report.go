package pilot

import "github.com/teslashibe/go-polrov/pkg/protocol"

// Reports converts tracked detections to their wire form.
func Reports(dets []Tracked) []protocol.DetectionReport {
	out := make([]protocol.DetectionReport, 0, len(dets))
	for _, d := range dets {
		r := protocol.DetectionReport{
			Label:      d.Label,
			Confidence: d.Confidence,
			WidthPx:    d.Box.Dx(),
			X:          d.Box.Min.X,
			Y:          d.Box.Min.Y,
			W:          d.Box.Dx(),
			H:          d.Box.Dy(),
		}
		if cm, ok := d.Distance.Distance(); ok {
			r.DistanceCM = &cm
		}
		out = append(out, r)
	}
	return out
}

// Telemetry summarises a frame for the topside link.
func Telemetry(r Result, fps float64) protocol.TelemetryData {
	return protocol.TelemetryData{
		Frame:      r.Frame,
		FPS:        fps,
		Mode:       r.Outcome.State.Mode.String(),
		Command:    r.Outcome.Command.String(),
		Reason:     string(r.Outcome.Reason),
		Active:     r.Outcome.State.Active,
		Manual:     r.Manual,
		Detections: Reports(r.Detections),
	}
}
