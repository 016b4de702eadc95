package sim

import (
	"github.com/google/uuid"

	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

// Stream is a material flow between two unit ports.
// PSD is optional; a stream without one carries only mass and water.
type Stream struct {
	ID        string
	MassTPH   float64  // dry solids mass flow (t/h)
	SolidsPct float64  // solids weight percent of the slurry
	PSD       *psd.PSD // nil when no size information is known

	SourceNode string
	SourcePort string
	TargetNode string
	TargetPort string
}

// NewStream creates a stream with a fresh unique ID.
func NewStream(massTPH, solidsPct float64, dist *psd.PSD) *Stream {
	return &Stream{
		ID:        uuid.NewString(),
		MassTPH:   massTPH,
		SolidsPct: solidsPct,
		PSD:       dist,
	}
}

// WaterTPH returns the water flow implied by mass and solids percent.
// Zero when solids percent is outside (0, 100).
func (s *Stream) WaterTPH() float64 {
	if s.SolidsPct <= 0 || s.SolidsPct >= 100 {
		return 0
	}
	return s.MassTPH * (100 - s.SolidsPct) / s.SolidsPct
}

// TotalFlowTPH returns solids plus water.
func (s *Stream) TotalFlowTPH() float64 {
	return s.MassTPH + s.WaterTPH()
}

// P80 returns the stream's 80% passing size and whether a PSD is present.
func (s *Stream) P80() (float64, bool) {
	if s.PSD == nil {
		return 0, false
	}
	return s.PSD.P80(), true
}

// Clone returns a copy with a new ID. The PSD is shared since it is immutable.
func (s *Stream) Clone() *Stream {
	c := *s
	c.ID = uuid.NewString()
	return &c
}

// BlendStreams merges two streams landing on the same port.
// Solids percent is mass-weighted; the PSD is blended when both sides carry
// one, otherwise whichever side has one is kept. When the combined mass is
// zero the first stream is returned unchanged apart from a concatenated ID.
func BlendStreams(a, b *Stream) *Stream {
	total := a.MassTPH + b.MassTPH
	if total <= 0 {
		out := *a
		out.ID = a.ID + "+" + b.ID
		return &out
	}
	fracA := a.MassTPH / total
	fracB := b.MassTPH / total

	var dist *psd.PSD
	switch {
	case a.PSD != nil && b.PSD != nil:
		dist = a.PSD.BlendWith(b.PSD, fracA)
	case a.PSD != nil:
		dist = a.PSD
	default:
		dist = b.PSD
	}

	out := NewStream(total, a.SolidsPct*fracA+b.SolidsPct*fracB, dist)
	out.TargetNode = a.TargetNode
	out.TargetPort = a.TargetPort
	return out
}
