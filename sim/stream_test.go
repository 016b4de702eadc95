package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

func TestStream_WaterAndTotalFlow(t *testing.T) {
	tests := []struct {
		name      string
		mass      float64
		solids    float64
		wantWater float64
	}{
		{name: "slurry", mass: 70, solids: 70, wantWater: 30},
		{name: "dry", mass: 100, solids: 100, wantWater: 0},
		{name: "invalid solids", mass: 100, solids: 0, wantWater: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(tt.mass, tt.solids, nil)
			assert.InDelta(t, tt.wantWater, s.WaterTPH(), 1e-9)
			assert.InDelta(t, tt.mass+tt.wantWater, s.TotalFlowTPH(), 1e-9)
		})
	}
}

func TestStream_CloneHasNewID(t *testing.T) {
	s := NewStream(10, 50, psd.FromF80(1))
	c := s.Clone()
	assert.NotEqual(t, s.ID, c.ID)
	assert.Equal(t, s.MassTPH, c.MassTPH)
	assert.Same(t, s.PSD, c.PSD)

	c.MassTPH = 99
	assert.Equal(t, 10.0, s.MassTPH, "clone must not alias the original")
}

func TestStream_P80(t *testing.T) {
	_, ok := NewStream(1, 50, nil).P80()
	assert.False(t, ok)

	d := psd.FromF80(5)
	p80, ok := NewStream(1, 50, d).P80()
	assert.True(t, ok)
	assert.Equal(t, d.P80(), p80)
}

func TestBlendStreams_MassWeighted(t *testing.T) {
	// GIVEN 30 t/h at 60% solids and 10 t/h at 80% solids
	a := NewStream(30, 60, psd.FromF80(10))
	b := NewStream(10, 80, psd.FromF80(1))

	// WHEN blended
	out := BlendStreams(a, b)

	// THEN mass adds, solids are mass-weighted and the PSD is blended 75/25
	assert.Equal(t, 40.0, out.MassTPH)
	assert.InDelta(t, 65, out.SolidsPct, 1e-9)
	require.NotNil(t, out.PSD)
	want := a.PSD.BlendWith(b.PSD, 0.75)
	assert.Equal(t, want.Points(), out.PSD.Points())
}

func TestBlendStreams_KeepsTheOnlyPSD(t *testing.T) {
	d := psd.FromF80(3)
	assert.Same(t, d, BlendStreams(NewStream(5, 70, d), NewStream(5, 70, nil)).PSD)
	assert.Same(t, d, BlendStreams(NewStream(5, 70, nil), NewStream(5, 70, d)).PSD)
	assert.Nil(t, BlendStreams(NewStream(5, 70, nil), NewStream(5, 70, nil)).PSD)
}

func TestBlendStreams_ZeroMassIsNoOp(t *testing.T) {
	a := NewStream(0, 70, nil)
	b := NewStream(0, 50, nil)
	out := BlendStreams(a, b)
	assert.Equal(t, a.ID+"+"+b.ID, out.ID)
	assert.Equal(t, 70.0, out.SolidsPct)
	assert.Equal(t, 0.0, out.MassTPH)
}
