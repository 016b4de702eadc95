package unit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

func node(typ string, params map[string]float64) sim.GraphNode {
	return sim.GraphNode{ID: typ + "_1", Type: typ, Params: params}
}

func feedStream(tph, solids, f80 float64) *sim.Stream {
	return sim.NewStream(tph, solids, psd.FromF80(f80))
}

func TestNew_KnownTypes(t *testing.T) {
	tests := []struct {
		tag  string
		want any
	}{
		{TypeFeed, &Feed{}},
		{TypeProduct, &Product{}},
		{TypeJawCrusher, &Crusher{}},
		{TypeConeCrusher, &Crusher{}},
		{TypeSAGMill, &Mill{}},
		{TypeBallMill, &Mill{}},
		{TypeHydrocyclone, &Hydrocyclone{}},
		{TypeVibScreen, &Screen{}},
		{TypeBananaScreen, &Screen{}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			m, err := New(node(tt.tag, nil))
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
			assert.True(t, IsValidType(tt.tag))
		})
	}
}

func TestNew_UnknownType_ReturnsError(t *testing.T) {
	m, err := New(node("flotation_cell", nil))
	assert.Nil(t, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrUnknownUnitType))
	assert.Contains(t, err.Error(), "flotation_cell")
	assert.False(t, IsValidType("flotation_cell"))
}

func TestValidTypes_SortedAndComplete(t *testing.T) {
	types := ValidTypes()
	assert.Len(t, types, 9)
	assert.IsIncreasing(t, types)
}

func TestRegister_SetsFactory(t *testing.T) {
	// GIVEN the package init() has run
	// THEN sim's factory builds models through New
	m, err := sim.NewUnitModel(node(TypeBallMill, nil))
	require.NoError(t, err)
	assert.IsType(t, &Mill{}, m)
}

func TestInputStream_FallsBack(t *testing.T) {
	s := sim.NewStream(1, 50, nil)

	got, ok := inputStream(map[string]*sim.Stream{"feed": s}, "feed", "in")
	assert.True(t, ok)
	assert.Same(t, s, got)

	got, ok = inputStream(map[string]*sim.Stream{"in": s}, "feed", "in")
	assert.True(t, ok)
	assert.Same(t, s, got)

	got, ok = inputStream(map[string]*sim.Stream{"recycle": s}, "feed", "in")
	assert.True(t, ok, "a single input on any port is accepted")
	assert.Same(t, s, got)

	_, ok = inputStream(map[string]*sim.Stream{"a": s, "b": s}, "feed", "in")
	assert.False(t, ok)

	_, ok = inputStream(nil, "feed", "in")
	assert.False(t, ok)
}
