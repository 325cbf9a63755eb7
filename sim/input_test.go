package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/sim"
)

func TestKeyStateZeroValue(t *testing.T) {
	var keys sim.KeyState
	assert.False(t, keys.Pressed(sim.KeyW))
	keys.ReleaseAll()

	keys.Set(sim.KeyW, true)
	assert.True(t, keys.Pressed(sim.KeyW))
	assert.False(t, keys.Pressed(sim.KeyS))
}

func TestKeyStateLastWriterWins(t *testing.T) {
	var keys sim.KeyState
	keys.Set(sim.KeyA, true)
	keys.Set(sim.KeyA, false)
	assert.False(t, keys.Pressed(sim.KeyA), "a tap between frames is lost")

	keys.Set(sim.KeyQ, true)
	keys.Set(sim.KeyE, true)
	keys.ReleaseAll()
	assert.False(t, keys.Pressed(sim.KeyQ))
	assert.False(t, keys.Pressed(sim.KeyE))
}

func TestKeyCodes(t *testing.T) {
	for _, code := range []string{"ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight", "KeyQ", "KeyE", "KeyW", "KeyS", "KeyA", "KeyD"} {
		key := sim.ParseKey(code)
		assert.NotEqual(t, sim.KeyUnknown, key, code)
		assert.Equal(t, code, key.String())
	}
	assert.Equal(t, sim.KeyUnknown, sim.ParseKey("Space"))
	assert.Equal(t, "Unknown", sim.Key(99).String())
}

func TestParseView(t *testing.T) {
	cases := map[string]sim.View{
		"system":  sim.ViewSystem,
		"sistema": sim.ViewSystem,
		" Ship ":  sim.ViewShip,
		"nave":    sim.ViewShip,
	}
	for in, want := range cases {
		got, err := sim.ParseView(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := sim.ParseView("cockpit")
	assert.ErrorIs(t, err, sim.ErrUnknownView)
}

func TestViewToggleAndHints(t *testing.T) {
	assert.Equal(t, sim.ViewShip, sim.ViewSystem.Toggle())
	assert.Equal(t, sim.ViewSystem, sim.ViewShip.Toggle())
	assert.Equal(t, "ship", sim.ViewShip.String())

	assert.Len(t, sim.HintPanel(sim.ViewShip), 5)
	assert.Len(t, sim.HintPanel(sim.ViewSystem), 2)
}
