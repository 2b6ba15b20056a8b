package keys

import (
	"math/rand"
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	pairs := map[Code]Code{
		evdev.KEY_RIGHTCTRL:  evdev.KEY_LEFTCTRL,
		evdev.KEY_RIGHTALT:   evdev.KEY_LEFTALT,
		evdev.KEY_RIGHTMETA:  evdev.KEY_LEFTMETA,
		evdev.KEY_RIGHTSHIFT: evdev.KEY_LEFTSHIFT,
	}
	for right, left := range pairs {
		assert.Equal(t, left, Normalize(right))
		assert.Equal(t, left, Normalize(left))
	}
	for code := Code(0); code < 0x300; code++ {
		n := Normalize(code)
		assert.Equal(t, n, Normalize(n), "normalize must be idempotent for %d", code)
		if _, ok := pairs[code]; !ok {
			assert.Equal(t, code, n, "code %d must be a fixed point", code)
		}
	}
}

func TestClassesDeadKeys(t *testing.T) {
	c := NewClasses(false)
	for _, code := range []Code{
		evdev.KEY_ESC,
		evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL,
		evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT,
		evdev.KEY_LEFTMETA, evdev.KEY_RIGHTMETA,
		evdev.KEY_LEFTSHIFT, evdev.KEY_RIGHTSHIFT,
	} {
		assert.False(t, c.IsActuating(code), CodeName(code))
	}
	for _, code := range []Code{evdev.KEY_A, evdev.KEY_S, evdev.KEY_ENTER, evdev.KEY_SPACE, evdev.KEY_CAPSLOCK, evdev.KEY_F12} {
		assert.True(t, c.IsActuating(code), CodeName(code))
	}
}

func TestClassesNoDeadKeys(t *testing.T) {
	c := NewClasses(true)
	for _, code := range []Code{evdev.KEY_ESC, evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTALT, evdev.KEY_LEFTMETA, evdev.KEY_RIGHTSHIFT} {
		assert.True(t, c.IsActuating(code), CodeName(code))
	}
}

func TestClassesNonKeyboard(t *testing.T) {
	for _, noDead := range []bool{false, true} {
		c := NewClasses(noDead)
		for _, code := range nonKeyboard {
			assert.False(t, c.IsActuating(code), CodeName(code))
		}
		assert.False(t, c.IsActuating(evdev.BTN_TRIGGER_HAPPY1))
		assert.False(t, c.IsActuating(evdev.BTN_TRIGGER_HAPPY40))
	}
}

func TestComboToggle(t *testing.T) {
	s := NewState(DefaultCombo, false)
	for _, code := range []Code{evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_LEFTMETA, evdev.KEY_S} {
		assert.False(t, s.Apply(code, Down))
	}
	assert.False(t, s.Enabled())

	assert.True(t, s.Apply(evdev.KEY_S, Up))
	assert.True(t, s.Enabled())

	for _, code := range []Code{evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_LEFTMETA} {
		assert.False(t, s.Apply(code, Up))
	}
	assert.True(t, s.Enabled())
	assert.Empty(t, s.Held())
}

func TestComboRightModifiers(t *testing.T) {
	s := NewState(DefaultCombo, true)
	for _, code := range []Code{evdev.KEY_RIGHTCTRL, evdev.KEY_RIGHTALT, evdev.KEY_LEFTMETA, evdev.KEY_S} {
		s.Apply(code, Down)
	}
	assert.True(t, s.Apply(evdev.KEY_RIGHTCTRL, Up))
	assert.False(t, s.Enabled())
}

func TestComboNotExact(t *testing.T) {
	s := NewState(DefaultCombo, true)
	for _, code := range []Code{evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_LEFTMETA, evdev.KEY_S, evdev.KEY_A} {
		s.Apply(code, Down)
	}
	assert.False(t, s.Apply(evdev.KEY_S, Up))
	assert.True(t, s.Enabled())
}

func TestStrayUpIsIgnored(t *testing.T) {
	s := NewState(DefaultCombo, true)
	assert.False(t, s.Apply(evdev.KEY_A, Up))
	assert.Empty(t, s.Held())
	s.Apply(evdev.KEY_A, Down)
	assert.True(t, s.IsHeld(evdev.KEY_A))
}

func TestHeldMatchesCounts(t *testing.T) {
	codes := []Code{evdev.KEY_A, evdev.KEY_B, evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL, evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT}
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		s := NewState(DefaultCombo, true)
		down := make(map[Code]int)
		up := make(map[Code]int)
		for i := 0; i < 50; i++ {
			code := codes[rng.Intn(len(codes))]
			n := Normalize(code)
			if rng.Intn(2) == 0 {
				s.Apply(code, Down)
				down[n]++
				continue
			}
			// only release what some device actually holds
			if down[n] <= up[n] {
				continue
			}
			s.Apply(code, Up)
			up[n]++
		}
		for _, code := range codes {
			n := Normalize(code)
			assert.Equal(t, down[n] > up[n], s.IsHeld(code), "round %d code %s", round, CodeName(code))
		}
	}
}

func TestNeverTogglesOnDown(t *testing.T) {
	s := NewState([]Code{evdev.KEY_A}, false)
	assert.False(t, s.Apply(evdev.KEY_A, Down))
	assert.False(t, s.Enabled())
	assert.True(t, s.Apply(evdev.KEY_A, Up))
	assert.True(t, s.Enabled())
}

func TestReset(t *testing.T) {
	s := NewState(DefaultCombo, true)
	s.Apply(evdev.KEY_A, Down)
	s.Reset()
	assert.Empty(t, s.Held())
	assert.True(t, s.Enabled())
}

func TestParseCombo(t *testing.T) {
	combo, err := ParseCombo([]string{"KEY_RIGHTCTRL", "leftalt", "KEY_LEFTMETA", "s", "KEY_LEFTCTRL"})
	require.NoError(t, err)
	assert.ElementsMatch(t, DefaultCombo, combo)

	combo, err = ParseCombo(DefaultComboNames)
	require.NoError(t, err)
	assert.Equal(t, DefaultCombo, combo)

	_, err = ParseCombo([]string{"KEY_NOPE"})
	assert.Error(t, err)
}

func TestParseCodeAliases(t *testing.T) {
	for name, want := range map[string]Code{
		"KEY_SCREENLOCK": evdev.KEY_SCREENLOCK,
		"KEY_COFFEE":     evdev.KEY_SCREENLOCK,
		"KEY_ZOOM":       evdev.KEY_ZOOM,
		"BTN_LEFT":       evdev.BTN_LEFT,
		"BTN_MOUSE":      evdev.BTN_LEFT,
		"BTN_A":          evdev.BTN_SOUTH,
		"screenlock":     evdev.KEY_SCREENLOCK,
	} {
		code, err := ParseCode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, code, name)
	}

	combo, err := ParseCombo([]string{"KEY_LEFTCTRL", "BTN_LEFT"})
	require.NoError(t, err)
	assert.Equal(t, []Code{evdev.KEY_LEFTCTRL, evdev.BTN_LEFT}, combo)

	assert.Contains(t, CodeName(evdev.BTN_LEFT), "BTN_LEFT")
	assert.Equal(t, "KEY_A", CodeName(evdev.KEY_A))

	_, err = ParseCombo([]string{"KEY_NOPE"})
	assert.Error(t, err)
	_, err = ParseCombo(nil)
	assert.Error(t, err)
}
