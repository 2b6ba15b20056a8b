// Package keys holds the key-code policy of the engine: normalization, classification of codes that
// may trigger actuation, and the held-key state that drives the activation combo.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/holoplot/go-evdev"
)

type Code = evdev.EvCode

type Transition uint8

const (
	Up Transition = iota
	Down
)

func (t Transition) String() string {
	if t == Down {
		return "down"
	}
	return "up"
}

// Event is a single key transition tagged with the identity of the device it came from.
type Event struct {
	Source     string
	Code       Code
	Transition Transition
}

var rightToLeft = map[Code]Code{
	evdev.KEY_RIGHTCTRL:  evdev.KEY_LEFTCTRL,
	evdev.KEY_RIGHTALT:   evdev.KEY_LEFTALT,
	evdev.KEY_RIGHTMETA:  evdev.KEY_LEFTMETA,
	evdev.KEY_RIGHTSHIFT: evdev.KEY_LEFTSHIFT,
}

// Normalize maps right-side modifiers to their left-side counterpart. Every other code is returned as is.
func Normalize(code Code) Code {
	if left, ok := rightToLeft[code]; ok {
		return left
	}
	return code
}

var DefaultCombo = []Code{
	evdev.KEY_LEFTCTRL,
	evdev.KEY_LEFTALT,
	evdev.KEY_LEFTMETA,
	evdev.KEY_S,
}

var DefaultComboNames = []string{"KEY_LEFTCTRL", "KEY_LEFTALT", "KEY_LEFTMETA", "KEY_S"}

// ParseCode resolves a key name like "KEY_LEFTCTRL", "BTN_LEFT", "leftctrl" or "s" to its code.
// Aliases sharing one code, such as BTN_LEFT and BTN_MOUSE, all resolve.
func ParseCode(name string) (Code, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if code, ok := evdev.KEYFromString[n]; ok {
		return code, nil
	}
	if code, ok := evdev.KEYFromString["KEY_"+n]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("unknown key name: %q", name)
}

// ParseCombo resolves every name and normalizes the result. Duplicates collapse.
func ParseCombo(names []string) ([]Code, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("activation combo is empty")
	}
	seen := make(map[Code]struct{}, len(names))
	combo := make([]Code, 0, len(names))
	for _, name := range names {
		code, err := ParseCode(name)
		if err != nil {
			return nil, err
		}
		code = Normalize(code)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		combo = append(combo, code)
	}
	return combo, nil
}

// CodeName names code with every alias joined by "/", e.g. "BTN_MOUSE/BTN_LEFT".
func CodeName(code Code) string {
	if name, ok := evdev.KEYNames[code]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", code)
}

func CodeNames(codes []Code) []string {
	names := make([]string, 0, len(codes))
	for _, c := range codes {
		names = append(names, CodeName(c))
	}
	sort.Strings(names)
	return names
}
