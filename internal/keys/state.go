package keys

// State tracks which normalized keys are held across every input device and whether actuation is
// enabled. Releasing the last key of an exact combo match toggles the enabled flag.
//
// State is not safe for concurrent use; it is owned by the engine loop.
type State struct {
	held    map[Code]int
	combo   map[Code]struct{}
	enabled bool
}

func NewState(combo []Code, enabled bool) *State {
	c := make(map[Code]struct{}, len(combo))
	for _, code := range combo {
		c[Normalize(code)] = struct{}{}
	}
	return &State{
		held:    make(map[Code]int),
		combo:   c,
		enabled: enabled,
	}
}

func (s *State) Enabled() bool {
	return s.enabled
}

// Apply feeds one transition into the state and reports whether the enabled flag flipped.
func (s *State) Apply(code Code, t Transition) bool {
	switch t {
	case Down:
		s.press(code)
		return false
	case Up:
		toggled := s.isCombo()
		if toggled {
			s.enabled = !s.enabled
		}
		s.release(code)
		return toggled
	}
	return false
}

func (s *State) press(code Code) {
	s.held[Normalize(code)]++
}

func (s *State) release(code Code) {
	code = Normalize(code)
	n, ok := s.held[code]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.held, code)
		return
	}
	s.held[code] = n - 1
}

// isCombo compares the held set against the combo. The key being released still counts as held.
func (s *State) isCombo() bool {
	if len(s.held) != len(s.combo) {
		return false
	}
	for code := range s.held {
		if _, ok := s.combo[code]; !ok {
			return false
		}
	}
	return true
}

// IsHeld reports whether code (after normalization) is currently held.
func (s *State) IsHeld(code Code) bool {
	_, ok := s.held[Normalize(code)]
	return ok
}

func (s *State) Held() []Code {
	codes := make([]Code, 0, len(s.held))
	for code := range s.held {
		codes = append(codes, code)
	}
	return codes
}

// Reset forgets every held key. The enabled flag is kept.
func (s *State) Reset() {
	clear(s.held)
}
