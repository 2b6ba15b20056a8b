package keys

import "github.com/holoplot/go-evdev"

// nonKeyboard are pointer, joystick, gamepad and tablet buttons. They never actuate.
var nonKeyboard = []Code{
	evdev.BTN_0, evdev.BTN_1, evdev.BTN_2, evdev.BTN_3, evdev.BTN_4,
	evdev.BTN_5, evdev.BTN_6, evdev.BTN_7, evdev.BTN_8, evdev.BTN_9,

	evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE, evdev.BTN_SIDE,
	evdev.BTN_EXTRA, evdev.BTN_FORWARD, evdev.BTN_BACK, evdev.BTN_TASK,

	evdev.BTN_TRIGGER, evdev.BTN_THUMB, evdev.BTN_THUMB2, evdev.BTN_TOP,
	evdev.BTN_TOP2, evdev.BTN_PINKIE, evdev.BTN_BASE, evdev.BTN_BASE2,
	evdev.BTN_BASE3, evdev.BTN_BASE4, evdev.BTN_BASE5, evdev.BTN_BASE6,
	evdev.BTN_DEAD,

	evdev.BTN_SOUTH, evdev.BTN_EAST, evdev.BTN_C, evdev.BTN_NORTH,
	evdev.BTN_WEST, evdev.BTN_Z, evdev.BTN_TL, evdev.BTN_TR,
	evdev.BTN_TL2, evdev.BTN_TR2, evdev.BTN_SELECT, evdev.BTN_START,
	evdev.BTN_MODE, evdev.BTN_THUMBL, evdev.BTN_THUMBR,

	evdev.BTN_TOOL_PEN, evdev.BTN_TOOL_RUBBER, evdev.BTN_TOOL_BRUSH,
	evdev.BTN_TOOL_PENCIL, evdev.BTN_TOOL_AIRBRUSH, evdev.BTN_TOOL_FINGER,
	evdev.BTN_TOOL_MOUSE, evdev.BTN_TOOL_LENS, evdev.BTN_TOOL_QUINTTAP,
	evdev.BTN_TOUCH, evdev.BTN_STYLUS, evdev.BTN_STYLUS2,
	evdev.BTN_TOOL_DOUBLETAP, evdev.BTN_TOOL_TRIPLETAP, evdev.BTN_TOOL_QUADTAP,

	evdev.BTN_GEAR_DOWN, evdev.BTN_GEAR_UP,

	evdev.BTN_DPAD_UP, evdev.BTN_DPAD_DOWN, evdev.BTN_DPAD_LEFT, evdev.BTN_DPAD_RIGHT,
}

// deadKeys are excluded unless dead-key filtering is switched off at startup.
var deadKeys = []Code{
	evdev.KEY_ESC,
	evdev.KEY_LEFTCTRL,
	evdev.KEY_LEFTALT,
	evdev.KEY_LEFTMETA,
	evdev.KEY_LEFTSHIFT,
}

const triggerHappyCount = 40

// Classes decides which key codes may trigger actuation. It is immutable after construction.
type Classes struct {
	excluded map[Code]struct{}
}

func NewClasses(noDeadKeys bool) *Classes {
	excluded := make(map[Code]struct{}, len(nonKeyboard)+triggerHappyCount+len(deadKeys))
	for _, c := range nonKeyboard {
		excluded[c] = struct{}{}
	}
	for i := 0; i < triggerHappyCount; i++ {
		excluded[evdev.BTN_TRIGGER_HAPPY1+Code(i)] = struct{}{}
	}
	if !noDeadKeys {
		for _, c := range deadKeys {
			excluded[c] = struct{}{}
		}
	}
	return &Classes{excluded: excluded}
}

func (c *Classes) IsActuating(code Code) bool {
	_, ok := c.excluded[Normalize(code)]
	return !ok
}
