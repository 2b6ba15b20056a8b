// Package inputsvc discovers evdev input devices, merges their key streams into one feed and watches the
// device directory for hotplug.
package inputsvc

import (
	"fmt"

	"github.com/holoplot/go-evdev"
	"github.com/neuroplastio/plopp/internal/keys"
)

// Device is one open input source.
type Device interface {
	// ID identifies the device in the merged stream, usually its device node path.
	ID() string
	Name() string
	// ReadKey blocks until the next key press or release. Repeats and non-key events are skipped.
	ReadKey() (keys.Event, error)
	Close() error
}

// Opener opens the input device at path.
type Opener func(path string) (Device, error)

const (
	keyReleased = 0
	keyPressed  = 1
)

type evdevDevice struct {
	dev  *evdev.InputDevice
	path string
	name string
}

// OpenDevice opens an evdev device node.
func OpenDevice(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	name, err := dev.Name()
	if err != nil {
		name = path
	}
	return &evdevDevice{dev: dev, path: path, name: name}, nil
}

func (d *evdevDevice) ID() string {
	return d.path
}

func (d *evdevDevice) Name() string {
	return d.name
}

func (d *evdevDevice) ReadKey() (keys.Event, error) {
	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			return keys.Event{}, err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		switch ev.Value {
		case keyPressed:
			return keys.Event{Source: d.path, Code: ev.Code, Transition: keys.Down}, nil
		case keyReleased:
			return keys.Event{Source: d.path, Code: ev.Code, Transition: keys.Up}, nil
		}
	}
}

func (d *evdevDevice) Close() error {
	return d.dev.Close()
}
