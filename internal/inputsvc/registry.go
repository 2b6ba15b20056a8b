package inputsvc

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/holoplot/go-evdev"
	"github.com/jochenvg/go-udev"
	"go.uber.org/zap"
)

var ErrNoDevice = errors.New("input device unavailable")

// Info describes an enumerated input device.
type Info struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Classes []string `json:"classes,omitempty"`
}

// Enumerator lists the event device nodes below dir.
type Enumerator func(dir string) ([]Info, error)

var defaultRegistryOptions = registryOptions{
	inputDir:  "/dev/input",
	opener:    OpenDevice,
	enumerate: UdevEnumerate,
}

type registryOptions struct {
	inputDir  string
	opener    Opener
	enumerate Enumerator
}

type Option func(*registryOptions)

func WithInputDir(dir string) Option {
	return func(o *registryOptions) {
		o.inputDir = dir
	}
}

func WithOpener(opener Opener) Option {
	return func(o *registryOptions) {
		o.opener = opener
	}
}

func WithEnumerator(enumerate Enumerator) Option {
	return func(o *registryOptions) {
		o.enumerate = enumerate
	}
}

// Registry produces the current set of open input devices, either the single configured device or
// every device found by enumeration.
type Registry struct {
	log     *zap.Logger
	options registryOptions
	device  string
}

func NewRegistry(log *zap.Logger, device string, opts ...Option) *Registry {
	options := defaultRegistryOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Registry{
		log:     log,
		options: options,
		device:  device,
	}
}

func (r *Registry) InputDir() string {
	return r.options.inputDir
}

// Enumerate lists the event devices of the input directory, sorted by path.
func (r *Registry) Enumerate() ([]Info, error) {
	infos, err := r.options.enumerate(r.options.inputDir)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}

// Open opens the configured device, or every enumerated device. An explicitly configured device that
// cannot be opened is an error; enumerated devices that fail to open are skipped.
func (r *Registry) Open() ([]Device, error) {
	if r.device != "" {
		dev, err := r.options.opener(r.device)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
		}
		return []Device{dev}, nil
	}

	infos, err := r.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input devices: %w", err)
	}
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		dev, err := r.options.opener(info.Path)
		if err != nil {
			r.log.Warn("skipping input device", zap.String("path", info.Path), zap.Error(err))
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

var udevClasses = []struct {
	property string
	class    string
}{
	{"ID_INPUT_KEYBOARD", "keyboard"},
	{"ID_INPUT_KEY", "key"},
	{"ID_INPUT_MOUSE", "mouse"},
	{"ID_INPUT_TOUCHPAD", "touchpad"},
	{"ID_INPUT_TABLET", "tablet"},
	{"ID_INPUT_JOYSTICK", "joystick"},
}

// UdevEnumerate lists event devices through udev. When udev is unavailable it falls back to scanning
// device nodes with evdev, without class information.
func UdevEnumerate(dir string) ([]Info, error) {
	infos, err := udevEnumerate(dir)
	if err == nil {
		return infos, nil
	}
	return evdevEnumerate(dir)
}

func udevEnumerate(dir string) ([]Info, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("failed to match input subsystem: %w", err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return nil, fmt.Errorf("failed to match initialized devices: %w", err)
	}
	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate udev devices: %w", err)
	}
	var infos []Info
	for _, d := range devices {
		node := d.Devnode()
		if filepath.Dir(node) != filepath.Clean(dir) || !strings.HasPrefix(filepath.Base(node), "event") {
			continue
		}
		info := Info{Path: node}
		if parent := d.Parent(); parent != nil {
			info.Name = strings.Trim(parent.SysattrValue("name"), "\"\n")
		}
		for _, c := range udevClasses {
			if d.PropertyValue(c.property) == "1" {
				info.Classes = append(info.Classes, c.class)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func evdevEnumerate(dir string) ([]Info, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}
	infos := make([]Info, 0, len(paths))
	for _, p := range paths {
		if filepath.Dir(p.Path) != filepath.Clean(dir) {
			continue
		}
		infos = append(infos, Info{Path: p.Path, Name: p.Name})
	}
	return infos, nil
}
