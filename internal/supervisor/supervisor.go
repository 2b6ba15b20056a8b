// Package supervisor runs the engine loop: it merges key events from the current device set, rebuilds
// that set on hotplug, keeps the activation state and schedules pulses on the actuation line.
package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/neuroplastio/plopp/internal/gpiosvc"
	"github.com/neuroplastio/plopp/internal/inputsvc"
	"github.com/neuroplastio/plopp/internal/keys"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeviceSource opens the current set of input devices.
type DeviceSource interface {
	Open() ([]inputsvc.Device, error)
}

// Hotplug signals that the device set may have changed.
type Hotplug interface {
	Signals() <-chan struct{}
}

var defaultOptions = options{
	combo:   keys.DefaultCombo,
	enabled: true,
}

type options struct {
	combo      []keys.Code
	enabled    bool
	noDeadKeys bool
}

type Option func(*options)

func WithCombo(combo []keys.Code) Option {
	return func(o *options) {
		o.combo = combo
	}
}

// WithEnabled sets whether actuation is enabled when the loop starts.
func WithEnabled(enabled bool) Option {
	return func(o *options) {
		o.enabled = enabled
	}
}

// WithNoDeadKeys lets Escape and the modifiers actuate.
func WithNoDeadKeys(noDeadKeys bool) Option {
	return func(o *options) {
		o.noDeadKeys = noDeadKeys
	}
}

type Stats struct {
	Events   int64 `json:"events"`
	Pulses   int64 `json:"pulses"`
	Dropped  int64 `json:"dropped"`
	Rebuilds int64 `json:"rebuilds"`
}

type Supervisor struct {
	log      *zap.Logger
	options  options
	devices  DeviceSource
	hotplug  Hotplug
	actuator *gpiosvc.Actuator
	classes  *keys.Classes

	tasks errgroup.Group
	ready chan struct{}

	events   *atomic.Int64
	pulses   *atomic.Int64
	dropped  *atomic.Int64
	rebuilds *atomic.Int64
}

func New(log *zap.Logger, devices DeviceSource, hotplug Hotplug, actuator *gpiosvc.Actuator, opts ...Option) *Supervisor {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Supervisor{
		log:      log,
		options:  options,
		devices:  devices,
		hotplug:  hotplug,
		actuator: actuator,
		classes:  keys.NewClasses(options.noDeadKeys),
		ready:    make(chan struct{}),
		events:   atomic.NewInt64(0),
		pulses:   atomic.NewInt64(0),
		dropped:  atomic.NewInt64(0),
		rebuilds: atomic.NewInt64(0),
	}
}

// Ready is closed once the initial device set is open and the loop is running.
func (s *Supervisor) Ready() <-chan struct{} {
	return s.ready
}

func (s *Supervisor) Stats() Stats {
	return Stats{
		Events:   s.events.Load(),
		Pulses:   s.pulses.Load(),
		Dropped:  s.dropped.Load(),
		Rebuilds: s.rebuilds.Load(),
	}
}

// loopState is owned by the loop goroutine and never shared.
type loopState struct {
	keys *keys.State
	mux  *inputsvc.Mux
}

// Run blocks until ctx is done. Failing to open the initial device set is fatal. On return every
// pulse in flight has finished and the line is released.
func (s *Supervisor) Run(ctx context.Context) error {
	devices, err := s.devices.Open()
	if err != nil {
		return fmt.Errorf("failed to open input devices: %w", err)
	}
	st := &loopState{
		keys: keys.NewState(s.options.combo, s.options.enabled),
		mux:  inputsvc.NewMux(s.log.Named("mux"), devices),
	}
	s.log.Info("Engine started",
		zap.Int("count", st.mux.Len()),
		zap.Strings("devices", st.mux.Sources()),
		zap.Strings("combo", keys.CodeNames(s.options.combo)),
		zap.Bool("enabled", st.keys.Enabled()),
	)
	close(s.ready)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev := <-st.mux.Events():
			s.handle(st, ev)
		case <-s.hotplug.Signals():
			s.rebuild(st)
		}
	}

	st.mux.Close()
	s.log.Info("Waiting for pulses to finish")
	// pulse tasks log their own failures
	_ = s.tasks.Wait()
	s.log.Info("Engine stopped", zap.Any("stats", s.Stats()))
	return nil
}

func (s *Supervisor) handle(st *loopState, ev keys.Event) {
	defer s.events.Inc()
	if ce := s.log.Check(zap.DebugLevel, "key"); ce != nil {
		ce.Write(
			zap.String("device", ev.Source),
			zap.String("code", keys.CodeName(ev.Code)),
			zap.Stringer("transition", ev.Transition),
		)
	}
	if ev.Transition == keys.Down && st.keys.Enabled() && s.classes.IsActuating(ev.Code) {
		s.trigger()
	}
	if st.keys.Apply(ev.Code, ev.Transition) {
		if st.keys.Enabled() {
			s.log.Info("Actuation enabled")
		} else {
			s.log.Info("Actuation disabled")
		}
	}
}

func (s *Supervisor) trigger() {
	h, err := s.actuator.Acquire()
	switch {
	case errors.Is(err, gpiosvc.ErrBusy):
		s.dropped.Inc()
		s.log.Warn("Typing too fast, actuation line still in use")
		return
	case err != nil:
		s.log.Error("failed to acquire actuation line", zap.Error(err))
		return
	}
	s.pulses.Inc()
	s.tasks.Go(func() error {
		if err := s.actuator.Pulse(h); err != nil {
			s.log.Error("pulse failed", zap.Error(err))
		}
		return nil
	})
}

// rebuild opens a fresh device set, swaps in a new mux and discards the old one. Held keys are
// forgotten: a device that went away cannot report its releases.
func (s *Supervisor) rebuild(st *loopState) {
	s.rebuilds.Inc()
	s.log.Info("Device (un)plugged, re-opening")
	devices, err := s.devices.Open()
	if err != nil {
		s.log.Error("failed to open input devices", zap.Error(err))
	}
	next := inputsvc.NewMux(s.log.Named("mux"), devices)
	prev := st.mux
	st.mux = next
	prev.Close()
	st.keys.Reset()
	s.log.Info("Input devices reopened",
		zap.Int("count", next.Len()),
		zap.Strings("devices", next.Sources()),
	)
}
