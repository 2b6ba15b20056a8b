// Package gpiosvc drives the single actuation line: exclusive acquisition that fails fast when a pulse
// is still running, and timed active-then-inert pulses.
package gpiosvc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("actuation line busy")

type Actuator struct {
	log    *zap.Logger
	driver Driver
	pin    int
	pulse  time.Duration
	busy   *atomic.Bool
}

func NewActuator(log *zap.Logger, driver Driver, pin int, pulse time.Duration) *Actuator {
	return &Actuator{
		log:    log,
		driver: driver,
		pin:    pin,
		pulse:  pulse,
		busy:   atomic.NewBool(false),
	}
}

func (a *Actuator) PulseLength() time.Duration {
	return a.pulse
}

// Init drives the line inert once and releases it. Released lines keep their pull-down bias, so the
// line settles inert when the process dies.
func (a *Actuator) Init() error {
	line, err := a.driver.RequestLine(a.pin, Inert)
	if err != nil {
		return fmt.Errorf("failed to initialize actuation line %d: %w", a.pin, err)
	}
	if err := line.Close(); err != nil {
		return fmt.Errorf("failed to release actuation line %d: %w", a.pin, err)
	}
	a.log.Info("Actuation line initialized", zap.Int("pin", a.pin), zap.Duration("pulse", a.pulse))
	return nil
}

// Acquire requests exclusive use of the line. It never blocks: a line in use yields ErrBusy.
func (a *Actuator) Acquire() (*Handle, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	line, err := a.driver.RequestLine(a.pin, Inert)
	if err != nil {
		a.busy.Store(false)
		return nil, err
	}
	return &Handle{a: a, line: line}, nil
}

// Pulse drives the line active, holds it for the pulse length, returns it to inert and releases the handle.
func (a *Actuator) Pulse(h *Handle) error {
	defer h.Release()
	if err := h.SetActive(); err != nil {
		return err
	}
	time.Sleep(a.pulse)
	return h.SetInert()
}

// Handle is an acquired actuation line.
type Handle struct {
	a    *Actuator
	line Line
	once sync.Once
}

func (h *Handle) SetActive() error {
	if err := h.line.SetValue(Active); err != nil {
		return fmt.Errorf("failed to set line %d active: %w", h.a.pin, err)
	}
	return nil
}

func (h *Handle) SetInert() error {
	if err := h.line.SetValue(Inert); err != nil {
		return fmt.Errorf("failed to set line %d inert: %w", h.a.pin, err)
	}
	return nil
}

// Release drives the line inert and gives it back. Calling it more than once is a no-op.
func (h *Handle) Release() {
	h.once.Do(func() {
		if err := h.line.SetValue(Inert); err != nil {
			h.a.log.Error("failed to set line inert on release", zap.Error(err))
		}
		if err := h.line.Close(); err != nil {
			h.a.log.Error("failed to release line", zap.Error(err))
		}
		h.a.busy.Store(false)
	})
}
