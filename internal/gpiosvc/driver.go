package gpiosvc

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const (
	Inert  = 0
	Active = 1
)

const consumer = "plopp"

// Line is a requested output line. Closing it releases the request.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Driver requests exclusive output lines. A line that is already requested must be refused with an
// error matching ErrBusy.
type Driver interface {
	RequestLine(offset int, value int) (Line, error)
}

// ChipDriver drives lines of a GPIO character device such as gpiochip0.
type ChipDriver struct {
	chip string
}

func NewChipDriver(chip string) *ChipDriver {
	return &ChipDriver{chip: chip}
}

func (d *ChipDriver) RequestLine(offset int, value int) (Line, error) {
	line, err := gpiocdev.RequestLine(d.chip, offset,
		gpiocdev.AsOutput(value),
		gpiocdev.WithPullDown,
		gpiocdev.WithConsumer(consumer),
	)
	if errors.Is(err, unix.EBUSY) {
		return nil, fmt.Errorf("%w: %s line %d: %w", ErrBusy, d.chip, offset, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", d.chip, offset, err)
	}
	return line, nil
}

// DryRunDriver logs level changes instead of touching hardware.
type DryRunDriver struct {
	log *zap.Logger
}

func NewDryRunDriver(log *zap.Logger) *DryRunDriver {
	return &DryRunDriver{log: log}
}

func (d *DryRunDriver) RequestLine(offset int, value int) (Line, error) {
	l := &dryRunLine{log: d.log.With(zap.Int("pin", offset))}
	if err := l.SetValue(value); err != nil {
		return nil, err
	}
	return l, nil
}

type dryRunLine struct {
	log *zap.Logger
}

func (l *dryRunLine) SetValue(value int) error {
	if value == Inert {
		l.log.Info("line inert")
	} else {
		l.log.Info("line active")
	}
	return nil
}

func (l *dryRunLine) Close() error {
	return nil
}
