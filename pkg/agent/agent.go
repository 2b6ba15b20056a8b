package agent

import (
	"context"
	"fmt"

	"github.com/neuroplastio/plopp/internal/gpiosvc"
	"github.com/neuroplastio/plopp/internal/inputsvc"
	"github.com/neuroplastio/plopp/internal/keys"
	"github.com/neuroplastio/plopp/internal/supervisor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

type Agent struct {
	config Config
	log    *zap.Logger
	combo  []keys.Code

	registry *inputsvc.Registry
	actuator *gpiosvc.Actuator
}

func NewLogger(config Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	loggerConfig := zap.NewDevelopmentConfig()
	if config.LogJSON {
		loggerConfig = zap.NewProductionConfig()
	} else {
		loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
		loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func NewAgent(config Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger, err := NewLogger(config)
	if err != nil {
		return nil, err
	}
	return newAgent(config, logger, newDriver(config, logger))
}

func newDriver(config Config, logger *zap.Logger) gpiosvc.Driver {
	if config.DryRun {
		return gpiosvc.NewDryRunDriver(logger.Named("gpio.dryrun"))
	}
	return gpiosvc.NewChipDriver(config.Chip)
}

func newAgent(config Config, logger *zap.Logger, driver gpiosvc.Driver, opts ...inputsvc.Option) (*Agent, error) {
	combo, err := keys.ParseCombo(config.Combo)
	if err != nil {
		return nil, fmt.Errorf("invalid activation combo: %w", err)
	}
	opts = append([]inputsvc.Option{inputsvc.WithInputDir(config.InputDir)}, opts...)
	return &Agent{
		config:   config,
		log:      logger,
		combo:    combo,
		registry: inputsvc.NewRegistry(logger.Named("input"), config.Device, opts...),
		actuator: gpiosvc.NewActuator(logger.Named("gpio"), driver, config.Pin, config.PulseLength()),
	}, nil
}

func (a *Agent) Close() error {
	// stderr sync fails on some terminals
	_ = a.log.Sync()
	return nil
}

// ListDevices enumerates the input devices the engine would open.
func (a *Agent) ListDevices() ([]inputsvc.Info, error) {
	return a.registry.Enumerate()
}

// Run initializes the actuation line, establishes the hotplug watch and runs the engine until ctx is
// cancelled. Any startup failure is returned; a cancelled run returns nil once pulses have drained.
func (a *Agent) Run(ctx context.Context) error {
	err := a.actuator.Init()
	if err != nil {
		return err
	}

	watcher, err := inputsvc.NewWatcher(a.log.Named("hotplug"), a.registry.InputDir())
	if err != nil {
		return fmt.Errorf("failed to establish hotplug watch: %w", err)
	}

	sup := supervisor.New(a.log.Named("engine"), a.registry, watcher, a.actuator,
		supervisor.WithCombo(a.combo),
		supervisor.WithEnabled(!a.config.StartInactive),
		supervisor.WithNoDeadKeys(a.config.NoDeadKeys),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return watcher.Start(groupCtx)
	})
	group.Go(func() error {
		// the watcher has nothing to watch for once the engine is gone
		defer cancel()
		return sup.Run(groupCtx)
	})

	err = group.Wait()
	if err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}
