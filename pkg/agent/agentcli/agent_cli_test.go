package agentcli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neuroplastio/plopp/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop after config")

// resolve runs the command tree up to agent construction and returns the config it was built with.
func resolve(t *testing.T, args ...string) (agent.Config, error) {
	t.Helper()
	var got agent.Config
	cmd := newRootCmd(func(cfg agent.Config) (*agent.Agent, error) {
		got = cfg
		return nil, errStop
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "list-devices"))
	err := cmd.ExecuteContext(context.Background())
	if errors.Is(err, errStop) {
		return got, nil
	}
	return got, err
}

func TestFlagDefaults(t *testing.T) {
	cfg, err := resolve(t)
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultConfig(), cfg)
}

func TestFlags(t *testing.T) {
	cfg, err := resolve(t,
		"-d", "/dev/input/event3",
		"--input-dir", "/tmp/input",
		"--chip", "gpiochip4",
		"-p", "17",
		"-l", "5000",
		"--start-inactive",
		"--no-dead-keys",
		"--combo", "KEY_LEFTCTRL,BTN_LEFT",
		"--dry-run",
		"--log-level", "debug",
		"--log-json",
	)
	require.NoError(t, err)
	assert.Equal(t, agent.Config{
		Device:        "/dev/input/event3",
		InputDir:      "/tmp/input",
		Chip:          "gpiochip4",
		Pin:           17,
		PulseLengthUs: 5000,
		DryRun:        true,
		StartInactive: true,
		NoDeadKeys:    true,
		Combo:         []string{"KEY_LEFTCTRL", "BTN_LEFT"},
		LogLevel:      "debug",
		LogJSON:       true,
	}, cfg)
}

func TestConfigFileUnderFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plopp.yml")
	require.NoError(t, os.WriteFile(path, []byte("pin: 5\npulseLengthUs: 1000\nstartInactive: true\ncombo: [KEY_LEFTALT, KEY_P]\n"), 0o644))

	cfg, err := resolve(t, "--config", path, "--pin", "6")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Pin, "explicit flag wins")
	assert.Equal(t, int64(1000), cfg.PulseLengthUs)
	assert.True(t, cfg.StartInactive)
	assert.Equal(t, []string{"KEY_LEFTALT", "KEY_P"}, cfg.Combo)
	assert.Equal(t, "gpiochip0", cfg.Chip)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := resolve(t, "--config", filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errStop)
}
