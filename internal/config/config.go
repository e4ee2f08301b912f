package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	DevelopEnv    AppEnv = "develop"
	LocalEnv      AppEnv = "local"
	TestEnv       AppEnv = "test"
)

// Mode selects which matchmaking implementation the simulator drives.
type Mode string

const (
	// MutexMode uses the lock-guarded Queue.
	MutexMode Mode = "mutex"
	// ActorMode uses the single-goroutine Matcher.
	ActorMode Mode = "actor"
)

const envPrefix = "GOMATCH_"

type (
	Config struct {
		AppEnv      AppEnv
		LogLevel    logrus.Level
		Matchmaking Matchmaking
		Simulation  Simulation
	}

	Matchmaking struct {
		BatchSize int
		Mode      Mode
	}

	Simulation struct {
		Workers               int
		Sources               int
		ParticipantsPerSource int
	}
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AppEnv:   LocalEnv,
		LogLevel: logrus.InfoLevel,
		Matchmaking: Matchmaking{
			BatchSize: 8,
			Mode:      MutexMode,
		},
		Simulation: Simulation{
			Workers:               8,
			Sources:               4,
			ParticipantsPerSource: 100,
		},
	}
}

// Load reads GOMATCH_* environment variables over the defaults.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if v, ok := lookup(envPrefix + "APP_ENV"); ok {
		cfg.AppEnv = AppEnv(v)
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, errors.Wrap(err, "config: GOMATCH_LOG_LEVEL")
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup(envPrefix + "MODE"); ok {
		cfg.Matchmaking.Mode = Mode(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"BATCH_SIZE", &cfg.Matchmaking.BatchSize},
		{"WORKERS", &cfg.Simulation.Workers},
		{"SOURCES", &cfg.Simulation.Sources},
		{"PARTICIPANTS_PER_SOURCE", &cfg.Simulation.ParticipantsPerSource},
	}
	for _, field := range ints {
		v, ok := lookup(envPrefix + field.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "config: %s%s", envPrefix, field.name)
		}
		*field.dst = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Matchmaking.BatchSize < 1 {
		return errors.Errorf("config: batch size must be positive, got %d", c.Matchmaking.BatchSize)
	}
	switch c.Matchmaking.Mode {
	case MutexMode, ActorMode:
	default:
		return errors.Errorf("config: unknown mode %q", c.Matchmaking.Mode)
	}
	if c.Simulation.Workers < 1 {
		return errors.Errorf("config: worker count must be positive, got %d", c.Simulation.Workers)
	}
	if c.Simulation.Sources < 0 || c.Simulation.ParticipantsPerSource < 0 {
		return errors.New("config: sources and participants must not be negative")
	}
	return nil
}
