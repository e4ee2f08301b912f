package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"GOMATCH_APP_ENV":                 "test",
		"GOMATCH_LOG_LEVEL":               "debug",
		"GOMATCH_MODE":                    "actor",
		"GOMATCH_BATCH_SIZE":              "3",
		"GOMATCH_WORKERS":                 "2",
		"GOMATCH_SOURCES":                 "5",
		"GOMATCH_PARTICIPANTS_PER_SOURCE": "7",
	}))
	require.NoError(t, err)
	assert.Equal(t, TestEnv, cfg.AppEnv)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, Matchmaking{BatchSize: 3, Mode: ActorMode}, cfg.Matchmaking)
	assert.Equal(t, Simulation{Workers: 2, Sources: 5, ParticipantsPerSource: 7}, cfg.Simulation)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"zero batch":  {"GOMATCH_BATCH_SIZE": "0"},
		"not a num":   {"GOMATCH_WORKERS": "many"},
		"bad level":   {"GOMATCH_LOG_LEVEL": "loud"},
		"bad mode":    {"GOMATCH_MODE": "skill"},
		"no workers":  {"GOMATCH_WORKERS": "0"},
		"neg sources": {"GOMATCH_SOURCES": "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(vars))
			assert.Error(t, err)
		})
	}
}
