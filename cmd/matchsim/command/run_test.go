package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/gomatch/internal/config"
)

func TestSimulateBothModes(t *testing.T) {
	for _, mode := range []config.Mode{config.MutexMode, config.ActorMode} {
		t.Run(string(mode), func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			cfg := config.Default()
			cfg.Matchmaking.Mode = mode
			cfg.Matchmaking.BatchSize = 3
			cfg.Simulation.Sources = 3
			cfg.Simulation.ParticipantsPerSource = 10

			snap, waiting, err := Simulate(context.Background(), cfg, logger)
			require.NoError(t, err)
			assert.Equal(t, uint64(30), snap.Joins)
			assert.Equal(t, uint64(10), snap.Batches)
			assert.Equal(t, uint64(30), snap.Participants)
			assert.Equal(t, 0, waiting)
		})
	}
}

func TestSimulateLeavesRemainder(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := config.Default()
	cfg.Matchmaking.BatchSize = 4
	cfg.Simulation.Sources = 2
	cfg.Simulation.ParticipantsPerSource = 5

	snap, waiting, err := Simulate(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Batches)
	assert.Equal(t, 2, waiting)

	var finished bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "simulation finished" {
			finished = true
			assert.Equal(t, 4, entry.Data["batch_size"])
		}
	}
	assert.True(t, finished)
}

func TestRunCommandFlags(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	c := Run{Logger: logger}.Command(context.Background(), cfg)

	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{"--batch-size", "2", "--sources", "1", "-n", "5", "--mode", "actor"})
	require.NoError(t, c.Execute())

	assert.Equal(t, "joins=5 batches=2 released=4 waiting=1\n", out.String())
	assert.Equal(t, config.ActorMode, cfg.Matchmaking.Mode)
}

func TestRunCommandRejectsZeroBatch(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := Run{Logger: logger}.Command(context.Background(), config.Default())
	c.SetArgs([]string{"--batch-size", "0"})
	c.SilenceUsage = true
	c.SilenceErrors = true
	assert.Error(t, c.Execute())
}

func TestVersionCommand(t *testing.T) {
	c := Version{}.Command()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	assert.Equal(t, "dev\n", out.String())
}
