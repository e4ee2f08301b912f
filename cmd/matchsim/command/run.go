package command

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/panyam/gomatch"
	"github.com/panyam/gomatch/internal/config"
)

type Run struct {
	Logger *logrus.Logger
}

func (cmd Run) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "feed simulated arrivals through a matchmaking queue",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			snap, waiting, err := Simulate(ctx, cfg, cmd.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "joins=%d batches=%d released=%d waiting=%d\n",
				snap.Joins, snap.Batches, snap.Participants, waiting)
			return nil
		},
	}

	flags := c.Flags()
	flags.IntVarP(&cfg.Matchmaking.BatchSize, "batch-size", "b", cfg.Matchmaking.BatchSize, "participants per released batch")
	flags.StringVarP((*string)(&cfg.Matchmaking.Mode), "mode", "m", string(cfg.Matchmaking.Mode), "queue implementation: mutex or actor")
	flags.IntVarP(&cfg.Simulation.Workers, "workers", "w", cfg.Simulation.Workers, "goroutines calling join concurrently")
	flags.IntVar(&cfg.Simulation.Sources, "sources", cfg.Simulation.Sources, "independent arrival streams")
	flags.IntVarP(&cfg.Simulation.ParticipantsPerSource, "participants", "n", cfg.Simulation.ParticipantsPerSource, "participants per arrival stream")
	return c
}

// Simulate pushes Sources*ParticipantsPerSource distinct participants through
// the configured joiner and returns the final counters and the number still
// waiting.
func Simulate(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (gomatch.StatsSnapshot, int, error) {
	var (
		joiner    gomatch.Joiner[gomatch.ParticipantID]
		batchSize int
	)
	switch cfg.Matchmaking.Mode {
	case config.ActorMode:
		m, err := gomatch.NewMatcher(cfg.Matchmaking.BatchSize, gomatch.WithMatcherLogger[gomatch.ParticipantID](logger))
		if err != nil {
			return gomatch.StatsSnapshot{}, 0, err
		}
		defer m.Stop()
		joiner, batchSize = m, m.BatchSize()
	default:
		q, err := gomatch.NewQueue(cfg.Matchmaking.BatchSize, gomatch.WithQueueLogger[gomatch.ParticipantID](logger))
		if err != nil {
			return gomatch.StatsSnapshot{}, 0, err
		}
		joiner, batchSize = q, q.BatchSize()
	}

	stats := &gomatch.Stats{}
	svc, err := gomatch.NewService(joiner, gomatch.LogStarter[gomatch.ParticipantID](logger),
		gomatch.WithWorkers[gomatch.ParticipantID](cfg.Simulation.Workers),
		gomatch.WithStats[gomatch.ParticipantID](stats),
		gomatch.WithServiceLogger[gomatch.ParticipantID](logger))
	if err != nil {
		return gomatch.StatsSnapshot{}, 0, err
	}

	per := cfg.Simulation.ParticipantsPerSource
	for i := range cfg.Simulation.Sources {
		first := gomatch.ParticipantID(i*per + 1)
		reader := gomatch.NewSeqReader(gomatch.Participants(first, per),
			gomatch.WithOutputBuffer[gomatch.ParticipantID](cfg.Matchmaking.BatchSize))
		if err := svc.AddReader(reader); err != nil {
			return gomatch.StatsSnapshot{}, 0, err
		}
	}

	svc.Start(ctx)
	runErr := svc.Wait()
	waiting := svc.Len()
	if err := svc.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return stats.Snapshot(), waiting, errors.Wrap(runErr, "simulation aborted")
	}

	logger.WithFields(logrus.Fields{
		"mode":       cfg.Matchmaking.Mode,
		"batch_size": batchSize,
		"batches":    stats.Snapshot().Batches,
		"waiting":    waiting,
	}).Info("simulation finished")
	return stats.Snapshot(), waiting, nil
}
