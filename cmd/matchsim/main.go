package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/panyam/gomatch/cmd/matchsim/command"
	"github.com/panyam/gomatch/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	const description = "Matchmaking queue simulator"
	root := &cobra.Command{Short: description, SilenceUsage: true}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := log.New()
	logger.SetLevel(cfg.LogLevel)

	root.AddCommand(
		command.Run{Logger: logger}.Command(ctx, cfg),
		command.Version{}.Command(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Errorf("failed to execute root command: \n%v", err)
		os.Exit(1)
	}
}
