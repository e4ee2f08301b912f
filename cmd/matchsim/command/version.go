package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X github.com/panyam/gomatch/cmd/matchsim/command.version=..."
var version = "dev"

type Version struct{}

func (Version) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the simulator version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
