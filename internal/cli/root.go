package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X financetrack/internal/cli.Version=...".
var Version = "dev"

// NewRootCommand returns the financetrack command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "financetrack",
		Short:         "Personal finance dashboard",
		Long:          "Serve the personal finance dashboard and manage its preferences.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newPrefsCommand(), newVersionCommand())
	return root
}

// Execute runs the command tree with args and reports errors on stderr.
// It returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "financetrack %s\n", Version)
		},
	}
}
