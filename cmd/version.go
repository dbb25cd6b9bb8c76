package cmd

import (
	"github.com/spf13/cobra"

	"github.com/typhonjs-scm/scm-compound/logger"
	"github.com/typhonjs-scm/scm-compound/version"
)

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		// The version never needs the config file.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			opts.log = logger.NewLoggerWithWriters(false, opts.out, opts.errOut)
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			opts.log.Infof("%s+%s", version.Version, version.Commit)
		},
	}
}
