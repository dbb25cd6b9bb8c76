package cmd

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/typhonjs-scm/scm-compound/api/header"
	"github.com/typhonjs-scm/scm-compound/logger"
	"github.com/typhonjs-scm/scm-compound/query"
	"github.com/typhonjs-scm/scm-compound/settings"
)

// rootOptions is shared by every command.
type rootOptions struct {
	cfg        *settings.Config
	fs         afero.Fs
	configPath string
	out        io.Writer
	errOut     io.Writer
	log        *logger.Logger
	verbose    bool
	debug      bool
	// newClient builds the query client once the config is loaded.
	newClient func(cfg settings.Config, log *logger.Logger) (*query.Client, error)
	// interactive reports whether a progress spinner may be drawn on errOut.
	interactive bool
}

// Execute builds the command tree and runs it. This function is called
// by main.main().
func Execute() error {
	return MakeCommands().Execute()
}

// MakeCommands creates the top level commands.
func MakeCommands() *cobra.Command {
	return makeCommands(&rootOptions{
		cfg:         &settings.Config{},
		fs:          afero.NewOsFs(),
		configPath:  settings.ConfigPath(),
		out:         os.Stdout,
		errOut:      os.Stderr,
		newClient:   query.NewFromConfig,
		interactive: isStderrTerminal(),
	})
}

func makeCommands(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scm-compound",
		Short: "Run compound queries across the organizations of configured owners.",
		Long: `Run compound queries across the organizations of configured owners.

Organization sources are read from ~/.scm-compound/cli.yml. A .env file in the
working directory is loaded first, and SCM_COMPOUND_TOKEN with SCM_COMPOUND_OWNER
add one more source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	rootCmd.SetOut(opts.out)
	rootCmd.SetErr(opts.errOut)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log best-effort failures and per-call diagnostics to stderr.")
	flags.BoolVar(&opts.debug, "debug", false, "Log every HTTP request to stderr.")
	flags.StringVar(&opts.configPath, "config", opts.configPath, "Path to the config file.")

	for _, c := range newQueryCommands(opts) {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(newSetupCommand(opts))
	rootCmd.AddCommand(newVersionCommand(opts))

	return rootCmd
}

// load reads .env, the config file and the environment, in that order.
func (opts *rootOptions) load(cmd *cobra.Command) error {
	_ = godotenv.Load()

	if err := opts.cfg.LoadFromDisk(opts.fs, opts.configPath); err != nil {
		return errors.Wrap(err, "Failed to load config")
	}
	opts.cfg.LoadFromEnv(settings.EnvPrefix)

	if opts.verbose {
		opts.cfg.Verbose = true
	}
	if opts.debug {
		opts.cfg.Debug = true
	}
	opts.log = logger.NewLoggerWithWriters(opts.cfg.Verbose, opts.out, opts.errOut)
	header.SetCommandStr(cmd.CommandPath())
	return nil
}

func (opts *rootOptions) client() (*query.Client, error) {
	if len(opts.cfg.Organizations) == 0 {
		return nil, errors.Errorf("No organization sources configured in %s.\nRun `scm-compound setup` or set SCM_COMPOUND_TOKEN and SCM_COMPOUND_OWNER.", opts.cfg.FileUsed)
	}
	return opts.newClient(*opts.cfg, opts.log)
}
