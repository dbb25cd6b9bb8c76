package cmd

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/typhonjs-scm/scm-compound/query"
)

// queryFlags are the flags common to every compound query command.
type queryFlags struct {
	credential         string
	repoFiles          []string
	raw                bool
	rawOnly            bool
	skipRateLimitCheck bool
	table              bool
	all                bool
}

func (f *queryFlags) register(flags *pflag.FlagSet, repoFiles bool) {
	flags.StringVar(&f.credential, "credential", "", "Restrict results to what this token or user:password can access.")
	flags.BoolVar(&f.raw, "raw", false, "Print the raw aggregate next to the normalized tree.")
	flags.BoolVar(&f.rawOnly, "raw-only", false, "Print only the raw aggregate and skip normalization.")
	flags.BoolVar(&f.skipRateLimitCheck, "skip-ratelimit-check", false, "Do not check the rate limit of every configured credential first.")
	flags.BoolVar(&f.table, "table", false, "Print the deepest level of the normalized tree as a table.")
	if repoFiles {
		flags.StringArrayVar(&f.repoFiles, "repo-file", nil, "Fetch this repository file for every repository. Can be repeated.")
	}
}

func (f *queryFlags) options() query.Options {
	opts := query.Options{
		RepoFiles:          f.repoFiles,
		RawOnly:            f.rawOnly,
		SkipRateLimitCheck: f.skipRateLimitCheck,
	}
	if f.credential != "" {
		opts.Credential = f.credential
	}
	return opts
}

type queryFunc func(ctx context.Context, c *query.Client, args []string, opts query.Options) (*query.Result, error)

type queryCommand struct {
	use       string
	short     string
	args      cobra.PositionalArgs
	repoFiles bool
	run       queryFunc
	// collapsed replaces run when --all is given.
	collapsed queryFunc
}

func leaf(fn func(*query.Client, context.Context, query.Options) (*query.Result, error)) queryFunc {
	return func(ctx context.Context, c *query.Client, _ []string, opts query.Options) (*query.Result, error) {
		return fn(c, ctx, opts)
	}
}

func newQueryCommands(opts *rootOptions) []*cobra.Command {
	defs := []queryCommand{
		{use: "owners", short: "List the configured owners", run: leaf((*query.Client).ListOwners)},
		{use: "owner-orgs", short: "List the matching organizations of every owner", run: leaf((*query.Client).ListOwnerOrganizations)},
		{use: "ratelimits", short: "Show the rate limit of every owner's credential", run: leaf((*query.Client).ListOwnerRateLimits)},
		{use: "orgs", short: "List the matching organizations of all owners", run: leaf((*query.Client).ListOrganizations)},
		{use: "teams", short: "List the teams of every organization", run: leaf((*query.Client).ListOrganizationTeams)},
		{use: "team-members", short: "List the members of every team", run: leaf((*query.Client).ListOrganizationTeamMembers)},
		{use: "repos", short: "List the repositories of every organization", repoFiles: true, run: leaf((*query.Client).ListOrganizationRepositories)},
		{
			use:       "collaborators",
			short:     "List the collaborators of every repository",
			repoFiles: true,
			run:       leaf((*query.Client).ListRepositoryCollaborators),
			collapsed: leaf((*query.Client).CollapseCollaborators),
		},
		{
			use:       "contributors",
			short:     "List the contributors of every repository",
			repoFiles: true,
			run:       leaf((*query.Client).ListRepositoryContributors),
			collapsed: leaf((*query.Client).CollapseContributors),
		},
		{
			use:       "members",
			short:     "List the members of every organization",
			run:       leaf((*query.Client).ListOrganizationMembers),
			collapsed: leaf((*query.Client).CollapseMembers),
		},
		{
			use:       "stats [category...]",
			short:     "Fetch repository statistics; no category or \"all\" fetches every category",
			args:      cobra.ArbitraryArgs,
			repoFiles: true,
			run: func(ctx context.Context, c *query.Client, args []string, opts query.Options) (*query.Result, error) {
				return c.ListRepositoryStatistics(ctx, args, opts)
			},
		},
		{
			use:   "whoami",
			short: "Show the user the --credential authenticates as",
			run: func(ctx context.Context, c *query.Client, _ []string, opts query.Options) (*query.Result, error) {
				if opts.Credential == nil {
					return nil, errors.New("--credential is required")
				}
				return c.ResolveUserFromCredential(ctx, opts)
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(defs)+1)
	for _, def := range defs {
		cmds = append(cmds, newQueryCommand(opts, def))
	}
	cmds = append(cmds, newVerifyCommand(opts))
	return cmds
}

func newQueryCommand(opts *rootOptions, def queryCommand) *cobra.Command {
	flags := &queryFlags{}
	args := def.args
	if args == nil {
		args = cobra.NoArgs
	}

	cmd := &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			run := def.run
			if flags.all && def.collapsed != nil {
				run = def.collapsed
			}

			var res *query.Result
			err = opts.withSpinner(cmd.Name(), func() error {
				var err error
				res, err = run(cmd.Context(), c, args, flags.options())
				return err
			})
			if err != nil {
				return err
			}
			return opts.printResult(res, flags)
		},
	}
	flags.register(cmd.Flags(), def.repoFiles)
	if def.collapsed != nil {
		cmd.Flags().BoolVar(&flags.all, "all", false, "Collapse all organizations into one sorted list without duplicates.")
	}
	return cmd
}

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var cred string
	cmd := &cobra.Command{
		Use:   "verify <user>",
		Short: "Check whether --credential belongs to user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cred == "" {
				return errors.New("--credential is required")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			owned, err := c.VerifyUserOwnsCredential(cmd.Context(), args[0], cred)
			if err != nil {
				return err
			}
			opts.log.Infoln(strconv.FormatBool(owned))
			return nil
		},
	}
	cmd.Flags().StringVar(&cred, "credential", "", "The token or user:password to check.")
	return cmd
}
