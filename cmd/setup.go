package cmd

import (
	"context"
	"regexp"
	"strconv"

	"github.com/google/go-github/v61/github"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/prompt"
	"github.com/typhonjs-scm/scm-compound/query"
	"github.com/typhonjs-scm/scm-compound/settings"
)

const defaultOwnerNamePattern = ".*"

type setupOptions struct {
	*rootOptions
	noPrompt bool
	// Used with --no-prompt
	token   string
	owner   string
	pattern string
	// This lets us pass in our own interface for testing
	tty setupUserInterface
}

// setupUserInterface is created to allow us to pass a mock user interface for testing.
type setupUserInterface interface {
	selectCredentialType(message string) (string, error)
	readSecretStringFromUser(message string) (string, error)
	readStringFromUser(message string, defaultValue string, validator func(string) error) (string, error)
	askUserToConfirm(message string) bool
}

// setupInteractiveUI implements the setupUserInterface used by the real program, not in tests.
type setupInteractiveUI struct{}

func (setupInteractiveUI) selectCredentialType(message string) (string, error) {
	return prompt.SelectFromUser(message, []string{string(credential.Token), string(credential.Basic)}, string(credential.Token))
}

func (setupInteractiveUI) readSecretStringFromUser(message string) (string, error) {
	return prompt.ReadSecretStringFromUser(message)
}

func (setupInteractiveUI) readStringFromUser(message string, defaultValue string, validator func(string) error) (string, error) {
	return prompt.ReadStringFromUser(message, defaultValue, validator)
}

func (setupInteractiveUI) askUserToConfirm(message string) bool {
	return prompt.AskUserToConfirmWithDefault(message, true)
}

func newSetupCommand(root *rootOptions) *cobra.Command {
	opts := &setupOptions{
		rootOptions: root,
		tty:         setupInteractiveUI{},
	}

	setupCommand := &cobra.Command{
		Use:   "setup",
		Short: "Add an organization source to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd.Context(), opts)
		},
	}

	setupCommand.Flags().BoolVar(&opts.noPrompt, "no-prompt", false, "Disable prompt to bypass interactive UI. (MUST supply --token and --owner)")
	setupCommand.Flags().StringVar(&opts.token, "token", "", "token or user:password of the new source")
	setupCommand.Flags().StringVar(&opts.owner, "owner", "", "owner whose organizations are listed")
	setupCommand.Flags().StringVar(&opts.pattern, "pattern", defaultOwnerNamePattern, "regular expression organization logins must match")

	return setupCommand
}

func validatePattern(s string) error {
	_, err := regexp.Compile(s)
	return err
}

func setup(ctx context.Context, opts *setupOptions) error {
	src, err := readSource(opts)
	if err != nil {
		return err
	}
	if src == nil {
		opts.log.Infof("Setup has kept your existing configuration at %s.\n", opts.cfg.FileUsed)
		return nil
	}

	opts.cfg.Organizations = append(opts.cfg.Organizations, *src)
	if err := opts.cfg.WriteToDisk(opts.fs); err != nil {
		return errors.Wrap(err, "Failed to save config file")
	}
	opts.log.Infof("Setup complete.\nYour configuration has been saved to %s.\n", opts.cfg.FileUsed)

	c, err := opts.client()
	if err != nil {
		return err
	}
	opts.log.Info("Trying to resolve the user of the new credential... ")
	res, err := c.ResolveUserFromCredential(ctx, query.Options{Credential: src.Credential, RawOnly: true})
	if err != nil {
		opts.log.Warn("unable to verify the credential: %v\n", err)
		return nil
	}
	if users, ok := res.Raw.([]*github.User); ok && len(users) > 0 {
		opts.log.Infof("Hello, %s.\n", users[0].GetLogin())
	}
	return nil
}

// readSource returns nil when the user keeps the existing configuration.
func readSource(opts *setupOptions) (*settings.Organization, error) {
	if opts.noPrompt {
		if opts.token == "" || opts.owner == "" {
			return nil, errors.New("The proper format is `scm-compound setup --token TOKEN --owner OWNER [--pattern PATTERN] --no-prompt`")
		}
		if err := validatePattern(opts.pattern); err != nil {
			return nil, errors.Wrap(err, "Invalid --pattern")
		}
		return &settings.Organization{Credential: opts.token, Owner: opts.owner, OwnerNamePattern: opts.pattern}, nil
	}

	if n := len(opts.cfg.Organizations); n > 0 {
		if !opts.tty.askUserToConfirm(pluralSources(n) + " already configured. Do you want to add another") {
			return nil, nil
		}
	}

	kind, err := opts.tty.selectCredentialType("Credential type")
	if err != nil {
		return nil, errors.Wrap(err, "Error reading credential type")
	}

	var cred any
	switch credential.Type(kind) {
	case credential.Basic:
		username, err := opts.tty.readStringFromUser("Username", "", nil)
		if err != nil {
			return nil, errors.Wrap(err, "Error reading username")
		}
		password, err := opts.tty.readSecretStringFromUser("Password")
		if err != nil {
			return nil, errors.Wrap(err, "Error reading password")
		}
		cred = map[string]any{"type": string(credential.Basic), "username": username, "password": password}
	default:
		token, err := opts.tty.readSecretStringFromUser("API token")
		if err != nil {
			return nil, errors.Wrap(err, "Error reading token")
		}
		cred = token
	}
	if _, err := credential.Resolve(cred); err != nil {
		return nil, err
	}

	owner, err := opts.tty.readStringFromUser("Owner whose organizations are listed", "", nil)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading owner")
	}
	pattern, err := opts.tty.readStringFromUser("Organization name pattern", defaultOwnerNamePattern, validatePattern)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading pattern")
	}

	return &settings.Organization{Credential: cred, Owner: owner, OwnerNamePattern: pattern}, nil
}

func pluralSources(n int) string {
	if n == 1 {
		return "1 organization source is"
	}
	return strconv.Itoa(n) + " organization sources are"
}
