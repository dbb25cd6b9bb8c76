// Package query composes per-resource hosting service calls into compound
// queries spanning every configured organization source.
package query

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v61/github"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/typhonjs-scm/scm-compound/api/rawfile"
	"github.com/typhonjs-scm/scm-compound/api/scm"
	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/logger"
	"github.com/typhonjs-scm/scm-compound/model"
	"github.com/typhonjs-scm/scm-compound/normalize"
	"github.com/typhonjs-scm/scm-compound/ratelimit"
	"github.com/typhonjs-scm/scm-compound/settings"
)

// RESTClient is the hosting service capability set compound queries are built from.
type RESTClient interface {
	ListOrgsForUser(ctx context.Context, cred credential.Credential, user string) ([]*github.Organization, error)
	GetOrgMembers(ctx context.Context, cred credential.Credential, org string) ([]*github.User, error)
	GetOrgTeams(ctx context.Context, cred credential.Credential, org string) ([]*github.Team, error)
	GetTeamMembers(ctx context.Context, cred credential.Credential, org string, team *github.Team) ([]*github.User, error)
	GetTeamRepos(ctx context.Context, cred credential.Credential, org string, team *github.Team) ([]*github.Repository, error)
	IsOrgMember(ctx context.Context, cred credential.Credential, org, user string) (bool, error)
	IsTeamMember(ctx context.Context, cred credential.Credential, org string, team *github.Team, user string) (bool, error)
	ListReposForOrg(ctx context.Context, cred credential.Credential, org string) ([]*github.Repository, error)
	GetRepoCollaborators(ctx context.Context, cred credential.Credential, owner, repo string) ([]*github.User, error)
	GetRepoContributors(ctx context.Context, cred credential.Credential, owner, repo string) ([]*github.Contributor, error)
	GetRepoStatsByCategory(ctx context.Context, cred credential.Credential, owner, repo string, category model.StatCategory) (*model.Stats, error)
	GetRateLimitStatus(ctx context.Context, cred credential.Credential) (*github.RateLimits, error)
	GetAuthenticatedUser(ctx context.Context, cred credential.Credential) (*github.User, error)
}

// RawFetcher fetches files from raw content hosting.
type RawFetcher interface {
	Fetch(ctx context.Context, url string, headers http.Header) (rawfile.Response, error)
}

const (
	DefaultHostURLPrefix  = "https://github.com/"
	DefaultRawContentHost = "https://raw.githubusercontent.com"
)

// Client runs compound queries over a fixed set of organization sources.
type Client struct {
	sources        []model.OrganizationSource
	rest           RESTClient
	files          RawFetcher
	gate           *ratelimit.Gate
	normalizer     *normalize.Normalizer
	rawContentHost string
	log            *logger.Logger
	verbose        bool
}

// New validates the configured organization sources eagerly.
func New(cfg settings.Config, rest RESTClient, files RawFetcher, log *logger.Logger) (*Client, error) {
	if len(cfg.Organizations) == 0 {
		return nil, errs.InvalidArgumentf("at least one organization source is required")
	}
	sources := make([]model.OrganizationSource, 0, len(cfg.Organizations))
	for i, o := range cfg.Organizations {
		src, err := model.NewOrganizationSource(o.Credential, o.Owner, o.OwnerNamePattern)
		if err != nil {
			return nil, errs.InvalidArgumentf("organizations[%d]: %v", i, err)
		}
		sources = append(sources, src)
	}

	hostURLPrefix := cfg.HostURLPrefix
	if hostURLPrefix == "" {
		hostURLPrefix = DefaultHostURLPrefix
	}
	rawContentHost := cfg.RawContentHost
	if rawContentHost == "" {
		rawContentHost = DefaultRawContentHost
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		sources:        sources,
		rest:           rest,
		files:          files,
		gate:           ratelimit.NewGate(rest),
		normalizer:     normalize.New(hostURLPrefix),
		rawContentHost: rawContentHost,
		log:            log,
		verbose:        cfg.Verbose,
	}, nil
}

// NewFromConfig builds a Client talking to the configured hosting service.
func NewFromConfig(cfg settings.Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	timeout := scm.DefaultTimeout
	if cfg.TimeoutMillis > 0 {
		timeout = time.Duration(cfg.TimeoutMillis) * time.Millisecond
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Debug {
		transport = &scm.DebugTransport{Base: transport, Logf: log.WithVerbose(true).Debug}
	}

	rest, err := scm.New(scm.Config{
		APIHost:    cfg.APIHost,
		PathPrefix: cfg.PathPrefix,
		Timeout:    timeout,
		UserAgent:  cfg.UserAgent,
		Transport:  transport,
	})
	if err != nil {
		return nil, errs.InvalidArgumentf("invalid api host: %v", err)
	}
	files := rawfile.NewWithHTTPClient(&http.Client{Timeout: timeout, Transport: transport}, cfg.UserAgent)
	return New(cfg, rest, files, log)
}

// SetClock replaces the clock used for normalized tree timestamps.
func (c *Client) SetClock(now func() time.Time) {
	c.normalizer.Now = now
}

// Emit selects what a query returns.
type Emit int

const (
	EmitNormalizedTree Emit = iota
	EmitAggregateOnly
)

// Options are read, never modified.
type Options struct {
	// Credential restricts results to what its identity can access. It is
	// anything credential.Resolve accepts; nil leaves the scope unrestricted.
	Credential any
	// RepoFiles are repository-relative paths fetched for every repository.
	RepoFiles []string
	// RawOnly skips normalization.
	RawOnly            bool
	Verbose            bool
	SkipRateLimitCheck bool
}

// Result holds the normalized tree (unless RawOnly) and the raw aggregate.
type Result struct {
	Normalized *normalize.Tree `json:"normalized,omitempty"`
	Raw        any             `json:"raw"`
}

// AccessScope is either unrestricted or scoped to the identity of a credential.
type AccessScope struct {
	Credential *credential.Credential
	User       *github.User
}

func (s AccessScope) Unrestricted() bool {
	return s.User == nil
}

// call is the private workspace of one top-level query.
type call struct {
	id               string
	scope            AccessScope
	credential       *credential.Credential
	repoFiles        []string
	emit             Emit
	log              *logger.Logger
	skipRateLimit    bool
	rateLimitChecked bool
}

func (cl *call) debugf(format string, args ...any) {
	cl.log.Debug("[%s] "+format, append([]any{cl.id}, args...)...)
}

// newCall validates opts without any network activity.
func (c *Client) newCall(opts Options) (*call, error) {
	cl := &call{
		id:            uuid.NewString()[:8],
		emit:          EmitNormalizedTree,
		log:           c.log.WithVerbose(c.verbose || opts.Verbose || c.log.Verbose()),
		skipRateLimit: opts.SkipRateLimitCheck,
	}
	if opts.RawOnly {
		cl.emit = EmitAggregateOnly
	}
	if opts.Credential != nil {
		cred, err := credential.Resolve(opts.Credential)
		if err != nil {
			return nil, err
		}
		cl.credential = &cred
	}
	for _, path := range opts.RepoFiles {
		if path == "" {
			return nil, errs.InvalidArgumentf("repository file paths must not be empty")
		}
	}
	cl.repoFiles = append([]string(nil), opts.RepoFiles...)
	return cl, nil
}

// admit runs the rate limit gate once per call and resolves the calling
// identity when a credential was supplied.
func (c *Client) admit(ctx context.Context, cl *call) error {
	if err := c.gate.CheckAll(ctx, c.sources, cl.skipRateLimit || cl.rateLimitChecked); err != nil {
		return err
	}
	cl.rateLimitChecked = true

	if cl.credential == nil {
		return nil
	}
	user, err := c.identity(ctx, *cl.credential)
	if err != nil {
		return err
	}
	cl.scope = AccessScope{Credential: cl.credential, User: user}
	cl.debugf("scoped to user %s with credential %s", user.GetLogin(), cl.scope.Credential)
	return nil
}

func (c *Client) start(ctx context.Context, opts Options) (*call, error) {
	cl, err := c.newCall(opts)
	if err != nil {
		return nil, err
	}
	if err := c.admit(ctx, cl); err != nil {
		return nil, err
	}
	return cl, nil
}

func finish[T any](c *Client, cl *call, path []string, records []T) (*Result, error) {
	res := &Result{Raw: records}
	if cl.emit == EmitAggregateOnly {
		return res, nil
	}
	tree, err := c.normalizer.Normalize(path, normalize.Roots(records))
	if err != nil {
		return nil, err
	}
	res.Normalized = tree
	return res, nil
}

// batch joins a fan-out all-or-nothing. Best-effort tasks return nil on failure.
func batch(ctx context.Context) *pool.ContextPool {
	return pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
}
