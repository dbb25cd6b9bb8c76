// Package scm implements the hosting service REST calls used by compound queries
// on top of go-github, authenticating each call with a resolved credential.
package scm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"

	"github.com/typhonjs-scm/scm-compound/api/header"
	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/version"
)

const (
	DefaultAPIHost = "api.github.com"
	DefaultTimeout = 120 * time.Second

	perPage = 100
)

type Config struct {
	// APIHost is a host name or an absolute URL.
	APIHost    string
	PathPrefix string
	Timeout    time.Duration
	UserAgent  string
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client caches one go-github client per credential.
type Client struct {
	baseURL   *url.URL
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper

	mu      sync.Mutex
	clients map[credential.Credential]*github.Client
}

func New(cfg Config) (*Client, error) {
	host := cfg.APIHost
	if host == "" {
		host = DefaultAPIHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if prefix := strings.Trim(cfg.PathPrefix, "/"); prefix != "" {
		u.Path += "/" + prefix
	}
	u.Path += "/"

	c := &Client{
		baseURL:   u,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		transport: cfg.Transport,
		clients:   make(map[credential.Credential]*github.Client),
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = version.UserAgent()
	}
	if c.transport == nil {
		c.transport = http.DefaultTransport
	}
	return c, nil
}

// BaseURL is the API root every request is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) forCredential(cred credential.Credential) *github.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gh, ok := c.clients[cred]; ok {
		return gh
	}

	base := &commandTransport{base: c.transport}
	var transport http.RoundTripper
	switch cred.Type {
	case credential.Basic:
		transport = &github.BasicAuthTransport{
			Username:  cred.Username,
			Password:  cred.Password,
			Transport: base,
		}
	default:
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Token}),
			Base:   base,
		}
	}

	gh := github.NewClient(&http.Client{Transport: transport, Timeout: c.timeout})
	gh.BaseURL = c.baseURL
	gh.UserAgent = c.userAgent
	c.clients[cred] = gh
	return gh
}

// commandTransport stamps the CLI command header on every request.
type commandTransport struct {
	base http.RoundTripper
}

func (t *commandTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if header.GetCommandStr() == "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	header.Apply(r)
	return t.base.RoundTrip(r)
}

// listAll follows NextPage until the last page.
func listAll[T any](fetch func(opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	opts := github.ListOptions{PerPage: perPage}
	all := []T{}
	for {
		page, resp, err := fetch(opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func (c *Client) GetAuthenticatedUser(ctx context.Context, cred credential.Credential) (*github.User, error) {
	user, _, err := c.forCredential(cred).Users.Get(ctx, "")
	return user, err
}

func (c *Client) GetRateLimitStatus(ctx context.Context, cred credential.Credential) (*github.RateLimits, error) {
	limits, _, err := c.forCredential(cred).RateLimit.Get(ctx)
	return limits, err
}

func (c *Client) ListOrgsForUser(ctx context.Context, cred credential.Credential, user string) ([]*github.Organization, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.Organization, *github.Response, error) {
		return gh.Organizations.List(ctx, user, &opts)
	})
}

func (c *Client) GetOrgMembers(ctx context.Context, cred credential.Credential, org string) ([]*github.User, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.User, *github.Response, error) {
		return gh.Organizations.ListMembers(ctx, org, &github.ListMembersOptions{ListOptions: opts})
	})
}

func (c *Client) GetOrgTeams(ctx context.Context, cred credential.Credential, org string) ([]*github.Team, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.Team, *github.Response, error) {
		return gh.Teams.ListTeams(ctx, org, &opts)
	})
}

func (c *Client) GetTeamMembers(ctx context.Context, cred credential.Credential, org string, team *github.Team) ([]*github.User, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.User, *github.Response, error) {
		return gh.Teams.ListTeamMembersBySlug(ctx, org, team.GetSlug(), &github.TeamListTeamMembersOptions{ListOptions: opts})
	})
}

func (c *Client) GetTeamRepos(ctx context.Context, cred credential.Credential, org string, team *github.Team) ([]*github.Repository, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return gh.Teams.ListTeamReposBySlug(ctx, org, team.GetSlug(), &opts)
	})
}

func (c *Client) IsOrgMember(ctx context.Context, cred credential.Credential, org, user string) (bool, error) {
	member, _, err := c.forCredential(cred).Organizations.IsMember(ctx, org, user)
	return member, err
}

// IsTeamMember reports whether user has an active membership of team.
func (c *Client) IsTeamMember(ctx context.Context, cred credential.Credential, org string, team *github.Team, user string) (bool, error) {
	membership, _, err := c.forCredential(cred).Teams.GetTeamMembershipBySlug(ctx, org, team.GetSlug(), user)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return membership.GetState() == "active", nil
}

func (c *Client) ListReposForOrg(ctx context.Context, cred credential.Credential, org string) ([]*github.Repository, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return gh.Repositories.ListByOrg(ctx, org, &github.RepositoryListByOrgOptions{ListOptions: opts})
	})
}

func (c *Client) GetRepoCollaborators(ctx context.Context, cred credential.Credential, owner, repo string) ([]*github.User, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.User, *github.Response, error) {
		return gh.Repositories.ListCollaborators(ctx, owner, repo, &github.ListCollaboratorsOptions{ListOptions: opts})
	})
}

func (c *Client) GetRepoContributors(ctx context.Context, cred credential.Credential, owner, repo string) ([]*github.Contributor, error) {
	gh := c.forCredential(cred)
	return listAll(func(opts github.ListOptions) ([]*github.Contributor, *github.Response, error) {
		return gh.Repositories.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{ListOptions: opts})
	})
}
