package query_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v61/github"
	"gotest.tools/v3/assert"

	"github.com/typhonjs-scm/scm-compound/api/rawfile"
	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/logger"
	"github.com/typhonjs-scm/scm-compound/model"
	"github.com/typhonjs-scm/scm-compound/normalize"
	"github.com/typhonjs-scm/scm-compound/query"
	"github.com/typhonjs-scm/scm-compound/settings"
)

var (
	fixedNow    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	errInjected = errors.New("injected failure")
)

// fakeREST serves canned records keyed by login, "org/slug" or "org/repo".
// The maps are read-only once a test starts.
type fakeREST struct {
	mu    sync.Mutex
	calls map[string]int

	remaining     map[string]int // by token, defaults to 5000
	users         map[string]*github.User
	userErrs      map[string]error
	orgs          map[string][]*github.Organization
	orgMembers    map[string][]*github.User
	orgMembersErr map[string]error
	orgMember     map[string]bool // "org/user"
	orgMemberErr  map[string]error
	teams         map[string][]*github.Team
	teamsErr      map[string]error
	teamMember    map[string]bool  // "org/slug/user"
	teamMemberErr map[string]error // "org/slug/user"
	teamMembers   map[string][]*github.User
	teamRepos     map[string][]*github.Repository
	teamReposErr  map[string]error // "org/slug"
	repos         map[string][]*github.Repository
	collaborators map[string][]*github.User
	contributors  map[string][]*github.Contributor
	stats         map[string]*model.Stats // "org/repo/category"
}

func newFakeREST() *fakeREST {
	return &fakeREST{calls: map[string]int{}}
}

func (f *fakeREST) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeREST) callsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeREST) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeREST) ListOrgsForUser(_ context.Context, _ credential.Credential, user string) ([]*github.Organization, error) {
	f.count("ListOrgsForUser")
	return f.orgs[user], nil
}

func (f *fakeREST) GetOrgMembers(_ context.Context, _ credential.Credential, org string) ([]*github.User, error) {
	f.count("GetOrgMembers")
	if err := f.orgMembersErr[org]; err != nil {
		return nil, err
	}
	return clone(f.orgMembers[org]), nil
}

func (f *fakeREST) GetOrgTeams(_ context.Context, _ credential.Credential, org string) ([]*github.Team, error) {
	f.count("GetOrgTeams")
	if err := f.teamsErr[org]; err != nil {
		return nil, err
	}
	return f.teams[org], nil
}

func (f *fakeREST) GetTeamMembers(_ context.Context, _ credential.Credential, org string, team *github.Team) ([]*github.User, error) {
	f.count("GetTeamMembers")
	members, ok := f.teamMembers[org+"/"+team.GetSlug()]
	if !ok {
		return nil, errInjected
	}
	return clone(members), nil
}

func (f *fakeREST) GetTeamRepos(_ context.Context, _ credential.Credential, org string, team *github.Team) ([]*github.Repository, error) {
	f.count("GetTeamRepos")
	if err := f.teamReposErr[org+"/"+team.GetSlug()]; err != nil {
		return nil, err
	}
	return f.teamRepos[org+"/"+team.GetSlug()], nil
}

func (f *fakeREST) IsOrgMember(_ context.Context, _ credential.Credential, org, user string) (bool, error) {
	f.count("IsOrgMember")
	if err := f.orgMemberErr[org+"/"+user]; err != nil {
		return false, err
	}
	return f.orgMember[org+"/"+user], nil
}

func (f *fakeREST) IsTeamMember(_ context.Context, _ credential.Credential, org string, team *github.Team, user string) (bool, error) {
	f.count("IsTeamMember")
	if err := f.teamMemberErr[org+"/"+team.GetSlug()+"/"+user]; err != nil {
		return false, err
	}
	return f.teamMember[org+"/"+team.GetSlug()+"/"+user], nil
}

func (f *fakeREST) ListReposForOrg(_ context.Context, _ credential.Credential, org string) ([]*github.Repository, error) {
	f.count("ListReposForOrg")
	return f.repos[org], nil
}

func (f *fakeREST) GetRepoCollaborators(_ context.Context, _ credential.Credential, owner, repo string) ([]*github.User, error) {
	f.count("GetRepoCollaborators")
	users, ok := f.collaborators[owner+"/"+repo]
	if !ok {
		return nil, errInjected
	}
	return clone(users), nil
}

func (f *fakeREST) GetRepoContributors(_ context.Context, _ credential.Credential, owner, repo string) ([]*github.Contributor, error) {
	f.count("GetRepoContributors")
	users, ok := f.contributors[owner+"/"+repo]
	if !ok {
		return nil, errInjected
	}
	return clone(users), nil
}

func (f *fakeREST) GetRepoStatsByCategory(_ context.Context, _ credential.Credential, owner, repo string, category model.StatCategory) (*model.Stats, error) {
	f.count("GetRepoStatsByCategory")
	s, ok := f.stats[owner+"/"+repo+"/"+string(category)]
	if !ok {
		return &model.Stats{}, nil
	}
	return s, nil
}

func (f *fakeREST) GetRateLimitStatus(_ context.Context, cred credential.Credential) (*github.RateLimits, error) {
	f.count("GetRateLimitStatus")
	remaining, ok := f.remaining[cred.Token]
	if !ok {
		remaining = 5000
	}
	return &github.RateLimits{
		Core:   &github.Rate{Limit: 5000, Remaining: remaining, Reset: github.Timestamp{Time: fixedNow.Add(time.Hour)}},
		Search: &github.Rate{Limit: 30, Remaining: 30, Reset: github.Timestamp{Time: fixedNow.Add(time.Minute)}},
	}, nil
}

func (f *fakeREST) GetAuthenticatedUser(_ context.Context, cred credential.Credential) (*github.User, error) {
	f.count("GetAuthenticatedUser")
	if err := f.userErrs[cred.Token]; err != nil {
		return nil, err
	}
	user, ok := f.users[cred.Token]
	if !ok {
		return nil, errInjected
	}
	return user, nil
}

// clone returns a fresh non-nil slice so callers can sort it.
func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

type fakeFiles struct {
	mu        sync.Mutex
	requested []string
	headers   []http.Header
	responses map[string]rawfile.Response
	err       error
}

func (f *fakeFiles) Fetch(_ context.Context, url string, headers http.Header) (rawfile.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, url)
	f.headers = append(f.headers, headers)
	if f.err != nil {
		return rawfile.Response{}, f.err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return rawfile.Response{StatusCode: http.StatusNotFound, Body: "404: Not Found"}, nil
}

func source(token, owner, pattern string) settings.Organization {
	return settings.Organization{Credential: token, Owner: owner, OwnerNamePattern: pattern}
}

func newClient(t *testing.T, rest *fakeREST, files *fakeFiles, sources ...settings.Organization) *query.Client {
	t.Helper()
	if files == nil {
		files = &fakeFiles{}
	}
	cfg := settings.Config{Organizations: sources, RawContentHost: "https://raw.example.com/"}
	c, err := query.New(cfg, rest, files, logger.Discard())
	assert.NilError(t, err)
	c.SetClock(func() time.Time { return fixedNow })
	return c
}

func org(login string, id int64) *github.Organization {
	return &github.Organization{Login: github.String(login), ID: github.Int64(id)}
}

func user(login string) *github.User {
	return &github.User{Login: github.String(login)}
}

func contributor(login string) *github.Contributor {
	return &github.Contributor{Login: github.String(login)}
}

func team(name, slug string) *github.Team {
	return &github.Team{Name: github.String(name), Slug: github.String(slug)}
}

func repo(owner, name string) *github.Repository {
	return &github.Repository{
		Name:          github.String(name),
		FullName:      github.String(owner + "/" + name),
		DefaultBranch: github.String("main"),
	}
}

// names returns the display names of normalized entries in order.
func names(entries []*normalize.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		switch v := e.Value.(type) {
		case normalize.Organization:
			out = append(out, v.Name)
		case normalize.Owner:
			out = append(out, v.Name)
		case normalize.Repository:
			out = append(out, v.Name)
		case normalize.Team:
			out = append(out, v.Name)
		case normalize.User:
			out = append(out, v.Name)
		}
	}
	return out
}
