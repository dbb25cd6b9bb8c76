package scm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v61/github"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/typhonjs-scm/scm-compound/api/header"
	"github.com/typhonjs-scm/scm-compound/api/scm"
	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/model"
)

var (
	token = credential.Credential{Type: credential.Token, Token: "fake-token"}
	basic = credential.Credential{Type: credential.Basic, Username: "alice", Password: "secret"}
)

func newClient(t *testing.T, handler http.Handler) *scm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := scm.New(scm.Config{APIHost: server.URL, Timeout: 5 * time.Second, UserAgent: "test-agent"})
	assert.NilError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	assert.Check(t, err)
}

func TestNew_BaseURL(t *testing.T) {
	c, err := scm.New(scm.Config{})
	assert.NilError(t, err)
	assert.Equal(t, c.BaseURL(), "https://api.github.com/")

	c, err = scm.New(scm.Config{APIHost: "ghe.example.com", PathPrefix: "/api/v3"})
	assert.NilError(t, err)
	assert.Equal(t, c.BaseURL(), "https://ghe.example.com/api/v3/")
}

func TestClient_ListOrgsForUser(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/typhonjs/orgs", func(w http.ResponseWriter, r *http.Request) {
		assert.Check(t, cmp.Equal(r.Method, "GET"))
		assert.Check(t, cmp.Equal(r.Header.Get("Authorization"), "Bearer fake-token"))
		assert.Check(t, cmp.Equal(r.Header.Get("User-Agent"), "test-agent"))
		assert.Check(t, cmp.Equal(r.URL.Query().Get("per_page"), "100"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, http.StatusOK, `[{"login": "test-org-typhonjs2", "id": 2}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/typhonjs/orgs?page=2&per_page=100>; rel="next"`, serverURL))
		writeJSON(t, w, http.StatusOK, `[{"login": "test-org-typhonjs", "id": 1}]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	c, err := scm.New(scm.Config{APIHost: server.URL, UserAgent: "test-agent"})
	assert.NilError(t, err)

	orgs, err := c.ListOrgsForUser(context.Background(), token, "typhonjs")
	assert.NilError(t, err)
	assert.Assert(t, cmp.Len(orgs, 2))
	assert.Equal(t, orgs[0].GetLogin(), "test-org-typhonjs")
	assert.Equal(t, orgs[1].GetLogin(), "test-org-typhonjs2")
}

func TestClient_BasicAuthAndCommandHeader(t *testing.T) {
	header.SetCommandStr("whoami")
	defer header.SetCommandStr("")

	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		assert.Check(t, ok)
		assert.Check(t, cmp.Equal(username, "alice"))
		assert.Check(t, cmp.Equal(password, "secret"))
		assert.Check(t, cmp.Equal(r.URL.Path, "/user"))
		assert.Check(t, cmp.Equal(r.Header.Get(header.CommandHeader), "whoami"))
		writeJSON(t, w, http.StatusOK, `{"login": "alice", "id": 42}`)
	}))

	user, err := c.GetAuthenticatedUser(context.Background(), basic)
	assert.NilError(t, err)
	assert.Equal(t, user.GetLogin(), "alice")
	assert.Equal(t, user.GetID(), int64(42))
}

func TestClient_GetRateLimitStatus(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Check(t, cmp.Equal(r.URL.Path, "/rate_limit"))
		writeJSON(t, w, http.StatusOK, `{"resources": {
			"core": {"limit": 5000, "remaining": 0, "reset": 1700000000},
			"search": {"limit": 30, "remaining": 30, "reset": 1700000000}
		}}`)
	}))

	limits, err := c.GetRateLimitStatus(context.Background(), token)
	assert.NilError(t, err)
	assert.Equal(t, limits.GetCore().Limit, 5000)
	assert.Equal(t, limits.GetCore().Remaining, 0)
	assert.Equal(t, limits.GetCore().Reset.Unix(), int64(1700000000))
}

func TestClient_IsTeamMember(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{name: "active", status: http.StatusOK, body: `{"state": "active", "role": "member"}`, want: true},
		{name: "pending", status: http.StatusOK, body: `{"state": "pending", "role": "member"}`, want: false},
		{name: "not found", status: http.StatusNotFound, body: `{"message": "Not Found"}`, want: false},
		{name: "server error", status: http.StatusInternalServerError, body: `{"message": "boom"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Check(t, cmp.Equal(r.URL.Path, "/orgs/org/teams/devs/memberships/alice"))
				writeJSON(t, w, tt.status, tt.body)
			}))

			got, err := c.IsTeamMember(context.Background(), token, "org", &github.Team{Slug: github.String("devs")}, "alice")
			if tt.wantErr {
				assert.Assert(t, err != nil)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestClient_IsOrgMember(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orgs/org/members/alice":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	member, err := c.IsOrgMember(context.Background(), token, "org", "alice")
	assert.NilError(t, err)
	assert.Assert(t, member)

	member, err = c.IsOrgMember(context.Background(), token, "org", "mallory")
	assert.NilError(t, err)
	assert.Assert(t, !member)
}

func TestClient_GetRepoStatsByCategory(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/org/repo/stats/contributors":
			writeJSON(t, w, http.StatusAccepted, `{}`)
		case "/repos/org/repo/stats/punch_card":
			writeJSON(t, w, http.StatusOK, `[[0, 1, 5]]`)
		case "/repos/org/repo/stargazers":
			writeJSON(t, w, http.StatusOK, `[{"starred_at": "2020-01-01T00:00:00Z", "user": {"login": "star"}}]`)
		default:
			writeJSON(t, w, http.StatusNotFound, `{"message": "Not Found"}`)
		}
	}))
	ctx := context.Background()

	pending, err := c.GetRepoStatsByCategory(ctx, token, "org", "repo", model.StatContributors)
	assert.NilError(t, err)
	assert.Assert(t, pending.Pending)
	assert.Assert(t, pending.IsPending(model.StatContributors))
	assert.Assert(t, pending.Contributors == nil)

	punch, err := c.GetRepoStatsByCategory(ctx, token, "org", "repo", model.StatPunchCard)
	assert.NilError(t, err)
	assert.Assert(t, !punch.Pending)
	assert.Assert(t, cmp.Len(punch.PunchCard, 1))
	assert.Equal(t, punch.PunchCard[0].GetCommits(), 5)

	stars, err := c.GetRepoStatsByCategory(ctx, token, "org", "repo", model.StatStargazers)
	assert.NilError(t, err)
	assert.Assert(t, cmp.Len(stars.Stargazers, 1))
	assert.Equal(t, stars.Stargazers[0].GetUser().GetLogin(), "star")

	_, err = c.GetRepoStatsByCategory(ctx, token, "org", "repo", model.StatCodeFrequency)
	assert.ErrorContains(t, err, "404")
}
