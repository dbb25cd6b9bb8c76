package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/typhonjs-scm/scm-compound/query"
	"github.com/typhonjs-scm/scm-compound/settings"
)

const testConfigPath = "/home/.scm-compound/cli.yml"

// fakeAPI serves the few hosting service endpoints the commands below touch.
type fakeAPI struct {
	*httptest.Server
	requests atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4999,"reset":1700000000},"search":{"limit":30,"remaining":30,"reset":1700000000}}}`)
	})
	mux.HandleFunc("/users/typhonjs/orgs", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"login":"test-org-typhonjs2","id":2},{"login":"unrelated","id":3},{"login":"test-org-typhonjs","id":1}]`)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer revoked" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}
		fmt.Fprint(w, `{"login":"bob","id":7}`)
	})
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func configYAML(api *fakeAPI) string {
	return fmt.Sprintf(`organizations:
  - credential: abc
    owner: typhonjs
    ownerNamePattern: ^test-org
api_host: %s
`, api.URL)
}

func newTestCommand(t *testing.T, config string) (*cobra.Command, *rootOptions, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	for _, k := range []string{"SCM_COMPOUND_TOKEN", "SCM_COMPOUND_OWNER", "SCM_COMPOUND_API_HOST"} {
		t.Setenv(k, "")
	}
	fs := afero.NewMemMapFs()
	if config != "" {
		assert.NilError(t, afero.WriteFile(fs, testConfigPath, []byte(config), 0600))
	}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	opts := &rootOptions{
		cfg:        &settings.Config{},
		fs:         fs,
		configPath: testConfigPath,
		out:        out,
		errOut:     errOut,
		newClient:  query.NewFromConfig,
	}
	return makeCommands(opts), opts, out, errOut
}

func run(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestVersion(t *testing.T) {
	cmd, _, out, _ := newTestCommand(t, "")
	assert.NilError(t, run(cmd, "version"))
	assert.Equal(t, out.String(), "0.0.0-dev+dirty-local-tree\n")
}

func TestOwnersMakesNoRequests(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, out, _ := newTestCommand(t, configYAML(api))

	assert.NilError(t, run(cmd, "owners"))
	assert.Assert(t, cmp.Contains(out.String(), `"categories": "owners"`))
	assert.Assert(t, cmp.Contains(out.String(), `"name": "typhonjs"`))
	assert.Equal(t, api.requests.Load(), int32(0))
}

func TestOrgsSorted(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, out, _ := newTestCommand(t, configYAML(api))

	assert.NilError(t, run(cmd, "orgs"))
	s := out.String()
	first, second := strings.Index(s, `"test-org-typhonjs"`), strings.Index(s, `"test-org-typhonjs2"`)
	assert.Assert(t, first >= 0 && second > first, s)
	assert.Assert(t, !strings.Contains(s, "unrelated"))
}

func TestOrgsRawOnly(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, out, _ := newTestCommand(t, configYAML(api))

	assert.NilError(t, run(cmd, "orgs", "--raw-only"))
	assert.Assert(t, !strings.Contains(out.String(), `"categories"`))
	assert.Assert(t, cmp.Contains(out.String(), `"login": "test-org-typhonjs"`))
}

func TestRateLimitsTable(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, out, _ := newTestCommand(t, configYAML(api))

	assert.NilError(t, run(cmd, "ratelimits", "--table"))
	assert.Assert(t, cmp.Contains(out.String(), "CORE REMAINING"))
	assert.Assert(t, cmp.Contains(out.String(), "4999"))
	assert.Assert(t, cmp.Contains(out.String(), "typhonjs"))
}

func TestNoSourcesConfigured(t *testing.T) {
	cmd, _, _, _ := newTestCommand(t, "")
	err := run(cmd, "orgs")
	assert.ErrorContains(t, err, "No organization sources configured in "+testConfigPath)
}

func TestWhoami(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, out, _ := newTestCommand(t, configYAML(api))

	assert.ErrorContains(t, run(cmd, "whoami"), "--credential is required")

	cmd, _, out, _ = newTestCommand(t, configYAML(api))
	assert.NilError(t, run(cmd, "whoami", "--credential", "user-token"))
	assert.Assert(t, cmp.Contains(out.String(), `"categories": "users"`))
	assert.Assert(t, cmp.Contains(out.String(), `"name": "bob"`))
}

func TestVerify(t *testing.T) {
	api := newFakeAPI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "owner", args: []string{"verify", "Bob", "--credential", "user-token"}, want: "true\n"},
		{name: "other user", args: []string{"verify", "alice", "--credential", "user-token"}, want: "false\n"},
		{name: "rejected credential", args: []string{"verify", "bob", "--credential", "revoked"}, want: "false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, out, _ := newTestCommand(t, configYAML(api))
			assert.NilError(t, run(cmd, tt.args...))
			assert.Equal(t, out.String(), tt.want)
		})
	}
}

func TestUnknownStatCategory(t *testing.T) {
	api := newFakeAPI(t)
	cmd, _, _, _ := newTestCommand(t, configYAML(api))

	err := run(cmd, "stats", "bogus")
	assert.ErrorContains(t, err, `unknown statistics category: "bogus"`)
	assert.Equal(t, api.requests.Load(), int32(0))
}
