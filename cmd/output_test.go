package cmd

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/typhonjs-scm/scm-compound/normalize"
)

func TestRenderTableNested(t *testing.T) {
	tree := &normalize.Tree{
		Categories: "orgs:repos:collaborators",
		Key:        "orgs",
		Entries: []*normalize.Entry{{
			Value: normalize.Organization{Name: "test-org-typhonjs"},
			Key:   "repos",
			Children: []*normalize.Entry{
				{
					Value:    normalize.Repository{Name: "alpha"},
					Key:      "collaborators",
					Children: []*normalize.Entry{{Value: normalize.User{Name: "amy", ID: 3}}},
				},
				{Value: normalize.Repository{Name: "zeta"}},
			},
		}},
	}

	var buf bytes.Buffer
	assert.NilError(t, renderTable(&buf, tree))

	out := buf.String()
	assert.Assert(t, cmp.Contains(out, "PARENT"))
	assert.Assert(t, cmp.Contains(out, "test-org-typhonjs/alpha"))
	assert.Assert(t, cmp.Contains(out, "amy"))
	assert.Assert(t, !strings.Contains(out, "zeta"))
}

func TestRenderTableUnsupported(t *testing.T) {
	tree := &normalize.Tree{
		Categories: "orgs",
		Key:        "orgs",
		Entries:    []*normalize.Entry{{Value: struct{}{}}},
	}
	err := renderTable(&bytes.Buffer{}, tree)
	assert.ErrorContains(t, err, "no table layout")
}

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, formatMillis(0), "")
	assert.Equal(t, formatMillis(1700000000000), "2023-11-14T22:13:20Z")
}
