package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/typhonjs-scm/scm-compound/normalize"
	"github.com/typhonjs-scm/scm-compound/query"
)

func (opts *rootOptions) printResult(res *query.Result, f *queryFlags) error {
	switch {
	case res.Normalized == nil:
		return opts.log.Prettyify(res.Raw)
	case f.table:
		return renderTable(opts.out, res.Normalized)
	case f.raw:
		return opts.log.Prettyify(res)
	}
	return opts.log.Prettyify(res.Normalized)
}

func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (opts *rootOptions) withSpinner(name string, fn func() error) error {
	if !opts.interactive {
		return fn()
	}
	spr := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(opts.errOut))
	spr.Suffix = fmt.Sprintf(" Querying %s...", name)
	spr.Start()
	defer spr.Stop()
	return fn()
}

// renderTable prints one row per entry at the deepest level of the tree.
// With nested categories the first column names the ancestors.
func renderTable(w io.Writer, tree *normalize.Tree) error {
	depth := strings.Count(tree.Categories, ":")

	var (
		header []string
		rows   [][]string
	)
	var walk func(entries []*normalize.Entry, level int, parents []string) error
	walk = func(entries []*normalize.Entry, level int, parents []string) error {
		for _, e := range entries {
			if level < depth {
				if err := walk(e.Children, level+1, append(parents[:level:level], entryName(e.Value))); err != nil {
					return err
				}
				continue
			}
			h, cells, err := columns(e.Value)
			if err != nil {
				return err
			}
			if depth > 0 {
				h = append([]string{"Parent"}, h...)
				cells = append([]string{strings.Join(parents, "/")}, cells...)
			}
			header = h
			rows = append(rows, cells)
		}
		return nil
	}
	if err := walk(tree.Entries, 0, nil); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	if header != nil {
		table.SetHeader(header)
	}
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func entryName(v any) string {
	switch v := v.(type) {
	case normalize.Organization:
		return v.Name
	case normalize.Owner:
		return v.Name
	case normalize.Repository:
		return v.Name
	case normalize.Team:
		return v.Name
	case normalize.User:
		return v.Name
	}
	return ""
}

func columns(v any) ([]string, []string, error) {
	switch v := v.(type) {
	case normalize.Organization:
		return []string{"Name", "ID", "URL", "Description"},
			[]string{v.Name, strconv.FormatInt(v.ID, 10), v.URL, v.Description}, nil
	case normalize.Owner:
		return []string{"Name", "URL"}, []string{v.Name, v.URL}, nil
	case normalize.User:
		return []string{"Login", "ID", "URL"},
			[]string{v.Name, strconv.FormatInt(v.ID, 10), v.URL}, nil
	case normalize.Repository:
		return []string{"Name", "Default Branch", "Private", "Fork", "Stars", "Pushed At"},
			[]string{v.Name, v.DefaultBranch, strconv.FormatBool(v.Private), strconv.FormatBool(v.Fork), strconv.Itoa(v.StargazersCount), v.PushedAt}, nil
	case normalize.Team:
		return []string{"Name", "ID", "Privacy", "Permission"},
			[]string{v.Name, strconv.FormatInt(v.ID, 10), v.Privacy, v.Permission}, nil
	case normalize.RateLimit:
		return []string{"Core Remaining", "Core Limit", "Core Reset", "Search Remaining", "Search Limit"},
			[]string{
				strconv.Itoa(v.Core.Remaining), strconv.Itoa(v.Core.Limit), formatMillis(v.Core.Reset),
				strconv.Itoa(v.Search.Remaining), strconv.Itoa(v.Search.Limit),
			}, nil
	case normalize.Statistics:
		return []string{"Pending"}, []string{strconv.FormatBool(v.Pending)}, nil
	}
	return nil, nil, fmt.Errorf("no table layout for %T", v)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
