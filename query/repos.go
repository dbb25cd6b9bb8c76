package query

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/model"
)

func repoName(r *model.Repository) string { return r.GetName() }

// ListOrganizationRepositories lists the repositories of every organization.
// With a credential only repositories reachable through the user's teams are
// kept.
func (c *Client) ListOrganizationRepositories(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.repositories(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryRepos}, orgs)
}

func (c *Client) repositories(ctx context.Context, cl *call) ([]*model.Organization, error) {
	var (
		orgs []*model.Organization
		err  error
	)
	if cl.scope.Unrestricted() {
		orgs, err = c.organizationRepos(ctx, cl)
	} else {
		orgs, err = c.teamRepos(ctx, cl)
	}
	if err != nil {
		return nil, err
	}
	if len(cl.repoFiles) == 0 {
		return orgs, nil
	}
	return c.fetchRepoFiles(ctx, cl, orgs)
}

func (c *Client) organizationRepos(ctx context.Context, cl *call) ([]*model.Organization, error) {
	orgs, err := c.organizations(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		i, org := i, org
		p.Go(func(ctx context.Context) error {
			raw, err := c.rest.ListReposForOrg(ctx, org.Credential, org.GetLogin())
			if err != nil {
				return err
			}
			o := org.Clone()
			o.Repos = wrapRepos(raw)
			sortByName(o.Repos, repoName)
			out[i] = o
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// teamRepos unions the repositories of the user's visible teams per organization.
func (c *Client) teamRepos(ctx context.Context, cl *call) ([]*model.Organization, error) {
	orgs, err := c.teams(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	perTeam := make([][][]*github.Repository, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		org := org
		perTeam[i] = make([][]*github.Repository, len(org.Teams))
		for j, team := range org.Teams {
			i, j, team := i, j, team
			p.Go(func(ctx context.Context) error {
				repos, err := c.rest.GetTeamRepos(ctx, org.Credential, org.GetLogin(), team.Team)
				if err != nil {
					return err
				}
				perTeam[i][j] = repos
				return nil
			})
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	for i, org := range orgs {
		var repos []*model.Repository
		for _, teamRepos := range perTeam[i] {
			repos = append(repos, wrapRepos(teamRepos)...)
		}
		repos = dedupeByName(repos, repoName)
		sortByName(repos, repoName)
		o := org.Clone()
		o.Teams = nil
		o.Repos = repos
		out[i] = o
	}
	return out, nil
}

func wrapRepos(raw []*github.Repository) []*model.Repository {
	repos := make([]*model.Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, &model.Repository{Repository: r})
	}
	return repos
}

// fetchRepoFiles records every requested file of every repository. Any HTTP
// status is recorded; only transport failures abort.
func (c *Client) fetchRepoFiles(ctx context.Context, cl *call, orgs []*model.Organization) ([]*model.Organization, error) {
	out := make([]*model.Organization, len(orgs))
	files := make([][][]model.RepoFile, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		org := org
		files[i] = make([][]model.RepoFile, len(org.Repos))
		headers := http.Header{}
		if auth := org.Credential.AuthorizationHeader(); auth != "" {
			headers.Set("Authorization", auth)
		}
		for j, repo := range org.Repos {
			files[i][j] = make([]model.RepoFile, len(cl.repoFiles))
			for k, path := range cl.repoFiles {
				i, j, k := i, j, k
				url := c.RawFileURL(repo.GetFullName(), repo.GetDefaultBranch(), path)
				p.Go(func(ctx context.Context) error {
					resp, err := c.files.Fetch(ctx, url, headers)
					if err != nil {
						return err
					}
					cl.debugf("fetched %s: %d", url, resp.StatusCode)
					files[i][j][k] = model.RepoFile{StatusCode: resp.StatusCode, Body: resp.Body}
					return nil
				})
			}
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	for i, org := range orgs {
		o := org.Clone()
		o.Repos = make([]*model.Repository, len(org.Repos))
		for j, repo := range org.Repos {
			r := repo.Clone()
			r.RepoFiles = make(map[string]model.RepoFile, len(cl.repoFiles))
			for k, path := range cl.repoFiles {
				r.RepoFiles[path] = files[i][j][k]
			}
			o.Repos[j] = r
		}
		out[i] = o
	}
	return out, nil
}

// RawFileURL is where a repository file is fetched from.
func (c *Client) RawFileURL(fullName, branch, path string) string {
	return strings.TrimSuffix(c.rawContentHost, "/") + "/" + fullName + "/" + branch + "/" + strings.TrimPrefix(path, "/")
}
