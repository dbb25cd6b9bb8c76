package query

import (
	"context"

	"github.com/typhonjs-scm/scm-compound/model"
)

// ListRepositoryStatistics fetches the requested statistics categories of every
// repository; no categories, "all" or "*" request every category. Categories
// the service is still computing mark the repository's stats pending.
func (c *Client) ListRepositoryStatistics(ctx context.Context, categories []string, opts Options) (*Result, error) {
	cats, err := model.ParseStatCategories(categories)
	if err != nil {
		return nil, err
	}
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.repositories(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	perRepo := make([][][]*model.Stats, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		org := org
		perRepo[i] = make([][]*model.Stats, len(org.Repos))
		for j, repo := range org.Repos {
			perRepo[i][j] = make([]*model.Stats, len(cats))
			for k, cat := range cats {
				i, j, k, repo, cat := i, j, k, repo, cat
				p.Go(func(ctx context.Context) error {
					stats, err := c.rest.GetRepoStatsByCategory(ctx, org.Credential, org.GetLogin(), repo.GetName(), cat)
					if err != nil {
						return err
					}
					if stats.Pending {
						cl.debugf("%s statistics of %s are pending", cat, repo.GetFullName())
					}
					perRepo[i][j][k] = stats
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
			merged := &model.Stats{}
			for _, s := range perRepo[i][j] {
				merged.Merge(s)
			}
			r := repo.Clone()
			r.Stats = []*model.Stats{merged}
			o.Repos[j] = r
		}
		out[i] = o
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryRepos, model.CategoryStats}, out)
}
