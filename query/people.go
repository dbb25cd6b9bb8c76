package query

import (
	"context"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/model"
)

func userLogin(u *github.User) string               { return u.GetLogin() }
func contributorLogin(u *github.Contributor) string { return u.GetLogin() }

// ListRepositoryCollaborators attaches collaborators to every repository.
// Repositories whose collaborators cannot be listed are left without them.
func (c *Client) ListRepositoryCollaborators(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.collaborators(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryRepos, model.CategoryCollaborators}, orgs)
}

// ListRepositoryContributors attaches contributors to every repository.
func (c *Client) ListRepositoryContributors(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.contributors(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryRepos, model.CategoryContributors}, orgs)
}

// ListOrganizationMembers attaches members to every organization.
func (c *Client) ListOrganizationMembers(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.members(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryMembers}, orgs)
}

// CollapseCollaborators returns every collaborator of every repository once.
func (c *Client) CollapseCollaborators(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.collaborators(ctx, cl)
	if err != nil {
		return nil, err
	}
	var all []*github.User
	for _, org := range orgs {
		for _, repo := range org.Repos {
			all = append(all, repo.Collaborators...)
		}
	}
	return finish(c, cl, []string{model.CategoryCollaborators}, collapse(all, userLogin))
}

// CollapseContributors returns every contributor of every repository once.
func (c *Client) CollapseContributors(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.contributors(ctx, cl)
	if err != nil {
		return nil, err
	}
	var all []*github.Contributor
	for _, org := range orgs {
		for _, repo := range org.Repos {
			all = append(all, repo.Contributors...)
		}
	}
	return finish(c, cl, []string{model.CategoryContributors}, collapse(all, contributorLogin))
}

// CollapseMembers returns every member of every organization once.
func (c *Client) CollapseMembers(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.members(ctx, cl)
	if err != nil {
		return nil, err
	}
	var all []*github.User
	for _, org := range orgs {
		all = append(all, org.Members...)
	}
	return finish(c, cl, []string{model.CategoryMembers}, collapse(all, userLogin))
}

func collapse[T any](items []T, login func(T) string) []T {
	out := dedupeByName(items, login)
	sortByName(out, login)
	return out
}

func (c *Client) collaborators(ctx context.Context, cl *call) ([]*model.Organization, error) {
	return c.eachRepo(ctx, cl, func(ctx context.Context, org *model.Organization, repo *model.Repository) {
		users, err := c.rest.GetRepoCollaborators(ctx, org.Credential, org.GetLogin(), repo.GetName())
		if err != nil {
			cl.debugf("listing collaborators of %s failed: %v", repo.GetFullName(), err)
			return
		}
		sortByName(users, userLogin)
		repo.Collaborators = users
	})
}

func (c *Client) contributors(ctx context.Context, cl *call) ([]*model.Organization, error) {
	return c.eachRepo(ctx, cl, func(ctx context.Context, org *model.Organization, repo *model.Repository) {
		users, err := c.rest.GetRepoContributors(ctx, org.Credential, org.GetLogin(), repo.GetName())
		if err != nil {
			cl.debugf("listing contributors of %s failed: %v", repo.GetFullName(), err)
			return
		}
		sortByName(users, contributorLogin)
		repo.Contributors = users
	})
}

// eachRepo runs a best-effort fill on a fresh copy of every repository.
func (c *Client) eachRepo(ctx context.Context, cl *call, fill func(context.Context, *model.Organization, *model.Repository)) ([]*model.Organization, error) {
	orgs, err := c.repositories(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		org := org
		o := org.Clone()
		o.Repos = make([]*model.Repository, len(org.Repos))
		out[i] = o
		for j, repo := range org.Repos {
			r := repo.Clone()
			o.Repos[j] = r
			p.Go(func(ctx context.Context) error {
				fill(ctx, org, r)
				return nil
			})
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) members(ctx context.Context, cl *call) ([]*model.Organization, error) {
	orgs, err := c.organizations(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		i, org := i, org
		p.Go(func(ctx context.Context) error {
			members, err := c.rest.GetOrgMembers(ctx, org.Credential, org.GetLogin())
			if err != nil {
				return err
			}
			sortByName(members, userLogin)
			o := org.Clone()
			o.Members = members
			out[i] = o
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
