package query

import (
	"context"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/model"
)

func orgLogin(o *model.Organization) string { return o.GetLogin() }

// ListOrganizations returns the organizations of every source, sorted by login.
// With a credential only organizations its user is a member of are kept.
func (c *Client) ListOrganizations(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.organizations(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs}, orgs)
}

// ListOwnerOrganizations is ListOrganizations grouped under each configured owner.
func (c *Client) ListOwnerOrganizations(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	perSource, err := c.sourceOrganizations(ctx, cl)
	if err != nil {
		return nil, err
	}

	owners := make([]*model.Owner, len(c.sources))
	p := batch(ctx)
	for i, src := range c.sources {
		i, src := i, src
		p.Go(func(ctx context.Context) error {
			orgs := dedupeByName(perSource[i], orgLogin)
			sortByName(orgs, orgLogin)
			orgs = c.scopeOrganizations(ctx, cl, orgs)
			owners[i] = &model.Owner{Name: src.Owner, Orgs: orgs}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	sortByName(owners, ownerName)
	return finish(c, cl, []string{model.CategoryOwners, model.CategoryOrgs}, owners)
}

func ownerName(o *model.Owner) string { return o.Name }

// ListOwners lists the configured owners without any network activity.
func (c *Client) ListOwners(_ context.Context, opts Options) (*Result, error) {
	cl, err := c.newCall(opts)
	if err != nil {
		return nil, err
	}
	owners := make([]*model.Owner, 0, len(c.sources))
	for _, src := range c.sources {
		owners = append(owners, &model.Owner{Name: src.Owner})
	}
	sortByName(owners, ownerName)
	return finish(c, cl, []string{model.CategoryOwners}, owners)
}

// ListOwnerRateLimits reports the rate limit status of each source's credential.
// It is not gated by the rate limit check.
func (c *Client) ListOwnerRateLimits(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.newCall(opts)
	if err != nil {
		return nil, err
	}

	owners := make([]*model.Owner, len(c.sources))
	p := batch(ctx)
	for i, src := range c.sources {
		i, src := i, src
		p.Go(func(ctx context.Context) error {
			limits, err := c.rest.GetRateLimitStatus(ctx, src.Credential)
			if err != nil {
				return err
			}
			owners[i] = &model.Owner{Name: src.Owner, RateLimit: []*github.RateLimits{limits}}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	sortByName(owners, ownerName)
	return finish(c, cl, []string{model.CategoryOwners, model.CategoryRateLimit}, owners)
}

// sourceOrganizations lists, per source, the organizations owned by the source
// owner whose login matches the source pattern.
func (c *Client) sourceOrganizations(ctx context.Context, cl *call) ([][]*model.Organization, error) {
	perSource := make([][]*model.Organization, len(c.sources))
	p := batch(ctx)
	for i, src := range c.sources {
		i, src := i, src
		p.Go(func(ctx context.Context) error {
			orgs, err := c.rest.ListOrgsForUser(ctx, src.Credential, src.Owner)
			if err != nil {
				return err
			}
			kept := make([]*model.Organization, 0, len(orgs))
			for _, o := range orgs {
				if src.Matches(o.GetLogin()) {
					kept = append(kept, &model.Organization{Organization: o, Credential: src.Credential})
				}
			}
			cl.debugf("owner %s: kept %d of %d organizations", src.Owner, len(kept), len(orgs))
			perSource[i] = kept
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return perSource, nil
}

// organizations is the union of every source's organizations, sorted by login
// and filtered by the call's access scope.
func (c *Client) organizations(ctx context.Context, cl *call) ([]*model.Organization, error) {
	perSource, err := c.sourceOrganizations(ctx, cl)
	if err != nil {
		return nil, err
	}
	var all []*model.Organization
	for _, orgs := range perSource {
		all = append(all, orgs...)
	}
	all = dedupeByName(all, orgLogin)
	sortByName(all, orgLogin)
	return c.scopeOrganizations(ctx, cl, all), nil
}

// scopeOrganizations keeps the organizations the scoped user is a member of.
// A failed membership check excludes the organization.
func (c *Client) scopeOrganizations(ctx context.Context, cl *call, orgs []*model.Organization) []*model.Organization {
	if cl.scope.Unrestricted() {
		return orgs
	}
	login := cl.scope.User.GetLogin()
	member := make([]bool, len(orgs))

	p := batch(ctx)
	for i, org := range orgs {
		i, org := i, org
		p.Go(func(ctx context.Context) error {
			ok, err := c.rest.IsOrgMember(ctx, org.Credential, org.GetLogin(), login)
			if err != nil {
				cl.debugf("membership check of %s in %s failed: %v", login, org.GetLogin(), err)
				return nil
			}
			member[i] = ok
			return nil
		})
	}
	_ = p.Wait()

	kept := make([]*model.Organization, 0, len(orgs))
	for i, org := range orgs {
		if member[i] {
			o := org.Clone()
			o.AuthenticatedUser = cl.scope.User
			kept = append(kept, o)
		}
	}
	return kept
}
