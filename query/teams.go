package query

import (
	"context"

	"github.com/typhonjs-scm/scm-compound/model"
)

func teamName(t *model.Team) string { return t.GetName() }

// ListOrganizationTeams lists the teams of every organization. With a
// credential only teams its user is a member of are kept.
func (c *Client) ListOrganizationTeams(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.teams(ctx, cl)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryTeams}, orgs)
}

// ListOrganizationTeamMembers lists the members of every team. A team whose
// members cannot be listed has no members attached.
func (c *Client) ListOrganizationTeamMembers(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	orgs, err := c.teams(ctx, cl)
	if err != nil {
		return nil, err
	}
	orgs, err = c.teamMembers(ctx, cl, orgs)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryOrgs, model.CategoryTeams, model.CategoryMembers}, orgs)
}

// teams attaches teams to each organization. Listing failures leave the
// organization without teams.
func (c *Client) teams(ctx context.Context, cl *call) ([]*model.Organization, error) {
	orgs, err := c.organizations(ctx, cl)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Organization, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		i, org := i, org
		p.Go(func(ctx context.Context) error {
			o := org.Clone()
			out[i] = o
			raw, err := c.rest.GetOrgTeams(ctx, org.Credential, org.GetLogin())
			if err != nil {
				cl.debugf("listing teams of %s failed: %v", org.GetLogin(), err)
				return nil
			}
			teams := make([]*model.Team, 0, len(raw))
			for _, t := range raw {
				teams = append(teams, &model.Team{Team: t})
			}
			teams = c.scopeTeams(ctx, cl, org, teams)
			sortByName(teams, teamName)
			o.Teams = teams
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// scopeTeams keeps the teams the scoped user is a member of. A failed check
// excludes the team.
func (c *Client) scopeTeams(ctx context.Context, cl *call, org *model.Organization, teams []*model.Team) []*model.Team {
	if cl.scope.Unrestricted() {
		return teams
	}
	login := cl.scope.User.GetLogin()
	member := make([]bool, len(teams))

	p := batch(ctx)
	for i, team := range teams {
		i, team := i, team
		p.Go(func(ctx context.Context) error {
			ok, err := c.rest.IsTeamMember(ctx, org.Credential, org.GetLogin(), team.Team, login)
			if err != nil {
				cl.debugf("membership check of %s in team %s/%s failed: %v", login, org.GetLogin(), team.GetSlug(), err)
				return nil
			}
			member[i] = ok
			return nil
		})
	}
	_ = p.Wait()

	kept := make([]*model.Team, 0, len(teams))
	for i, team := range teams {
		if member[i] {
			kept = append(kept, team)
		}
	}
	return kept
}

func (c *Client) teamMembers(ctx context.Context, cl *call, orgs []*model.Organization) ([]*model.Organization, error) {
	out := make([]*model.Organization, len(orgs))
	p := batch(ctx)
	for i, org := range orgs {
		org := org
		o := org.Clone()
		out[i] = o
		if o.Teams == nil {
			continue
		}
		teams := make([]*model.Team, len(o.Teams))
		o.Teams = teams
		for j, team := range org.Teams {
			team := team
			t := team.Clone()
			teams[j] = t
			p.Go(func(ctx context.Context) error {
				members, err := c.rest.GetTeamMembers(ctx, org.Credential, org.GetLogin(), team.Team)
				if err != nil {
					cl.debugf("listing members of team %s/%s failed: %v", org.GetLogin(), team.GetSlug(), err)
					return nil
				}
				sortByName(members, userLogin)
				t.Members = members
				return nil
			})
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
