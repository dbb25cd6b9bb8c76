// Package model holds the raw records a compound query assembles. Records embed
// the hosting service payloads and carry nested records under category names.
package model

import (
	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/credential"
)

// Category names under which nested records are attached.
const (
	CategoryOrgs          = "orgs"
	CategoryOwners        = "owners"
	CategoryRateLimit     = "ratelimit"
	CategoryRepos         = "repos"
	CategoryStats         = "stats"
	CategoryTeams         = "teams"
	CategoryMembers       = "members"
	CategoryCollaborators = "collaborators"
	CategoryContributors  = "contributors"
	CategoryUsers         = "users"
)

// Parent is implemented by records that carry nested records. Children reports
// false when nothing is attached under category.
type Parent interface {
	Children(category string) ([]any, bool)
}

// Organization is an organization discovered through an OrganizationSource.
type Organization struct {
	*github.Organization

	// Credential is the credential of the source that discovered the organization.
	Credential credential.Credential `json:"-"`
	// AuthenticatedUser is set when the organization was listed for a resolved identity.
	AuthenticatedUser *github.User `json:"-"`

	Teams   []*Team        `json:"teams,omitempty"`
	Repos   []*Repository  `json:"repos,omitempty"`
	Members []*github.User `json:"members,omitempty"`
}

func (o *Organization) Children(category string) ([]any, bool) {
	switch category {
	case CategoryTeams:
		return nodes(o.Teams)
	case CategoryRepos:
		return nodes(o.Repos)
	case CategoryMembers:
		return nodes(o.Members)
	}
	return nil, false
}

// Clone returns a shallow copy whose nested slices can be replaced without
// touching the receiver.
func (o *Organization) Clone() *Organization {
	c := *o
	return &c
}

// Team is an organization team.
type Team struct {
	*github.Team

	Members []*github.User `json:"members,omitempty"`
}

func (t *Team) Children(category string) ([]any, bool) {
	if category == CategoryMembers {
		return nodes(t.Members)
	}
	return nil, false
}

func (t *Team) Clone() *Team {
	c := *t
	return &c
}

// RepoFile is the outcome of fetching one file from raw content hosting.
type RepoFile struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Repository is a repository of an organization.
type Repository struct {
	*github.Repository

	Collaborators []*github.User        `json:"collaborators,omitempty"`
	Contributors  []*github.Contributor `json:"contributors,omitempty"`
	// Stats holds a single element once statistics have been fetched.
	Stats     []*Stats            `json:"stats,omitempty"`
	RepoFiles map[string]RepoFile `json:"repoFiles,omitempty"`
}

func (r *Repository) Children(category string) ([]any, bool) {
	switch category {
	case CategoryCollaborators:
		return nodes(r.Collaborators)
	case CategoryContributors:
		return nodes(r.Contributors)
	case CategoryStats:
		return nodes(r.Stats)
	}
	return nil, false
}

func (r *Repository) Clone() *Repository {
	c := *r
	return &c
}

// Owner is a configured owner and what was fetched on its behalf.
type Owner struct {
	Name      string               `json:"name"`
	Orgs      []*Organization      `json:"orgs,omitempty"`
	RateLimit []*github.RateLimits `json:"ratelimit,omitempty"`
}

func (o *Owner) Children(category string) ([]any, bool) {
	switch category {
	case CategoryOrgs:
		return nodes(o.Orgs)
	case CategoryRateLimit:
		return nodes(o.RateLimit)
	}
	return nil, false
}

func nodes[T any](s []T) ([]any, bool) {
	if s == nil {
		return nil, false
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out, true
}
