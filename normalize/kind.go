package normalize

import (
	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

// Kind is the canonical shape a category normalizes to.
type Kind int

const (
	KindOrganization Kind = iota + 1
	KindOwner
	KindRateLimit
	KindRepository
	KindStatistics
	KindTeam
	KindUser
)

var kindNames = map[Kind]string{
	KindOrganization: "organization",
	KindOwner:        "owner",
	KindRateLimit:    "ratelimit",
	KindRepository:   "repository",
	KindStatistics:   "statistics",
	KindTeam:         "team",
	KindUser:         "user",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var categories = map[string]Kind{
	model.CategoryOrgs:          KindOrganization,
	model.CategoryOwners:        KindOwner,
	model.CategoryRateLimit:     KindRateLimit,
	model.CategoryRepos:         KindRepository,
	model.CategoryStats:         KindStatistics,
	model.CategoryTeams:         KindTeam,
	model.CategoryCollaborators: KindUser,
	model.CategoryContributors:  KindUser,
	model.CategoryMembers:       KindUser,
	model.CategoryUsers:         KindUser,
	"authors":                   KindUser,
}

// KindOf returns the kind registered for a category name.
func KindOf(category string) (Kind, error) {
	k, ok := categories[category]
	if !ok {
		return 0, &errs.UnknownCategoryError{Category: category}
	}
	return k, nil
}
