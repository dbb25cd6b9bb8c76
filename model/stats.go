package model

import (
	"encoding/json"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/errs"
)

// StatCategory names one repository statistics endpoint.
type StatCategory string

const (
	StatCodeFrequency  StatCategory = "codeFrequency"
	StatCommitActivity StatCategory = "commitActivity"
	StatContributors   StatCategory = "contributors"
	StatParticipation  StatCategory = "participation"
	StatPunchCard      StatCategory = "punchCard"
	StatStargazers     StatCategory = "stargazers"
	StatWatchers       StatCategory = "watchers"
)

// StatWildcard selects every known statistics category.
const StatWildcard = "all"

var StatCategories = []StatCategory{
	StatCodeFrequency,
	StatCommitActivity,
	StatContributors,
	StatParticipation,
	StatPunchCard,
	StatStargazers,
	StatWatchers,
}

// ParseStatCategories validates requested category names. An empty list, "all"
// or "*" selects every category. Duplicates are dropped.
func ParseStatCategories(names []string) ([]StatCategory, error) {
	if len(names) == 0 {
		return append([]StatCategory(nil), StatCategories...), nil
	}
	seen := make(map[StatCategory]bool, len(names))
	var out []StatCategory
	for _, name := range names {
		if name == StatWildcard || name == "*" {
			return append([]StatCategory(nil), StatCategories...), nil
		}
		c := StatCategory(name)
		if !c.Valid() {
			return nil, &errs.UnknownStatCategoryError{Category: name}
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func (c StatCategory) Valid() bool {
	for _, known := range StatCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Stats collects the statistics of one repository. A category the upstream
// service is still computing is recorded under Placeholders with its raw body
// and marks the whole object Pending.
type Stats struct {
	Pending        bool                            `json:"pending"`
	CodeFrequency  []*github.WeeklyStats           `json:"codeFrequency,omitempty"`
	CommitActivity []*github.WeeklyCommitActivity  `json:"commitActivity,omitempty"`
	Contributors   []*github.ContributorStats      `json:"contributors,omitempty"`
	Participation  *github.RepositoryParticipation `json:"participation,omitempty"`
	PunchCard      []*github.PunchCard             `json:"punchCard,omitempty"`
	Stargazers     []*github.Stargazer             `json:"stargazers,omitempty"`
	Watchers       []*github.User                  `json:"watchers,omitempty"`

	Placeholders map[StatCategory]json.RawMessage `json:"placeholders,omitempty"`
}

// PendingStats is the result of a category whose computation has not finished.
func PendingStats(category StatCategory, raw []byte) *Stats {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return &Stats{
		Pending:      true,
		Placeholders: map[StatCategory]json.RawMessage{category: json.RawMessage(raw)},
	}
}

// IsPending reports whether category is still being computed upstream.
func (s *Stats) IsPending(category StatCategory) bool {
	_, ok := s.Placeholders[category]
	return ok
}

// Merge copies the categories set on other into s.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	if other.CodeFrequency != nil {
		s.CodeFrequency = other.CodeFrequency
	}
	if other.CommitActivity != nil {
		s.CommitActivity = other.CommitActivity
	}
	if other.Contributors != nil {
		s.Contributors = other.Contributors
	}
	if other.Participation != nil {
		s.Participation = other.Participation
	}
	if other.PunchCard != nil {
		s.PunchCard = other.PunchCard
	}
	if other.Stargazers != nil {
		s.Stargazers = other.Stargazers
	}
	if other.Watchers != nil {
		s.Watchers = other.Watchers
	}
	for c, raw := range other.Placeholders {
		if s.Placeholders == nil {
			s.Placeholders = make(map[StatCategory]json.RawMessage)
		}
		s.Placeholders[c] = raw
	}
	s.Pending = s.Pending || other.Pending
}
