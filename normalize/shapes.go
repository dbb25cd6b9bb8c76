package normalize

import (
	"time"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

// MissingID is emitted when a record carries no numeric id.
const MissingID int64 = -1

// Organization is the normalized form of an organization.
type Organization struct {
	Name        string `json:"name"`
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	AvatarURL   string `json:"avatarUrl"`
	Description string `json:"description"`
}

// Owner is the owning account of a repository.
type Owner struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// User is the normalized form of a user or member.
type User struct {
	Name      string `json:"name"`
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	AvatarURL string `json:"avatarUrl"`
}

// Repository is the normalized form of a repository.
type Repository struct {
	Name            string                    `json:"name"`
	FullName        string                    `json:"fullName"`
	ID              int64                     `json:"id"`
	URL             string                    `json:"url"`
	Description     string                    `json:"description"`
	Private         bool                      `json:"private"`
	RepoFiles       map[string]model.RepoFile `json:"repoFiles"`
	Fork            bool                      `json:"fork"`
	CreatedAt       string                    `json:"createdAt"`
	UpdatedAt       string                    `json:"updatedAt"`
	PushedAt        string                    `json:"pushedAt"`
	GitURL          string                    `json:"gitUrl"`
	SSHURL          string                    `json:"sshUrl"`
	CloneURL        string                    `json:"cloneUrl"`
	StargazersCount int                       `json:"stargazersCount"`
	WatchersCount   int                       `json:"watchersCount"`
	DefaultBranch   string                    `json:"defaultBranch"`
}

// Team is the normalized form of an organization team.
type Team struct {
	Name        string `json:"name"`
	ID          int64  `json:"id"`
	Privacy     string `json:"privacy"`
	Permission  string `json:"permission"`
	Description string `json:"description"`
}

// Quota is one rate limit bucket.
type Quota struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	// Reset is in milliseconds since the epoch.
	Reset int64 `json:"reset"`
}

// RateLimit holds the core and search quotas.
type RateLimit struct {
	Core   Quota `json:"core"`
	Search Quota `json:"search"`
}

// ContributorStat is one contributor with their total commit count.
type ContributorStat struct {
	Author User                  `json:"author"`
	Total  int                   `json:"total"`
	Weeks  []*github.WeeklyStats `json:"weeks"`
}

// Statistics passes completed categories through and keeps the raw placeholder of
// categories still being computed upstream.
type Statistics struct {
	Pending        bool `json:"pending"`
	CodeFrequency  any  `json:"codeFrequency,omitempty"`
	CommitActivity any  `json:"commitActivity,omitempty"`
	Contributors   any  `json:"contributors,omitempty"`
	Participation  any  `json:"participation,omitempty"`
	PunchCard      any  `json:"punchCard,omitempty"`
	Stargazers     any  `json:"stargazers,omitempty"`
	Watchers       any  `json:"watchers,omitempty"`
}

func (n *Normalizer) organization(raw any) (any, error) {
	var o *github.Organization
	switch v := raw.(type) {
	case *model.Organization:
		o = v.Organization
	case *github.Organization:
		o = v
	default:
		return nil, unexpected(KindOrganization, raw)
	}
	if o == nil {
		o = &github.Organization{}
	}
	return Organization{
		Name:        o.GetLogin(),
		ID:          id(o.ID),
		URL:         n.HostURLPrefix + o.GetLogin(),
		AvatarURL:   o.GetAvatarURL(),
		Description: o.GetDescription(),
	}, nil
}

func (n *Normalizer) owner(raw any) (any, error) {
	var name string
	switch v := raw.(type) {
	case *model.Owner:
		name = v.Name
	case string:
		name = v
	default:
		return nil, unexpected(KindOwner, raw)
	}
	return Owner{Name: name, URL: n.HostURLPrefix + name}, nil
}

func (n *Normalizer) user(raw any) (any, error) {
	switch v := raw.(type) {
	case *github.User:
		return userOf(v), nil
	case *github.Contributor:
		return contributorOf(v), nil
	case *github.Stargazer:
		return userOf(v.GetUser()), nil
	}
	return nil, unexpected(KindUser, raw)
}

func userOf(u *github.User) User {
	if u == nil {
		u = &github.User{}
	}
	return User{Name: u.GetLogin(), ID: id(u.ID), URL: u.GetHTMLURL(), AvatarURL: u.GetAvatarURL()}
}

func contributorOf(c *github.Contributor) User {
	if c == nil {
		c = &github.Contributor{}
	}
	return User{Name: c.GetLogin(), ID: id(c.ID), URL: c.GetHTMLURL(), AvatarURL: c.GetAvatarURL()}
}

func (n *Normalizer) repository(raw any) (any, error) {
	var r *github.Repository
	files := map[string]model.RepoFile{}
	switch v := raw.(type) {
	case *model.Repository:
		r = v.Repository
		for path, f := range v.RepoFiles {
			files[path] = f
		}
	case *github.Repository:
		r = v
	default:
		return nil, unexpected(KindRepository, raw)
	}
	if r == nil {
		r = &github.Repository{}
	}
	return Repository{
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		ID:              id(r.ID),
		URL:             r.GetHTMLURL(),
		Description:     r.GetDescription(),
		Private:         r.GetPrivate(),
		RepoFiles:       files,
		Fork:            r.GetFork(),
		CreatedAt:       timestamp(r.CreatedAt),
		UpdatedAt:       timestamp(r.UpdatedAt),
		PushedAt:        timestamp(r.PushedAt),
		GitURL:          r.GetGitURL(),
		SSHURL:          r.GetSSHURL(),
		CloneURL:        r.GetCloneURL(),
		StargazersCount: r.GetStargazersCount(),
		WatchersCount:   r.GetWatchersCount(),
		DefaultBranch:   r.GetDefaultBranch(),
	}, nil
}

func (n *Normalizer) team(raw any) (any, error) {
	var t *github.Team
	switch v := raw.(type) {
	case *model.Team:
		t = v.Team
	case *github.Team:
		t = v
	default:
		return nil, unexpected(KindTeam, raw)
	}
	if t == nil {
		t = &github.Team{}
	}
	return Team{
		Name:        t.GetName(),
		ID:          id(t.ID),
		Privacy:     t.GetPrivacy(),
		Permission:  t.GetPermission(),
		Description: t.GetDescription(),
	}, nil
}

func (n *Normalizer) rateLimit(raw any) (any, error) {
	v, ok := raw.(*github.RateLimits)
	if !ok {
		return nil, unexpected(KindRateLimit, raw)
	}
	if v == nil {
		v = &github.RateLimits{}
	}
	return RateLimit{Core: quota(v.Core), Search: quota(v.Search)}, nil
}

func (n *Normalizer) statistics(raw any) (any, error) {
	s, ok := raw.(*model.Stats)
	if !ok {
		return nil, unexpected(KindStatistics, raw)
	}
	if s == nil {
		s = &model.Stats{}
	}
	out := Statistics{Pending: s.Pending}

	out.CodeFrequency = passThrough(s, model.StatCodeFrequency, s.CodeFrequency != nil, s.CodeFrequency)
	out.CommitActivity = passThrough(s, model.StatCommitActivity, s.CommitActivity != nil, s.CommitActivity)
	out.Participation = passThrough(s, model.StatParticipation, s.Participation != nil, s.Participation)
	out.PunchCard = passThrough(s, model.StatPunchCard, s.PunchCard != nil, s.PunchCard)

	switch {
	case s.IsPending(model.StatContributors):
		out.Contributors = s.Placeholders[model.StatContributors]
	case s.Contributors != nil:
		contributors := make([]ContributorStat, 0, len(s.Contributors))
		for _, c := range s.Contributors {
			contributors = append(contributors, ContributorStat{
				Author: contributorOf(c.GetAuthor()),
				Total:  c.GetTotal(),
				Weeks:  c.Weeks,
			})
		}
		out.Contributors = contributors
	}

	switch {
	case s.IsPending(model.StatStargazers):
		out.Stargazers = s.Placeholders[model.StatStargazers]
	case s.Stargazers != nil:
		stargazers := make([]User, 0, len(s.Stargazers))
		for _, sg := range s.Stargazers {
			stargazers = append(stargazers, userOf(sg.GetUser()))
		}
		out.Stargazers = stargazers
	}

	switch {
	case s.IsPending(model.StatWatchers):
		out.Watchers = s.Placeholders[model.StatWatchers]
	case s.Watchers != nil:
		watchers := make([]User, 0, len(s.Watchers))
		for _, w := range s.Watchers {
			watchers = append(watchers, userOf(w))
		}
		out.Watchers = watchers
	}

	return out, nil
}

func passThrough(s *model.Stats, c model.StatCategory, present bool, v any) any {
	if s.IsPending(c) {
		return s.Placeholders[c]
	}
	if !present {
		return nil
	}
	return v
}

func id(v *int64) int64 {
	if v == nil {
		return MissingID
	}
	return *v
}

func timestamp(t *github.Timestamp) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func quota(r *github.Rate) Quota {
	if r == nil {
		return Quota{}
	}
	q := Quota{Limit: r.Limit, Remaining: r.Remaining}
	if !r.Reset.IsZero() {
		q.Reset = r.Reset.Unix() * 1000
	}
	return q
}

func unexpected(k Kind, raw any) error {
	return errs.InvalidArgumentf("cannot normalize %T as %s", raw, k)
}
