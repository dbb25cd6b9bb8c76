package scm

import (
	"context"
	"errors"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

// GetRepoStatsByCategory fetches one statistics category. The returned Stats only
// has that category set. A category the service is still computing (HTTP 202)
// comes back as a pending placeholder rather than an error.
func (c *Client) GetRepoStatsByCategory(ctx context.Context, cred credential.Credential, owner, repo string, category model.StatCategory) (*model.Stats, error) {
	gh := c.forCredential(cred)
	stats := &model.Stats{}

	var err error
	switch category {
	case model.StatCodeFrequency:
		stats.CodeFrequency, _, err = gh.Repositories.ListCodeFrequency(ctx, owner, repo)
		if err == nil && stats.CodeFrequency == nil {
			stats.CodeFrequency = []*github.WeeklyStats{}
		}
	case model.StatCommitActivity:
		stats.CommitActivity, _, err = gh.Repositories.ListCommitActivity(ctx, owner, repo)
		if err == nil && stats.CommitActivity == nil {
			stats.CommitActivity = []*github.WeeklyCommitActivity{}
		}
	case model.StatContributors:
		stats.Contributors, _, err = gh.Repositories.ListContributorsStats(ctx, owner, repo)
		if err == nil && stats.Contributors == nil {
			stats.Contributors = []*github.ContributorStats{}
		}
	case model.StatParticipation:
		stats.Participation, _, err = gh.Repositories.ListParticipation(ctx, owner, repo)
		if err == nil && stats.Participation == nil {
			stats.Participation = &github.RepositoryParticipation{}
		}
	case model.StatPunchCard:
		stats.PunchCard, _, err = gh.Repositories.ListPunchCard(ctx, owner, repo)
		if err == nil && stats.PunchCard == nil {
			stats.PunchCard = []*github.PunchCard{}
		}
	case model.StatStargazers:
		stats.Stargazers, err = listAll(func(opts github.ListOptions) ([]*github.Stargazer, *github.Response, error) {
			return gh.Activity.ListStargazers(ctx, owner, repo, &opts)
		})
	case model.StatWatchers:
		stats.Watchers, err = listAll(func(opts github.ListOptions) ([]*github.User, *github.Response, error) {
			return gh.Activity.ListWatchers(ctx, owner, repo, &opts)
		})
	default:
		return nil, &errs.UnknownStatCategoryError{Category: string(category)}
	}

	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return model.PendingStats(category, accepted.Raw), nil
		}
		return nil, err
	}
	return stats, nil
}
