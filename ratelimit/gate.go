// Package ratelimit rejects compound queries up front when any configured
// credential has exhausted its core quota.
package ratelimit

import (
	"context"

	"github.com/google/go-github/v61/github"
	"github.com/sourcegraph/conc/pool"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

type StatusClient interface {
	GetRateLimitStatus(ctx context.Context, cred credential.Credential) (*github.RateLimits, error)
}

type Gate struct {
	client StatusClient
}

func NewGate(client StatusClient) *Gate {
	return &Gate{client: client}
}

// CheckAll requests the rate limit status of every source's credential in
// parallel. It fails with *errs.RateLimitExceededError naming the first source,
// in configuration order, whose core quota is exhausted. skip returns at once.
func (g *Gate) CheckAll(ctx context.Context, sources []model.OrganizationSource, skip bool) error {
	if skip || len(sources) == 0 {
		return nil
	}

	limits := make([]*github.RateLimits, len(sources))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, src := range sources {
		i, src := i, src
		p.Go(func(ctx context.Context) error {
			l, err := g.client.GetRateLimitStatus(ctx, src.Credential)
			if err != nil {
				return err
			}
			limits[i] = l
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	for i, l := range limits {
		core := l.GetCore()
		if core != nil && core.Remaining <= 0 {
			return &errs.RateLimitExceededError{Owner: sources[i].Owner, Reset: core.Reset.Time}
		}
	}
	return nil
}
