package query

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/go-github/v61/github"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
	"github.com/typhonjs-scm/scm-compound/model"
)

// identity resolves the user a credential authenticates as.
func (c *Client) identity(ctx context.Context, cred credential.Credential) (*github.User, error) {
	user, err := c.rest.GetAuthenticatedUser(ctx, cred)
	if err != nil {
		return nil, errs.AuthenticationFailed(err)
	}
	if user.GetLogin() == "" {
		return nil, errs.AuthenticationFailedf("credential %s resolves to no user", cred)
	}
	return user, nil
}

// ResolveUserFromCredential returns the user opts.Credential authenticates as.
func (c *Client) ResolveUserFromCredential(ctx context.Context, opts Options) (*Result, error) {
	cl, err := c.newCall(opts)
	if err != nil {
		return nil, err
	}
	if cl.credential == nil {
		return nil, errs.InvalidArgumentf("a credential is required")
	}
	user, err := c.identity(ctx, *cl.credential)
	if err != nil {
		return nil, err
	}
	return finish(c, cl, []string{model.CategoryUsers}, []*github.User{user})
}

// VerifyUserOwnsCredential reports whether cred authenticates as username.
// A credential the service rejects is reported as not owned.
func (c *Client) VerifyUserOwnsCredential(ctx context.Context, username string, cred any) (bool, error) {
	if username == "" {
		return false, errs.InvalidArgumentf("username must not be empty")
	}
	resolved, err := credential.Resolve(cred)
	if err != nil {
		return false, err
	}
	user, err := c.rest.GetAuthenticatedUser(ctx, resolved)
	if err != nil {
		if isUnauthorized(err) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(user.GetLogin(), username), nil
}

func isUnauthorized(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusUnauthorized
}
