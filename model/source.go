package model

import (
	"regexp"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
)

// OrganizationSource describes where organizations are discovered: the organizations
// owned by Owner, listed with Credential, whose login matches OwnerNamePattern.
type OrganizationSource struct {
	Credential       credential.Credential
	Owner            string
	OwnerNamePattern *regexp.Regexp
}

// NewOrganizationSource validates and builds a source. cred is anything
// credential.Resolve accepts.
func NewOrganizationSource(cred any, owner, pattern string) (OrganizationSource, error) {
	c, err := credential.Resolve(cred)
	if err != nil {
		return OrganizationSource{}, err
	}
	if owner == "" {
		return OrganizationSource{}, errs.InvalidArgumentf("organization source requires an owner")
	}
	if pattern == "" {
		return OrganizationSource{}, errs.InvalidArgumentf("organization source for owner %q requires an owner name pattern", owner)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return OrganizationSource{}, errs.InvalidArgumentf("organization source for owner %q: invalid owner name pattern: %v", owner, err)
	}
	return OrganizationSource{Credential: c, Owner: owner, OwnerNamePattern: re}, nil
}

// Matches reports whether an organization login is kept by the source.
func (s OrganizationSource) Matches(login string) bool {
	return s.OwnerNamePattern != nil && s.OwnerNamePattern.MatchString(login)
}
