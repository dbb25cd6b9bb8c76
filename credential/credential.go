// Package credential turns configured credential strings and objects into typed
// credentials used to authenticate requests against the hosting service.
package credential

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/typhonjs-scm/scm-compound/errs"
)

type Type string

const (
	Token Type = "token"
	Basic Type = "basic"
)

// Credential is either a token credential or a basic (username/password) credential.
// It is comparable and safe to use as a map key.
type Credential struct {
	Type     Type   `json:"type" yaml:"type" mapstructure:"type"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
}

// Parse splits s on the first colon. With a colon the credential is basic,
// otherwise the whole string is a token.
func Parse(s string) (Credential, error) {
	if s == "" {
		return Credential{}, errs.InvalidCredentialf("credential must be a non-empty string")
	}
	var c Credential
	if username, password, found := strings.Cut(s, ":"); found {
		c = Credential{Type: Basic, Username: username, Password: password}
	} else {
		c = Credential{Type: Token, Token: s}
	}
	return c, c.Validate()
}

// Resolve accepts a credential string, a Credential, a *Credential or a map shaped
// like a Credential (as decoded from YAML). Resolving an already typed credential
// only validates it.
func Resolve(input any) (Credential, error) {
	switch v := input.(type) {
	case string:
		return Parse(v)
	case Credential:
		return v, v.Validate()
	case *Credential:
		if v == nil {
			return Credential{}, errs.InvalidCredentialf("credential is nil")
		}
		return *v, v.Validate()
	case map[string]any:
		return fromMap(v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return fromMap(m)
	default:
		return Credential{}, errs.InvalidCredentialf("credential must be a string or credential object, got %T", input)
	}
}

func fromMap(m map[string]any) (Credential, error) {
	var c Credential
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &c,
	})
	if err != nil {
		return Credential{}, err
	}
	if err := decoder.Decode(m); err != nil {
		return Credential{}, errs.InvalidCredentialf("malformed credential object: %v", err)
	}
	if c.Type == "oauth" {
		c.Type = Token
	}
	return c, c.Validate()
}

// Validate checks the shape of the credential.
func (c Credential) Validate() error {
	switch c.Type {
	case Token:
		if c.Token == "" {
			return errs.InvalidCredentialf("token credential requires a token")
		}
	case Basic:
		if c.Username == "" || c.Password == "" {
			return errs.InvalidCredentialf("basic credential requires a username and password")
		}
	default:
		return errs.InvalidCredentialf("unknown credential type %q", c.Type)
	}
	return nil
}

// AuthorizationHeader returns the value of an Authorization header for the credential.
func (c Credential) AuthorizationHeader() string {
	if c.Type == Basic {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password))
	}
	return "token " + c.Token
}

// String never includes secrets.
func (c Credential) String() string {
	if c.Type == Basic {
		return fmt.Sprintf("basic(%s)", c.Username)
	}
	if len(c.Token) > 4 {
		return fmt.Sprintf("token(...%s)", c.Token[len(c.Token)-4:])
	}
	return "token(...)"
}
