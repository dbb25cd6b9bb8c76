package credential_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhonjs-scm/scm-compound/credential"
	"github.com/typhonjs-scm/scm-compound/errs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    credential.Credential
		wantErr bool
	}{
		{
			name:  "token",
			input: "abc123",
			want:  credential.Credential{Type: credential.Token, Token: "abc123"},
		},
		{
			name:  "basic",
			input: "alice:secret",
			want:  credential.Credential{Type: credential.Basic, Username: "alice", Password: "secret"},
		},
		{
			name:  "password keeps later colons",
			input: "alice:se:cret",
			want:  credential.Credential{Type: credential.Basic, Username: "alice", Password: "se:cret"},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "empty username", input: ":secret", wantErr: true},
		{name: "empty password", input: "alice:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credential.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
				assert.True(t, errors.Is(err, errs.ErrInvalidCredential))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("idempotent on resolved credentials", func(t *testing.T) {
		first, err := credential.Resolve("alice:secret")
		require.NoError(t, err)

		second, err := credential.Resolve(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		third, err := credential.Resolve(&second)
		require.NoError(t, err)
		assert.Equal(t, first, third)
	})

	t.Run("colon in token object is not reparsed", func(t *testing.T) {
		c, err := credential.Resolve(credential.Credential{Type: credential.Token, Token: "a:b"})
		require.NoError(t, err)
		assert.Equal(t, "a:b", c.Token)
	})

	t.Run("map object", func(t *testing.T) {
		c, err := credential.Resolve(map[string]any{"type": "basic", "username": "bob", "password": "pw"})
		require.NoError(t, err)
		assert.Equal(t, credential.Credential{Type: credential.Basic, Username: "bob", Password: "pw"}, c)
	})

	t.Run("oauth tag maps to token", func(t *testing.T) {
		c, err := credential.Resolve(map[string]string{"type": "oauth", "token": "t0k"})
		require.NoError(t, err)
		assert.Equal(t, credential.Token, c.Type)
	})

	invalid := map[string]any{
		"unknown type":        credential.Credential{Type: "kerberos", Token: "x"},
		"empty token":         credential.Credential{Type: credential.Token},
		"basic missing pass":  map[string]any{"type": "basic", "username": "bob"},
		"unexpected object":   42,
		"unknown field":       map[string]any{"type": "token", "token": "x", "scope": "repo"},
		"nil credential":      (*credential.Credential)(nil),
		"empty string":        "",
		"basic missing login": credential.Credential{Type: credential.Basic, Password: "pw"},
	}
	for name, input := range invalid {
		input := input
		t.Run(name, func(t *testing.T) {
			_, err := credential.Resolve(input)
			require.Error(t, err)
			var target *errs.InvalidCredentialError
			assert.True(t, errors.As(err, &target))
		})
	}
}

func TestCredential_AuthorizationHeader(t *testing.T) {
	token := credential.Credential{Type: credential.Token, Token: "abc"}
	assert.Equal(t, "token abc", token.AuthorizationHeader())

	basic := credential.Credential{Type: credential.Basic, Username: "alice", Password: "secret"}
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", basic.AuthorizationHeader())
	assert.NotContains(t, basic.String(), "secret")
}
