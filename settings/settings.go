package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "scm_compound"

// Config is used to represent the current state of a CLI instance.
type Config struct {
	Organizations  []Organization `yaml:"organizations"`
	APIHost        string         `yaml:"api_host,omitempty"`
	PathPrefix     string         `yaml:"path_prefix,omitempty"`
	RawContentHost string         `yaml:"raw_content_host,omitempty"`
	HostURLPrefix  string         `yaml:"host_url_prefix,omitempty"`
	TimeoutMillis  int            `yaml:"timeout_millis,omitempty"`
	UserAgent      string         `yaml:"user_agent,omitempty"`
	Verbose        bool           `yaml:"verbose,omitempty"`
	Debug          bool           `yaml:"debug,omitempty"`
	FileUsed       string         `yaml:"-"`
}

// Organization is one organization source: the organizations owned by Owner
// whose login matches OwnerNamePattern, listed with Credential.
type Organization struct {
	// Credential is a token, a "user:password" string or a credential map.
	Credential       any    `yaml:"credential"`
	Owner            string `yaml:"owner"`
	OwnerNamePattern string `yaml:"ownerNamePattern"`
}

// Load will read the config from disk and then evaluate possible configuration from the environment.
func (cfg *Config) Load(fs afero.Fs) error {
	if err := cfg.LoadFromDisk(fs, ConfigPath()); err != nil {
		return err
	}

	cfg.LoadFromEnv(EnvPrefix)

	return nil
}

// LoadFromDisk reads path, creating it when missing. ${VAR} references are
// expanded from the environment before the YAML is decoded.
func (cfg *Config) LoadFromDisk(fs afero.Fs, path string) error {
	if err := ensureSettingsFileExists(fs, path); err != nil {
		return err
	}

	cfg.FileUsed = path

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}

	expanded, err := envsubst.Bytes(content)
	if err != nil {
		return errors.Wrapf(err, "expanding %s", path)
	}

	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	return nil
}

// WriteToDisk will write the runtime config instance to disk by serializing the YAML
func (cfg *Config) WriteToDisk(fs afero.Fs) error {
	enc, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(cfg.FileUsed), 0700); err != nil {
		return err
	}
	return afero.WriteFile(fs, cfg.FileUsed, enc, 0600)
}

// LoadFromEnv will read from environment variables of the given prefix.
// PREFIX_TOKEN and PREFIX_OWNER together add an organization source.
func (cfg *Config) LoadFromEnv(prefix string) {
	if host := ReadFromEnv(prefix, "api_host"); host != "" {
		cfg.APIHost = host
	}

	if host := ReadFromEnv(prefix, "raw_content_host"); host != "" {
		cfg.RawContentHost = host
	}

	if prefixURL := ReadFromEnv(prefix, "host_url_prefix"); prefixURL != "" {
		cfg.HostURLPrefix = prefixURL
	}

	token, owner := ReadFromEnv(prefix, "token"), ReadFromEnv(prefix, "owner")
	if token != "" && owner != "" {
		pattern := ReadFromEnv(prefix, "owner_pattern")
		if pattern == "" {
			pattern = ".*"
		}
		cfg.Organizations = append(cfg.Organizations, Organization{
			Credential:       token,
			Owner:            owner,
			OwnerNamePattern: pattern,
		})
	}
}

// ReadFromEnv takes a prefix and field to search the environment for after capitalizing and joining them with an underscore.
func ReadFromEnv(prefix, field string) string {
	name := strings.Join([]string{prefix, field}, "_")
	return os.Getenv(strings.ToUpper(name))
}

// configFilename returns the name of the cli config file
func configFilename() string {
	return "cli.yml"
}

// SettingsPath returns the path of the CLI settings directory
func SettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".scm-compound")
}

// ConfigPath returns the path of the cli config file.
func ConfigPath() string {
	return filepath.Join(SettingsPath(), configFilename())
}

// ensureSettingsFileExists does just that.
func ensureSettingsFileExists(fs afero.Fs, path string) error {
	_, err := fs.Stat(path)

	if err == nil {
		return nil
	}

	if !os.IsNotExist(err) {
		// Filesystem error
		return err
	}

	if err = fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return fs.Chmod(path, 0600)
}
