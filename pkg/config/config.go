// Package config provides configuration loading for the lgtm CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend kinds an instance may configure.
const (
	BackendLoki       = "loki"
	BackendPrometheus = "prometheus"
	BackendTempo      = "tempo"
)

// EnvConfigPath is the environment variable that overrides the config path.
const EnvConfigPath = "LGTM_CONFIG"

// Error is a configuration error. Commands map it to a dedicated exit code.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Errorf builds a configuration Error.
func Errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Config is the top-level configuration document.
type Config struct {
	Version         string               `yaml:"version"`
	DefaultInstance string               `yaml:"default_instance,omitempty"`
	Instances       map[string]*Instance `yaml:"instances"`
}

// Instance holds the backend endpoints for one deployment environment.
// A profile need not configure all three backends.
type Instance struct {
	Name       string   `yaml:"-"`
	Loki       *Backend `yaml:"loki,omitempty"`
	Prometheus *Backend `yaml:"prometheus,omitempty"`
	Tempo      *Backend `yaml:"tempo,omitempty"`
}

// Backend holds the endpoint and credentials for one backend of an instance.
type Backend struct {
	URL      string            `yaml:"url"`
	Token    string            `yaml:"token,omitempty"`
	Username string            `yaml:"username,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// ForKind returns the backend settings for the given kind, or nil when the
// instance does not configure that backend.
func (i *Instance) ForKind(kind string) *Backend {
	switch kind {
	case BackendLoki:
		return i.Loki
	case BackendPrometheus:
		return i.Prometheus
	case BackendTempo:
		return i.Tempo
	default:
		return nil
	}
}

// DefaultPath returns the default config file location
// (~/.config/lgtm/config.yaml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "lgtm", "config.yaml")
	}

	return filepath.Join(home, ".config", "lgtm", "config.yaml")
}

// envVarPattern matches ${VAR_NAME} patterns for environment variable substitution.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads the configuration from a YAML file with environment variable
// substitution. An empty path falls back to the LGTM_CONFIG environment
// variable and then to DefaultPath. When the file does not exist, an ad-hoc
// instance is synthesized from LGTM_<BACKEND>_* environment variables; if
// none are set either, Load fails telling the user where to create the file.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			if cfg := fromEnvironment(); cfg != nil {
				return cfg, nil
			}

			return nil, Errorf("config file not found: %s (create it or set %s)", path, EnvConfigPath)
		}

		return nil, Errorf("reading config file %s: %v", path, err)
	}

	// Substitute environment variables
	substituted, err := substituteEnvVars(string(data))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, Errorf("parsing config %s: %v", path, err)
	}

	for name, inst := range cfg.Instances {
		if inst == nil {
			cfg.Instances[name] = &Instance{Name: name}
			continue
		}

		inst.Name = name
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the document invariants.
func (c *Config) Validate() error {
	if len(c.Instances) == 0 {
		return Errorf("config has no instances")
	}

	if c.DefaultInstance != "" {
		if _, ok := c.Instances[c.DefaultInstance]; !ok {
			return Errorf("default_instance %q not found in instances", c.DefaultInstance)
		}
	}

	for _, name := range c.InstanceNames() {
		inst := c.Instances[name]
		for _, kind := range []string{BackendLoki, BackendPrometheus, BackendTempo} {
			backend := inst.ForKind(kind)
			if backend != nil && backend.URL == "" {
				return Errorf("instances.%s.%s.url is required", name, kind)
			}
		}
	}

	return nil
}

// GetInstance resolves the active instance. An explicit name wins; otherwise
// default_instance is used; otherwise a single configured instance is
// unambiguous. Anything else needs disambiguation.
func (c *Config) GetInstance(name string) (*Instance, error) {
	if name != "" {
		inst, ok := c.Instances[name]
		if !ok {
			return nil, Errorf("instance %q not found in config (have: %s)", name, strings.Join(c.InstanceNames(), ", "))
		}

		return inst, nil
	}

	if c.DefaultInstance != "" {
		return c.Instances[c.DefaultInstance], nil
	}

	if len(c.Instances) == 1 {
		for _, inst := range c.Instances {
			return inst, nil
		}
	}

	return nil, Errorf("multiple instances configured (%s): select one with -i or set default_instance", strings.Join(c.InstanceNames(), ", "))
}

// InstanceNames returns the configured instance names, sorted.
func (c *Config) InstanceNames() []string {
	names := make([]string, 0, len(c.Instances))
	for name := range c.Instances {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Lines that are comments (starting with #) are skipped to allow commented optional
// sections in config files without requiring their environment variables to be set.
// Unresolved variables fail the load naming each missing variable.
func substituteEnvVars(content string) (string, error) {
	var missingVars []string
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		// Skip lines that are YAML comments.
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			varName := envVarPattern.FindStringSubmatch(match)[1]
			value := os.Getenv(varName)
			if value == "" {
				missingVars = append(missingVars, varName)
				return match
			}

			return value
		})
	}

	if len(missingVars) > 0 {
		return "", Errorf("missing environment variables: %v", missingVars)
	}

	return strings.Join(lines, "\n"), nil
}

// fromEnvironment synthesizes a single-instance config from
// LGTM_<BACKEND>_URL / _TOKEN / _USERNAME environment variables.
// Returns nil when no backend URL is set.
func fromEnvironment() *Config {
	inst := &Instance{Name: "env"}
	inst.Loki = backendFromEnv("LGTM_LOKI")
	inst.Prometheus = backendFromEnv("LGTM_PROMETHEUS")
	inst.Tempo = backendFromEnv("LGTM_TEMPO")

	if inst.Loki == nil && inst.Prometheus == nil && inst.Tempo == nil {
		return nil
	}

	return &Config{
		Version:         "1",
		DefaultInstance: "env",
		Instances:       map[string]*Instance{"env": inst},
	}
}

func backendFromEnv(prefix string) *Backend {
	url := os.Getenv(prefix + "_URL")
	if url == "" {
		return nil
	}

	return &Backend{
		URL:      url,
		Token:    os.Getenv(prefix + "_TOKEN"),
		Username: os.Getenv(prefix + "_USERNAME"),
	}
}
