// Package config loads the tool's YAML configuration: which repository and
// workflow file to dispatch, the ref to run on, and optional notification
// settings. The token is read from the environment when set so it never has
// to live in the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is where the tool looks for configuration when -config
	// is not given.
	DefaultPath = "ghdispatch.yaml"

	// TokenEnv overrides the token field when set.
	TokenEnv = "GITHUB_TOKEN"

	defaultUserAgent = "ghdispatch"
	defaultRef       = "main"
	defaultPollDelay = 5
)

const defaultConfigYAML = `# ghdispatch configuration
# Repository whose workflow gets dispatched.
owner: ""
repo: ""

# Workflow filename under .github/workflows/, e.g. download.yml.
workflow_file: ""

# Branch the workflow runs on.
ref: main

# Personal access token with the actions scope. Prefer setting GITHUB_TOKEN
# in the environment instead of writing it here.
token: ""

# Seconds to wait before the post-dispatch status poll.
poll_delay_seconds: 5

# Optional markdown webhook notification, sent after a successful dispatch.
notify:
  webhook_url: ""
  key: ""
`

// NotifyConfig holds the optional webhook notification settings.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Key        string `yaml:"key"`
}

// Config models the ghdispatch.yaml file.
type Config struct {
	Owner            string       `yaml:"owner"`
	Repo             string       `yaml:"repo"`
	WorkflowFile     string       `yaml:"workflow_file"`
	Ref              string       `yaml:"ref"`
	Token            string       `yaml:"token"`
	APIBaseURL       string       `yaml:"api_base_url,omitempty"`
	UserAgent        string       `yaml:"user_agent,omitempty"`
	PollDelaySeconds int          `yaml:"poll_delay_seconds"`
	Notify           NotifyConfig `yaml:"notify"`
}

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Ref:              defaultRef,
		UserAgent:        defaultUserAgent,
		PollDelaySeconds: defaultPollDelay,
	}
}

// Load reads the YAML file at path and applies environment overrides. A
// missing file is an error; run with -init to seed one.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// WriteDefault seeds path with the commented default configuration. It
// refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks the fields the dispatch call cannot do without.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(c.Repo) == "" {
		missing = append(missing, "repo")
	}
	if strings.TrimSpace(c.WorkflowFile) == "" {
		missing = append(missing, "workflow_file")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token (or "+TokenEnv+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Ref) == "" {
		c.Ref = defaultRef
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.PollDelaySeconds <= 0 {
		c.PollDelaySeconds = defaultPollDelay
	}
}

func (c *Config) applyEnv() {
	if token := os.Getenv(TokenEnv); token != "" {
		c.Token = token
	}
}
