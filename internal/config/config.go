package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	DefaultModel    string                    `yaml:"default_model" mapstructure:"default_model"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Security        SecurityConfig            `yaml:"security" mapstructure:"security"`
	Executor        ExecutorConfig            `yaml:"executor" mapstructure:"executor"`
	Templates       TemplatesConfig           `yaml:"templates" mapstructure:"templates"`
	StatePath       string                    `yaml:"state_path" mapstructure:"state_path"`
	Logging         LoggingConfig             `yaml:"logging" mapstructure:"logging"`
	MaxTokens       int                       `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type ProviderConfig struct {
	Type    string `yaml:"type" mapstructure:"type"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
}

type SecurityConfig struct {
	AllowFileDeletion bool     `yaml:"allow_file_deletion" mapstructure:"allow_file_deletion"`
	AllowNetwork      bool     `yaml:"allow_network" mapstructure:"allow_network"`
	MaxCommandLength  int      `yaml:"max_command_length" mapstructure:"max_command_length"`
	DeniedCommands    []string `yaml:"denied_commands" mapstructure:"denied_commands"`
	RestrictedPaths   []string `yaml:"restricted_paths" mapstructure:"restricted_paths"`
}

type ExecutorConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Shell          string `yaml:"shell" mapstructure:"shell"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		DefaultProvider: "chutes",
		DefaultModel:    "llama-4-maverick",
		MaxTokens:       4096,
		Providers: map[string]ProviderConfig{
			"chutes":    {Type: "openai", BaseURL: "https://llm.chutes.ai/v1", APIKey: "$LLM_API_KEY"},
			"ollama":    {Type: "openai", BaseURL: "http://localhost:11434/v1"},
			"anthropic": {Type: "anthropic", APIKey: "$ANTHROPIC_API_KEY"},
		},
		Security: SecurityConfig{
			MaxCommandLength: 1000,
			RestrictedPaths:  []string{"/etc/**", "/boot/**", "/dev/**", "/sys/**"},
		},
		Executor: ExecutorConfig{
			TimeoutSeconds: 30,
			Shell:          "/bin/bash",
		},
		Templates: TemplatesConfig{Dir: defaultDir("templates")},
		StatePath: defaultDir("state.json"),
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultDir(name string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sujin", name)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sujin", name)
}

func Load() (*Config, error) {
	// A .env next to the working directory is the lowest-precedence
	// source of API keys; a missing file is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths
	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "sujin"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "sujin"))

	// Environment variables
	viper.SetEnvPrefix("SUJIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error produced
			return nil, err
		}
		// Config file not found; ignore and use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Manual expansion for keys in config file
	for name, p := range cfg.Providers {
		p.APIKey = expandEnv(p.APIKey)
		p.BaseURL = expandEnv(p.BaseURL)
		cfg.Providers[name] = p
	}
	cfg.StatePath = expandEnv(cfg.StatePath)
	cfg.Templates.Dir = expandEnv(cfg.Templates.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is where WriteDefault puts the config file.
func DefaultPath() string {
	return defaultDir("config.yaml")
}

// WriteDefault writes the default configuration as a starting point for
// editing. Refuses to clobber an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) ProviderFor(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultProvider == "" {
		return fmt.Errorf("config: default_provider is required")
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return fmt.Errorf("config: default_provider %q not found in providers", c.DefaultProvider)
	}
	for name, p := range c.Providers {
		switch p.Type {
		case "openai":
			if p.BaseURL == "" {
				return fmt.Errorf("config: provider %q (type openai) requires base_url", name)
			}
		case "anthropic":
		default:
			return fmt.Errorf("config: provider %q has invalid type %q (must be openai or anthropic)", name, p.Type)
		}
	}
	if c.Security.MaxCommandLength < 1 {
		c.Security.MaxCommandLength = 1000
	}
	if c.Executor.TimeoutSeconds < 1 {
		c.Executor.TimeoutSeconds = 30
	}
	if c.MaxTokens < 1 {
		c.MaxTokens = 4096
	}
	return nil
}
