package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
)

const (
	envPrefix = "INCIDENTES"
	dirName   = ".incidentes"
)

// Global configuration structure.
type Global struct {
	LLMEnabled   bool    `mapstructure:"llm_enabled" yaml:"llm_enabled"`
	LLMProvider  string  `mapstructure:"llm_provider" yaml:"llm_provider"`
	LLMModel     string  `mapstructure:"llm_model" yaml:"llm_model"`
	OllamaHost   string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	LMStudioURL  string  `mapstructure:"lmstudio_url" yaml:"lmstudio_url"`
	LLMAPIKey    string  `mapstructure:"llm_api_key" yaml:"llm_api_key,omitempty"`
	LLMTimeoutMs int     `mapstructure:"llm_timeout_ms" yaml:"llm_timeout_ms"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	// Engine
	SampleSize int    `mapstructure:"sample_size" yaml:"sample_size"`
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	// Columns maps a role name (estado, responsable, rango_edad...) to a header
	// that replaces the inferred column.
	Columns map[string]string `mapstructure:"columns" yaml:"columns,omitempty"`
}

// LLMTimeout returns the narrative timeout as a duration.
func (c *Global) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

// LLMHost returns the endpoint for the configured provider.
func (c *Global) LLMHost() string {
	if strings.EqualFold(c.LLMProvider, "lmstudio") {
		return c.LMStudioURL
	}
	return c.OllamaHost
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_enabled", true)
	v.SetDefault("llm_provider", "ollama")
	v.SetDefault("llm_model", "llama3.2")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("lmstudio_url", "http://localhost:1234/v1")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_timeout_ms", 9000)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("sample_size", 200)
	v.SetDefault("output_dir", ".")
	v.SetDefault("delimiter", "")
	v.SetDefault("columns", map[string]string{})
}

// Default returns the built-in settings, ignoring files and environment.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath returns ~/.incidentes/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.incidentes/config.yaml) > defaults.
// A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the commands cannot act on.
func (c *Global) Validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case "ollama", "lmstudio":
	default:
		return fmt.Errorf("invalid llm_provider %q (use ollama or lmstudio)", c.LLMProvider)
	}
	if c.LLMTimeoutMs < 0 {
		return fmt.Errorf("llm_timeout_ms must be >= 0")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must be >= 0")
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.incidentes/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Keys lists the settable keys in display order. "columns.<rol>" is also
// accepted by Set.
func Keys() []string {
	return []string{
		"llm_enabled", "llm_provider", "llm_model", "ollama_host", "lmstudio_url", "llm_api_key",
		"llm_timeout_ms", "temperature", "max_tokens", "sample_size", "output_dir", "delimiter",
	}
}

// Set assigns value to key, parsing it to the field's type.
func (c *Global) Set(key, value string) error {
	if role, ok := strings.CutPrefix(key, "columns."); ok {
		if role == "" {
			return fmt.Errorf("missing role in %q", key)
		}
		if c.Columns == nil {
			c.Columns = map[string]string{}
		}
		if value == "" {
			delete(c.Columns, role)
		} else {
			c.Columns[role] = value
		}
		return nil
	}
	var err error
	switch key {
	case "llm_enabled":
		c.LLMEnabled, err = strconv.ParseBool(value)
	case "llm_provider":
		c.LLMProvider = strings.ToLower(value)
	case "llm_model":
		c.LLMModel = value
	case "ollama_host":
		c.OllamaHost = value
	case "lmstudio_url":
		c.LMStudioURL = value
	case "llm_api_key":
		c.LLMAPIKey = value
	case "llm_timeout_ms":
		c.LLMTimeoutMs, err = strconv.Atoi(value)
	case "temperature":
		c.Temperature, err = strconv.ParseFloat(value, 64)
	case "max_tokens":
		c.MaxTokens, err = strconv.Atoi(value)
	case "sample_size":
		c.SampleSize, err = strconv.Atoi(value)
	case "output_dir":
		c.OutputDir = value
	case "delimiter":
		c.Delimiter = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s, columns.<rol>)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return c.Validate()
}

// RoleOverrides resolves the columns map into schema roles. Keys that name no
// role are returned in unknown, sorted.
func (c *Global) RoleOverrides() (map[schema.Role]string, []string) {
	out := make(map[schema.Role]string, len(c.Columns))
	var unknown []string
	for k, col := range c.Columns {
		r, ok := schema.ParseRole(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out[r] = col
	}
	sort.Strings(unknown)
	return out, unknown
}
