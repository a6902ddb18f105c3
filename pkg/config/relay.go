package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/integrail/pagegen/pkg/llm"
	"github.com/integrail/pagegen/pkg/util"
)

const APIKeyEnv = "GEMINI_API_KEY"

// RelayConfig holds configuration for the relay service.
// Precedence: defaults < config file < environment (.env included) < flags.
type RelayConfig struct {
	Port               int      `yaml:"port"`
	APIKey             string   `yaml:"api_key"`
	UpstreamURL        string   `yaml:"upstream_url"`
	Model              string   `yaml:"model"`
	PromptTemplateFile string   `yaml:"prompt_template_file"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	WebForm            bool     `yaml:"web_form"`
	LogLevel           string   `yaml:"log_level"`
	ConfigFile         string   `yaml:"-"`
	EnvFile            string   `yaml:"-"`
}

// SetDefaults initializes c with built-in defaults.
func (c *RelayConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.UpstreamURL == "" {
		c.UpstreamURL = llm.DefaultGeminiURL
	}
	if c.Model == "" {
		c.Model = llm.DefaultGeminiModel
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.EnvFile == "" {
		c.EnvFile = ".env"
	}
	c.WebForm = true
}

// LoadFile overlays values from a YAML config file.
func (c *RelayConfig) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %q", path)
	}
	if err := yaml.Unmarshal(content, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", path)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load env file %q", path)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *RelayConfig) ApplyEnv() {
	if v := GetEnv(APIKeyEnv, ""); v != "" {
		c.APIKey = v
	}
	if v := GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := GetEnv("GEMINI_API_URL", ""); v != "" {
		c.UpstreamURL = v
	}
	if v := GetEnv("GEMINI_MODEL", ""); v != "" {
		c.Model = v
	}
	if v := GetEnv("PROMPT_TEMPLATE_FILE", ""); v != "" {
		c.PromptTemplateFile = v
	}
	if v := GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = util.SplitComma(v)
	}
	if v := GetEnv("WEB_FORM", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.WebForm = b
		}
	}
	if v := GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
}

// Validate reports configuration the relay cannot start with.
func (c *RelayConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.Errorf("%s is not set: the relay needs a generative API key to start", APIKeyEnv)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.UpstreamURL == "" {
		return errors.Errorf("upstream url must not be empty")
	}
	return nil
}

// GetEnv returns the value of key or def when it is unset or blank.
func GetEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
