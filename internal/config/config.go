package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/inboxsorter/internal/classifier"
	"github.com/teemow/inboxsorter/internal/gmail"
	"github.com/teemow/inboxsorter/internal/llm"
	"github.com/teemow/inboxsorter/internal/policy"
)

// EnvPrefix is prepended to every environment variable, e.g. INBOXSORTER_MODEL_NAME.
const EnvPrefix = "INBOXSORTER"

// MaxBatchSize is the largest batch a single run may request.
const MaxBatchSize = 500

// Config is the complete runtime configuration.
type Config struct {
	Account     string   `mapstructure:"account"`
	BatchSize   int      `mapstructure:"batch_size"`
	Threshold   float64  `mapstructure:"threshold"`
	Categories  []string `mapstructure:"categories"`
	ReviewLabel string   `mapstructure:"review_label"`

	Labels     LabelsConfig     `mapstructure:"labels"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Model      ModelConfig      `mapstructure:"model"`
	Gmail      GmailConfig      `mapstructure:"gmail"`
	Google     GoogleConfig     `mapstructure:"google"`
	Log        LogConfig        `mapstructure:"log"`
}

type LabelsConfig struct {
	Prefix string `mapstructure:"prefix"`
}

type ClassifierConfig struct {
	StrictCategories bool `mapstructure:"strict_categories"`
}

// ModelConfig selects the OpenAI-compatible completion endpoint.
type ModelConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Name        string        `mapstructure:"name"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	JSONMode    bool          `mapstructure:"json_mode"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GmailConfig struct {
	Query        string        `mapstructure:"query"`
	InboxLabelID string        `mapstructure:"inbox_label_id"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// GoogleConfig holds the OAuth client of the installed-app flow.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("account", "default")
	v.SetDefault("batch_size", 10)
	v.SetDefault("threshold", policy.DefaultThreshold)
	v.SetDefault("categories", classifier.DefaultCategories)
	v.SetDefault("review_label", policy.ReviewLabel)

	v.SetDefault("labels.prefix", "")
	v.SetDefault("classifier.strict_categories", false)

	v.SetDefault("model.base_url", llm.DefaultBaseURL)
	v.SetDefault("model.name", llm.DefaultModel)
	v.SetDefault("model.api_key", llm.DefaultAPIKey)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.max_tokens", 0)
	v.SetDefault("model.json_mode", true)
	v.SetDefault("model.timeout", classifier.DefaultTimeout)

	v.SetDefault("gmail.query", gmail.DefaultQuery)
	v.SetDefault("gmail.inbox_label_id", gmail.InboxLabelID)
	v.SetDefault("gmail.timeout", 30*time.Second)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"account":      "account",
	"batch-size":   "batch_size",
	"threshold":    "threshold",
	"categories":   "categories",
	"review-label": "review_label",
	"label-prefix": "labels.prefix",
	"strict":       "classifier.strict_categories",
	"model":        "model.name",
	"model-url":    "model.base_url",
	"query":        "gmail.query",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// BindFlags binds every known flag present in fs to its configuration key,
// so an explicitly set flag wins over env, file and default.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from env, the config file and defaults into a
// validated Config. An empty configFile looks for config.yaml in
// DefaultConfigDir and ignores its absence; an explicit path must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The Google client is commonly provided without our prefix.
	if err := v.BindEnv("google.client_id", EnvPrefix+"_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("google.client_secret", EnvPrefix+"_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Categories = splitCategories(cfg.Categories)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/inboxsorter or its platform equivalent.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "inboxsorter")
}

// splitCategories trims entries and expands comma separated values coming
// from env or a single flag value.
func splitCategories(in []string) []string {
	var out []string
	for _, c := range in {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects configurations a run cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be between 0.0 and 1.0, got %g", c.Threshold))
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("batch_size must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("categories must not be empty"))
	}
	if strings.TrimSpace(c.ReviewLabel) == "" {
		errs = append(errs, errors.New("review_label must not be empty"))
	}
	for _, cat := range c.Categories {
		if cat == c.ReviewLabel {
			errs = append(errs, fmt.Errorf("review_label %q must not be one of the categories", c.ReviewLabel))
			break
		}
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("model.timeout must be positive, got %s", c.Model.Timeout))
	}
	if c.Gmail.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("gmail.timeout must be positive, got %s", c.Gmail.Timeout))
	}
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		errs = append(errs, errors.New("model.base_url must not be empty"))
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		errs = append(errs, errors.New("model.name must not be empty"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature must be between 0 and 2, got %g", c.Model.Temperature))
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("model.max_tokens must not be negative, got %d", c.Model.MaxTokens))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LLMConfig returns the settings of the model client.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		BaseURL:     c.Model.BaseURL,
		APIKey:      c.Model.APIKey,
		Model:       c.Model.Name,
		Temperature: float32(c.Model.Temperature),
		MaxTokens:   c.Model.MaxTokens,
		JSONMode:    c.Model.JSONMode,
	}
}

// ClassifierOptions returns the classifier settings. Logger and metrics are
// left to the caller.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		Categories: c.Categories,
		Strict:     c.Classifier.StrictCategories,
		Timeout:    c.Model.Timeout,
	}
}

// Policy returns the decision policy.
func (c *Config) Policy() policy.Policy {
	return policy.Policy{Threshold: c.Threshold, ReviewLabel: c.ReviewLabel}
}
