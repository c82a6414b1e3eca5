// Package config loads the run configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/repolens/repolens/internal/history"
)

// Config describes one batch run: which repositories to sample, how far
// back and at what granularity, where to put results, and how to invoke
// the classifier.
type Config struct {
	Repositories  []string `mapstructure:"repositories"`
	HorizonMonths int      `mapstructure:"horizon_months"`
	StepMonths    int      `mapstructure:"step_months"`
	OutputRoot    string   `mapstructure:"output_root"`
	ScratchRoot   string   `mapstructure:"scratch_root"`

	Classifier Classifier `mapstructure:"classifier"`
}

// Classifier holds the parameters passed through to the external
// classification tool.
type Classifier struct {
	Command        string   `mapstructure:"command"`
	CodeExtensions []string `mapstructure:"code_extensions"`
	TextExtensions []string `mapstructure:"text_extensions"`
	MaxWords       int      `mapstructure:"max_words"`

	// Marker is the artifact whose presence in a window's output
	// directory means the window already completed. It is the last file
	// the classifier writes.
	Marker string `mapstructure:"marker"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HorizonMonths: 48,
		StepMonths:    3,
		OutputRoot:    "./out",
		ScratchRoot:   "",
		Classifier: Classifier{
			Command:        "classify_repo",
			CodeExtensions: []string{".go", ".java", ".js", ".ts", ".php", ".py", ".rb"},
			TextExtensions: []string{".md"},
			MaxWords:       512,
			Marker:         "comments_content_small_size.json",
		},
	}
}

// Load reads configuration from the given file (or the standard search
// locations when path is empty), applying env overrides with the
// REPOLENS_ prefix. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("horizon_months", cfg.HorizonMonths)
	v.SetDefault("step_months", cfg.StepMonths)
	v.SetDefault("output_root", cfg.OutputRoot)
	v.SetDefault("scratch_root", cfg.ScratchRoot)
	v.SetDefault("classifier.command", cfg.Classifier.Command)
	v.SetDefault("classifier.code_extensions", cfg.Classifier.CodeExtensions)
	v.SetDefault("classifier.text_extensions", cfg.Classifier.TextExtensions)
	v.SetDefault("classifier.max_words", cfg.Classifier.MaxWords)
	v.SetDefault("classifier.marker", cfg.Classifier.Marker)

	v.SetEnvPrefix("REPOLENS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("repolens")
		v.AddConfigPath(".")
		v.AddConfigPath(".repolens")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".repolens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence before viper reads
// the environment.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return fmt.Errorf("no repositories configured")
	}
	for _, url := range c.Repositories {
		if _, _, err := history.ParseRepoURL(url); err != nil {
			return fmt.Errorf("repository %q: %w", url, err)
		}
	}
	if c.HorizonMonths < 0 {
		return fmt.Errorf("horizon_months must be non-negative, got %d", c.HorizonMonths)
	}
	if c.StepMonths < 1 {
		return fmt.Errorf("step_months must be at least 1, got %d", c.StepMonths)
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output_root must not be empty")
	}
	if c.Classifier.Command == "" {
		return fmt.Errorf("classifier.command must not be empty")
	}
	if c.Classifier.MaxWords < 1 {
		return fmt.Errorf("classifier.max_words must be at least 1, got %d", c.Classifier.MaxWords)
	}
	if c.Classifier.Marker == "" {
		return fmt.Errorf("classifier.marker must not be empty")
	}
	return nil
}

// Scratch returns the scratch root, falling back to the system temp dir.
func (c *Config) Scratch() string {
	if c.ScratchRoot != "" {
		return c.ScratchRoot
	}
	return os.TempDir()
}
