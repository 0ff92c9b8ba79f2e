// Package config loads and persists journal settings from
// <home>/config.yaml. The file groups settings the way the settings screen
// shows them: log_viewer, log_editor, preferences, ai_settings and storage.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the settings file inside the journal home.
	FileName = "config.yaml"

	homeEnv      = "JOURNAL_HOME"
	openAIKeyEnv = "JOURNAL_OPENAI_API_KEY"
	geminiKeyEnv = "JOURNAL_GEMINI_API_KEY"
)

const defaultConfigYAML = `# journal configuration

log_viewer:
  # newest | oldest | name
  sort: newest
  show_tags: true
  preview_width: 60

log_editor:
  # minutes between autosaves in the terminal UI
  autosave_interval_minutes: 10
  # falls back to $EDITOR, then vi
  editor: ""

preferences:
  username: default_user
  # classic | neon | mono
  theme: classic
  notifications_enabled: true
  # hour of day after which "journal remind" nags about a missing entry
  reminder_hour: 20

ai_settings:
  enabled: false
  # openai | gemini
  provider: openai
  model: gpt-5.1
  # chat completions endpoint for the openai provider
  base_url: https://api.openai.com/v1
  # JOURNAL_OPENAI_API_KEY / JOURNAL_GEMINI_API_KEY override this value
  api_key: ""
  sentiment_analysis: true
  tag_recommendations: true
  content_summarization: true
  workers: 4

storage:
  # json | sqlite
  driver: json
`

type LogViewer struct {
	Sort         string `yaml:"sort"`
	ShowTags     bool   `yaml:"show_tags"`
	PreviewWidth int    `yaml:"preview_width"`
}

type LogEditor struct {
	AutosaveIntervalMinutes int    `yaml:"autosave_interval_minutes"`
	Editor                  string `yaml:"editor"`
}

type Preferences struct {
	Username             string `yaml:"username"`
	Theme                string `yaml:"theme"`
	NotificationsEnabled bool   `yaml:"notifications_enabled"`
	ReminderHour         int    `yaml:"reminder_hour"`
}

// AI gates the assistant features. A feature runs only when Enabled and its
// own flag are both true.
type AI struct {
	Enabled              bool   `yaml:"enabled"`
	Provider             string `yaml:"provider"`
	Model                string `yaml:"model"`
	BaseURL              string `yaml:"base_url"`
	APIKey               string `yaml:"api_key"`
	SentimentAnalysis    bool   `yaml:"sentiment_analysis"`
	TagRecommendations   bool   `yaml:"tag_recommendations"`
	ContentSummarization bool   `yaml:"content_summarization"`
	Workers              int    `yaml:"workers"`

	envKey string
}

// Key returns the API key, preferring the provider's environment variable.
func (a AI) Key() string {
	if a.envKey != "" {
		return a.envKey
	}
	return strings.TrimSpace(a.APIKey)
}

func (a AI) SummarizationEnabled() bool { return a.Enabled && a.ContentSummarization }
func (a AI) TagsEnabled() bool          { return a.Enabled && a.TagRecommendations }
func (a AI) SentimentEnabled() bool     { return a.Enabled && a.SentimentAnalysis }

type Storage struct {
	Driver string `yaml:"driver"`
}

// Config holds the settings plus where they live.
type Config struct {
	// Home is the journal data directory (logs, tags, config, app logs).
	Home string `yaml:"-"`

	LogViewer   LogViewer   `yaml:"log_viewer"`
	LogEditor   LogEditor   `yaml:"log_editor"`
	Preferences Preferences `yaml:"preferences"`
	AI          AI          `yaml:"ai_settings"`
	Storage     Storage     `yaml:"storage"`
}

// Default returns the built-in settings for home.
func Default(home string) *Config {
	c := &Config{}
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), c); err != nil {
		panic(fmt.Sprintf("config: default yaml: %v", err))
	}
	c.Home = home
	return c
}

// DefaultHome is $JOURNAL_HOME, else ~/.journal.
func DefaultHome() (string, error) {
	if h := strings.TrimSpace(os.Getenv(homeEnv)); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".journal"), nil
}

// Path is the settings file location.
func (c *Config) Path() string { return filepath.Join(c.Home, FileName) }

// AppLogDir is where the program's own diagnostic log is written. Journal
// logs live elsewhere under Home.
func (c *Config) AppLogDir() string { return filepath.Join(c.Home, "applog") }

// Load reads home/config.yaml, writing the commented default on first run.
func Load(home string) (*Config, error) {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("config: ensure home: %w", err)
	}
	c := Default(home)
	data, err := os.ReadFile(c.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.WriteFile(c.Path(), []byte(defaultConfigYAML), 0o600); err != nil {
			return nil, fmt.Errorf("config: write default: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("config: read: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", c.Path(), err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", c.Path(), err)
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	env := openAIKeyEnv
	if c.AI.Provider == "gemini" {
		env = geminiKeyEnv
	}
	c.AI.envKey = strings.TrimSpace(os.Getenv(env))
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.LogViewer.Sort {
	case "newest", "oldest", "name":
	default:
		return fmt.Errorf("log_viewer.sort: unknown order %q", c.LogViewer.Sort)
	}
	switch c.Preferences.Theme {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("preferences.theme: unknown theme %q", c.Preferences.Theme)
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("ai_settings.provider: unknown provider %q", c.AI.Provider)
	}
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.LogEditor.AutosaveIntervalMinutes < 1 {
		return errors.New("log_editor.autosave_interval_minutes must be at least 1")
	}
	if c.AI.Workers < 1 {
		return errors.New("ai_settings.workers must be at least 1")
	}
	if c.LogViewer.PreviewWidth < 20 {
		return errors.New("log_viewer.preview_width must be at least 20")
	}
	if c.Preferences.ReminderHour < 0 || c.Preferences.ReminderHour > 23 {
		return errors.New("preferences.reminder_hour must be within 0..23")
	}
	return nil
}

// Save writes the settings back with owner-only permissions.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	tmp := c.Path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	if err := os.Rename(tmp, c.Path()); err != nil {
		return fmt.Errorf("config: replace: %w", err)
	}
	return nil
}

// ToggleNotifications flips preferences.notifications_enabled.
func (c *Config) ToggleNotifications() {
	c.Preferences.NotificationsEnabled = !c.Preferences.NotificationsEnabled
}
