// Package config holds the runtime configuration for rusrime: where the corpus
// lives, how its markup is addressed, and how pages are fetched and stored.
//
// Defaults are compiled in; a YAML file and RUSRIME_* environment variables
// are layered over them through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Selectors addresses the pieces of corpus markup the parsers read.
// Line, TableRow, TextContainer and ExplainContainer are CSS selectors;
// Word, Separator and TableValue are class names.
type Selectors struct {
	// Line matches one visual line of poem text.
	Line string `mapstructure:"line" yaml:"line"`

	// Word is the class of spans that carry a single word token.
	Word string `mapstructure:"word" yaml:"word"`

	// Separator is the class flagging a line as a stanza boundary.
	Separator string `mapstructure:"separator" yaml:"separator"`

	// TableRow matches one label/value row of the metadata table.
	TableRow string `mapstructure:"table_row" yaml:"table_row"`

	// TableValue is the class of the cell holding a row's value.
	TableValue string `mapstructure:"table_value" yaml:"table_value"`

	// TextContainer matches the element wrapping the poem text in a full page.
	TextContainer string `mapstructure:"text_container" yaml:"text_container"`

	// ExplainContainer matches the element wrapping the metadata table in a full page.
	ExplainContainer string `mapstructure:"explain_container" yaml:"explain_container"`
}

// UISelectors are CSS selectors for the controls of the corpus search interface.
type UISelectors struct {
	CloseOnboarding    string `mapstructure:"close_onboarding" yaml:"close_onboarding"`
	AdditionalFeatures string `mapstructure:"additional_features" yaml:"additional_features"`
	RhymeZone          string `mapstructure:"rhyme_zone" yaml:"rhyme_zone"`
	ApplyFeatures      string `mapstructure:"apply_features" yaml:"apply_features"`
	WordformInput      string `mapstructure:"wordform_input" yaml:"wordform_input"`
	SearchButton       string `mapstructure:"search_button" yaml:"search_button"`
	ResultFail         string `mapstructure:"result_fail" yaml:"result_fail"`
	ResultList         string `mapstructure:"result_list" yaml:"result_list"`
	PageLoader         string `mapstructure:"page_loader" yaml:"page_loader"`
	NextPage           string `mapstructure:"next_page" yaml:"next_page"`
	ContextButton      string `mapstructure:"context_button" yaml:"context_button"`
	ExplainButton      string `mapstructure:"explain_button" yaml:"explain_button"`
}

// CorpusConfig holds settings for the browser-driven corpus search.
type CorpusConfig struct {
	// SearchURL is the subcorpus search page.
	SearchURL string `mapstructure:"search_url" yaml:"search_url"`

	// Headless runs Chrome without a window.
	Headless bool `mapstructure:"headless" yaml:"headless"`

	// BrowserBin overrides the Chrome binary; empty lets the launcher pick one.
	BrowserBin string `mapstructure:"browser_bin" yaml:"browser_bin"`

	// DebuggerURL connects to an already running Chrome instead of launching one.
	DebuggerURL string `mapstructure:"debugger_url" yaml:"debugger_url"`

	ViewportWidth  int `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int `mapstructure:"viewport_height" yaml:"viewport_height"`

	// WaitTimeout bounds every wait for a page element.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`

	// MaxPages stops pagination after this many result pages; 0 means no limit.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	UI UISelectors `mapstructure:"ui" yaml:"ui"`
}

// HTTPConfig holds settings for plain HTTP page fetching.
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// StoreConfig locates the result history database.
type StoreConfig struct {
	// Path is the SQLite file; empty disables history.
	Path string `mapstructure:"path" yaml:"path"`
}

// Config groups all settings.
type Config struct {
	Corpus    CorpusConfig `mapstructure:"corpus" yaml:"corpus"`
	Selectors Selectors    `mapstructure:"selectors" yaml:"selectors"`
	HTTP      HTTPConfig   `mapstructure:"http" yaml:"http"`
	Store     StoreConfig  `mapstructure:"store" yaml:"store"`

	// Workers bounds concurrent processing of local documents.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// DefaultSelectors returns the selectors matching the corpus markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Line:             ".line",
		Word:             "word",
		Separator:        "separator-line",
		TableRow:         "tr",
		TableValue:       "explain__value",
		TextContainer:    ".concordance-item",
		ExplainContainer: ".explain__content",
	}
}

// DefaultUISelectors returns the selectors matching the corpus search interface.
func DefaultUISelectors() UISelectors {
	return UISelectors{
		CloseOnboarding:    ".onboarding [aria-label='Закрыть']",
		AdditionalFeatures: "[data-test='additional-features']",
		RhymeZone:          "[data-test='feature-rhyme-zone']",
		ApplyFeatures:      "[aria-label='Применить']",
		WordformInput:      "input[name='wordform']",
		SearchButton:       "button[type='submit']",
		ResultFail:         ".search-result-fail",
		ResultList:         ".concordance-list",
		PageLoader:         ".results-page-loader",
		NextPage:           "[aria-label='Вперед']",
		ContextButton:      ".result-actions__context",
		ExplainButton:      "[aria-label='Разбор']",
	}
}

// Default returns the compiled-in configuration.
func Default() Config {
	storePath := ""
	if dir, err := os.UserCacheDir(); err == nil {
		storePath = filepath.Join(dir, "rusrime", "history.db")
	}

	return Config{
		Corpus: CorpusConfig{
			SearchURL:      "https://ruscorpora.ru/search?search=CgkyBwgFEgNwb2UwAQ%3D%3D",
			Headless:       true,
			ViewportWidth:  2000,
			ViewportHeight: 5000,
			WaitTimeout:    100 * time.Second,
			UI:             DefaultUISelectors(),
		},
		Selectors: DefaultSelectors(),
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "rusrime/0.1",
			MaxRetries: 5,
		},
		Store:   StoreConfig{Path: storePath},
		Workers: 4,
	}
}

// SetDefaults registers every default value with v so that keys are known to
// viper's environment binding even when no config file sets them.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("corpus.search_url", d.Corpus.SearchURL)
	v.SetDefault("corpus.headless", d.Corpus.Headless)
	v.SetDefault("corpus.browser_bin", d.Corpus.BrowserBin)
	v.SetDefault("corpus.debugger_url", d.Corpus.DebuggerURL)
	v.SetDefault("corpus.viewport_width", d.Corpus.ViewportWidth)
	v.SetDefault("corpus.viewport_height", d.Corpus.ViewportHeight)
	v.SetDefault("corpus.wait_timeout", d.Corpus.WaitTimeout)
	v.SetDefault("corpus.max_pages", d.Corpus.MaxPages)

	ui := d.Corpus.UI
	v.SetDefault("corpus.ui.close_onboarding", ui.CloseOnboarding)
	v.SetDefault("corpus.ui.additional_features", ui.AdditionalFeatures)
	v.SetDefault("corpus.ui.rhyme_zone", ui.RhymeZone)
	v.SetDefault("corpus.ui.apply_features", ui.ApplyFeatures)
	v.SetDefault("corpus.ui.wordform_input", ui.WordformInput)
	v.SetDefault("corpus.ui.search_button", ui.SearchButton)
	v.SetDefault("corpus.ui.result_fail", ui.ResultFail)
	v.SetDefault("corpus.ui.result_list", ui.ResultList)
	v.SetDefault("corpus.ui.page_loader", ui.PageLoader)
	v.SetDefault("corpus.ui.next_page", ui.NextPage)
	v.SetDefault("corpus.ui.context_button", ui.ContextButton)
	v.SetDefault("corpus.ui.explain_button", ui.ExplainButton)

	v.SetDefault("selectors.line", d.Selectors.Line)
	v.SetDefault("selectors.word", d.Selectors.Word)
	v.SetDefault("selectors.separator", d.Selectors.Separator)
	v.SetDefault("selectors.table_row", d.Selectors.TableRow)
	v.SetDefault("selectors.table_value", d.Selectors.TableValue)
	v.SetDefault("selectors.text_container", d.Selectors.TextContainer)
	v.SetDefault("selectors.explain_container", d.Selectors.ExplainContainer)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)

	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("workers", d.Workers)
}

// NewViper returns a viper instance with defaults registered and RUSRIME_*
// environment variables bound (corpus.max_pages -> RUSRIME_CORPUS_MAX_PAGES).
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("RUSRIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile points v at a config file. An explicit path must exist; without one
// ./rusrime.yaml and ~/.config/rusrime/config.yaml are tried and their absence
// is not an error. It returns the file used, if any.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		return v.ConfigFileUsed(), nil
	}

	v.SetConfigName("rusrime")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "rusrime"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes the layered configuration held by v and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"selectors.line", c.Selectors.Line},
		{"selectors.word", c.Selectors.Word},
		{"selectors.separator", c.Selectors.Separator},
		{"selectors.table_row", c.Selectors.TableRow},
		{"selectors.table_value", c.Selectors.TableValue},
		{"selectors.text_container", c.Selectors.TextContainer},
		{"selectors.explain_container", c.Selectors.ExplainContainer},
		{"corpus.search_url", c.Corpus.SearchURL},
		{"corpus.ui.wordform_input", c.Corpus.UI.WordformInput},
		{"corpus.ui.search_button", c.Corpus.UI.SearchButton},
		{"corpus.ui.result_list", c.Corpus.UI.ResultList},
		{"corpus.ui.context_button", c.Corpus.UI.ContextButton},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("invalid config: %s must not be empty", r.key)
		}
	}

	switch {
	case c.Corpus.WaitTimeout <= 0:
		return fmt.Errorf("invalid config: corpus.wait_timeout must be positive, got %v", c.Corpus.WaitTimeout)
	case c.Corpus.MaxPages < 0:
		return fmt.Errorf("invalid config: corpus.max_pages must not be negative, got %d", c.Corpus.MaxPages)
	case c.HTTP.Timeout <= 0:
		return fmt.Errorf("invalid config: http.timeout must be positive, got %v", c.HTTP.Timeout)
	case c.Workers <= 0:
		return fmt.Errorf("invalid config: workers must be positive, got %d", c.Workers)
	}

	return nil
}
