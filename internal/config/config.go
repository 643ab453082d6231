// Package config loads runtime configuration from environment variables and
// an optional YAML settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexanderramin/waypoint/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds everything the binary needs to wire itself.
type Config struct {
	DBPath       string
	SettingsPath string
	HTTPAddr     string
	Workers      int
	LogUseCases  bool
	Settings     Settings
}

// Settings is the YAML settings file.
type Settings struct {
	Reports                 ReportSettings     `yaml:"reports"`
	DefaultPageResultsLimit int                `yaml:"default_page_results_limit"`
	BlockTypes              []domain.BlockType `yaml:"block_types"`
}

type ReportSettings struct {
	Completion CompletionSettings `yaml:"completion"`
}

type CompletionSettings struct {
	DefaultBlockFilter []domain.BlockType `yaml:"default_block_filter"`
	MaxResultsPerPage  int                `yaml:"max_results_per_page"`
}

// DefaultSettings mirrors the values used when no settings file is given.
func DefaultSettings() Settings {
	return Settings{
		Reports: ReportSettings{
			Completion: CompletionSettings{
				DefaultBlockFilter: append([]domain.BlockType(nil), domain.DefaultReportFilter...),
				MaxResultsPerPage:  5,
			},
		},
		DefaultPageResultsLimit: 10,
		BlockTypes:              append([]domain.BlockType(nil), domain.DefaultBlockTypes...),
	}
}

// Default returns a Config with defaults for every field except DBPath,
// which depends on the home directory.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Workers:  4,
		Settings: DefaultSettings(),
	}
}

// Load reads configuration from the environment, falling back to defaults
// for unset or malformed values. A settings file named by WAYPOINT_CONFIG
// must exist and parse.
func Load() (Config, error) {
	cfg := Default()

	cfg.DBPath = os.Getenv("WAYPOINT_DB")
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".waypoint", "waypoint.db")
	}

	if v := os.Getenv("WAYPOINT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("WAYPOINT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("WAYPOINT_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}

	if v := os.Getenv("WAYPOINT_CONFIG"); v != "" {
		settings, err := LoadSettings(v)
		if err != nil {
			return Config{}, err
		}
		cfg.SettingsPath = v
		cfg.Settings = settings
	}

	return cfg, nil
}

// LoadSettings parses a YAML settings file on top of DefaultSettings, so
// keys the file leaves out keep their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	if err := settings.validate(); err != nil {
		return Settings{}, fmt.Errorf("settings file %s: %w", path, err)
	}
	return settings, nil
}

func (s Settings) validate() error {
	if s.DefaultPageResultsLimit <= 0 {
		return fmt.Errorf("default_page_results_limit must be positive")
	}
	if s.Reports.Completion.MaxResultsPerPage < 0 {
		return fmt.Errorf("reports.completion.max_results_per_page must not be negative")
	}
	if len(s.BlockTypes) == 0 {
		return fmt.Errorf("block_types must not be empty")
	}
	allowed := domain.TypeSet(s.BlockTypes)
	if !allowed[domain.BlockCourse] {
		return fmt.Errorf("block_types must include %q", domain.BlockCourse)
	}
	for _, t := range s.Reports.Completion.DefaultBlockFilter {
		if !allowed[t] {
			return fmt.Errorf("reports.completion.default_block_filter: %q is not in block_types", t)
		}
	}
	return nil
}

// CompletionPageLimit is the number of users per completion report page
// when a request does not set one.
func (s Settings) CompletionPageLimit() int {
	if n := s.Reports.Completion.MaxResultsPerPage; n > 0 {
		return n
	}
	return s.DefaultPageResultsLimit
}

// CompletionFilter returns the default completion report block filter.
func (s Settings) CompletionFilter() []domain.BlockType {
	if len(s.Reports.Completion.DefaultBlockFilter) > 0 {
		return s.Reports.Completion.DefaultBlockFilter
	}
	return domain.DefaultReportFilter
}
