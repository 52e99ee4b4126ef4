// Package config provides configuration management for rulealign.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rulealign/rulealign/internal/model"
	"github.com/rulealign/rulealign/internal/util"
)

// Config represents the complete rulealign configuration for one project.
type Config struct {
	// Mode selects the sync mode (solo, team, catalog)
	Mode string `yaml:"mode"`

	// Source is the path to the canonical rule document (YAML or markdown
	// with a fenced yaml block)
	Source string `yaml:"source"`

	// EditSource is a glob naming which native file(s) the user edits
	// directly; every other target is regenerated read-only
	EditSource string `yaml:"edit_source,omitempty"`

	// Targets is the ordered list of native formats to sync
	Targets []TargetConfig `yaml:"targets"`

	// ManagedHeadings names headings whose local content a team ruleset
	// may not overwrite
	ManagedHeadings []string `yaml:"managed_headings,omitempty"`

	// Trust configures the team-mode trust gate
	Trust TrustConfig `yaml:"trust"`

	// Extraction configures the append-only extraction log
	Extraction ExtractionConfig `yaml:"extraction"`

	// Backup configures pre-overwrite backups
	Backup BackupConfig `yaml:"backup"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`
}

// TargetConfig describes one native format target.
type TargetConfig struct {
	// Name is the adapter registry key (agentsmd, claudemd, cursor, ...)
	Name string `yaml:"name"`
	// Path is the native file, or directory for multi-file formats
	Path string `yaml:"path"`
	// Banner toggles the generated-file banner for this target
	Banner bool `yaml:"banner"`
}

// TrustConfig holds team-mode trust settings.
type TrustConfig struct {
	// AllowList is the YAML file of approved bundle hashes
	AllowList string `yaml:"allow_list"`
	// Lockfile records the bundle hash of the last approved sync
	Lockfile string `yaml:"lockfile"`
}

// ExtractionConfig holds extraction log settings.
type ExtractionConfig struct {
	// Log is the append-only markdown log receiving extracted sections
	Log string `yaml:"log"`
}

// BackupConfig holds backup settings.
type BackupConfig struct {
	// Enabled enables pre-overwrite backups
	Enabled bool `yaml:"enabled"`
	// Location is the backup directory path
	Location string `yaml:"location"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// configFileName is the name of the project config file.
const configFileName = "rulealign.yaml"

// Default returns the default configuration for a project directory.
func Default(projectDir string) *Config {
	return &Config{
		Mode:       string(model.ModeSolo),
		Source:     "rules.yaml",
		EditSource: "AGENTS.md",
		Targets: []TargetConfig{
			{Name: "agentsmd", Path: "AGENTS.md", Banner: false},
			{Name: "claudemd", Path: "CLAUDE.md", Banner: true},
			{Name: "cursor", Path: ".cursor/rules", Banner: true},
		},
		Trust: TrustConfig{
			AllowList: filepath.Join(util.ProjectStatePath(""), "allowed.yaml"),
			Lockfile:  filepath.Join(util.ProjectStatePath(""), "rulealign.lock"),
		},
		Extraction: ExtractionConfig{
			Log: filepath.Join(util.ProjectStatePath(""), "extracted.md"),
		},
		Backup: BackupConfig{
			Enabled:  true,
			Location: util.BackupsPath(projectDir),
		},
		Output: OutputConfig{
			Color:   "auto",
			Verbose: false,
		},
	}
}

// FilePath returns the path to the project config file.
func FilePath(projectDir string) string {
	return filepath.Join(projectDir, configFileName)
}

// Load loads the configuration for a project directory, merging with
// defaults. A missing config file yields defaults with environment
// overrides applied.
func Load(projectDir string) (*Config, error) {
	cfg := Default(projectDir)

	configPath := FilePath(projectDir)
	// #nosec G304 - configPath is constructed from the project directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, cfg.validate()
		}
		return nil, err
	}

	// Parse YAML over defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", configPath, err)
	}

	cfg.applyEnvironment()
	return cfg, cfg.validate()
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, cfg.validate()
}

// Save writes the configuration to the project config file.
func (c *Config) Save(projectDir string) error {
	configPath := FilePath(projectDir)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(configPath, data, 0o644)
}

// validate rejects configurations no sync pass could honor.
func (c *Config) validate() error {
	switch model.Mode(c.Mode) {
	case model.ModeSolo, model.ModeTeam, model.ModeCatalog:
	default:
		return fmt.Errorf("unknown mode %q (expected solo, team or catalog)", c.Mode)
	}
	if c.Source == "" {
		return fmt.Errorf("config is missing a source document path")
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" || t.Path == "" {
			return fmt.Errorf("every target needs a name and a path")
		}
		if seen[t.Path] {
			return fmt.Errorf("target path %q is configured twice", t.Path)
		}
		seen[t.Path] = true
	}
	return nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern RULEALIGN_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("RULEALIGN_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("RULEALIGN_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("RULEALIGN_EDIT_SOURCE"); v != "" {
		c.EditSource = v
	}

	if v := os.Getenv("RULEALIGN_TRUST_ALLOW_LIST"); v != "" {
		c.Trust.AllowList = v
	}
	if v := os.Getenv("RULEALIGN_TRUST_LOCKFILE"); v != "" {
		c.Trust.Lockfile = v
	}

	if v := os.Getenv("RULEALIGN_EXTRACTION_LOG"); v != "" {
		c.Extraction.Log = v
	}

	if v := os.Getenv("RULEALIGN_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("RULEALIGN_BACKUP_LOCATION"); v != "" {
		c.Backup.Location = v
	}

	if v := os.Getenv("RULEALIGN_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("RULEALIGN_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv("RULEALIGN_MANAGED_HEADINGS"); v != "" {
		c.ManagedHeadings = splitList(v)
	}
}

// SyncMode returns the configured mode as a model.Mode.
func (c *Config) SyncMode() model.Mode {
	return model.Mode(c.Mode)
}

// IsEditSource reports whether a target path is the user-editable native
// file. Everything else is regenerated read-only; direct edits there are
// routed through extraction instead of being merged back.
func (c *Config) IsEditSource(targetPath string) bool {
	if c.EditSource == "" {
		return false
	}
	if c.EditSource == targetPath {
		return true
	}
	matched, err := filepath.Match(c.EditSource, targetPath)
	if err != nil {
		return false
	}
	if matched {
		return true
	}
	matched, err = filepath.Match(c.EditSource, filepath.Base(targetPath))
	return err == nil && matched
}

// ResolvePaths expands ~ and resolves relative paths against the project
// directory, in place.
func (c *Config) ResolvePaths(projectDir string) {
	c.Source = util.ExpandPath(c.Source, projectDir)
	c.Trust.AllowList = util.ExpandPath(c.Trust.AllowList, projectDir)
	c.Trust.Lockfile = util.ExpandPath(c.Trust.Lockfile, projectDir)
	c.Extraction.Log = util.ExpandPath(c.Extraction.Log, projectDir)
	c.Backup.Location = util.ExpandPath(c.Backup.Location, projectDir)
	for i := range c.Targets {
		c.Targets[i].Path = util.ExpandPath(c.Targets[i].Path, projectDir)
	}
}

// Exists returns true if a config file exists in the project directory.
func Exists(projectDir string) bool {
	_, err := os.Stat(FilePath(projectDir))
	return err == nil
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitList splits a comma-separated list, dropping empty segments.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
