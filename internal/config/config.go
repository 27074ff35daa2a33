package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the sift configuration.
type Config struct {
	Picker   PickerConfig   `yaml:"picker" toml:"picker"`
	Source   SourceConfig   `yaml:"source" toml:"source"`
	Pipeline PipelineConfig `yaml:"pipeline" toml:"pipeline"`
	Render   RenderConfig   `yaml:"render" toml:"render"`
	Preview  PreviewConfig  `yaml:"preview" toml:"preview"`
	Action   ActionConfig   `yaml:"action" toml:"action"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Resume   ResumeConfig   `yaml:"resume" toml:"resume"`
}

// PickerConfig holds the session surface: layout, timing and symbols.
type PickerConfig struct {
	Title            string  `yaml:"title" toml:"title"`
	Selectable       bool    `yaml:"selectable" toml:"selectable"`
	Border           string  `yaml:"border" toml:"border"` // none, ascii, single, double, rounded
	WidthRatio       float64 `yaml:"width_ratio" toml:"width_ratio"`
	WidthMin         int     `yaml:"width_min" toml:"width_min"`
	WidthMax         int     `yaml:"width_max" toml:"width_max"`
	HeightRatio      float64 `yaml:"height_ratio" toml:"height_ratio"`
	HeightMin        int     `yaml:"height_min" toml:"height_min"`
	HeightMax        int     `yaml:"height_max" toml:"height_max"`
	PreviewRatio     float64 `yaml:"preview_ratio" toml:"preview_ratio"` // 0 hides the preview
	RedrawIntervalMs int     `yaml:"redraw_interval_ms" toml:"redraw_interval_ms"`
	Threshold        int     `yaml:"threshold" toml:"threshold"` // Max collected items (0 = unbounded)
	Scrolloff        int     `yaml:"scrolloff" toml:"scrolloff"`
	HeadSymbol       string  `yaml:"head_symbol" toml:"head_symbol"`
	FailSymbol       string  `yaml:"fail_symbol" toml:"fail_symbol"`
	AltScreen        bool    `yaml:"alt_screen" toml:"alt_screen"`
}

// SourceConfig selects where items come from.
type SourceConfig struct {
	Kind    string `yaml:"kind" toml:"kind"`       // stdin, command, file, walk, history, jsonl, list
	Command string `yaml:"command" toml:"command"` // command source
	Path    string `yaml:"path" toml:"path"`       // file, walk, history and jsonl sources
	Follow  bool   `yaml:"follow" toml:"follow"`   // keep reading a file as it grows
	Hidden  bool   `yaml:"hidden" toml:"hidden"`   // walk into dot entries
	Shell   string `yaml:"shell" toml:"shell"`     // history source; empty detects $SHELL

	JSONValue  string   `yaml:"json_value" toml:"json_value"` // gjson path of the item value
	JSONLabel  string   `yaml:"json_label" toml:"json_label"`
	JSONDetail []string `yaml:"json_detail" toml:"json_detail"`
}

// PipelineConfig holds the transformers and projectors.
type PipelineConfig struct {
	Sanitize    bool   `yaml:"sanitize" toml:"sanitize"`
	Redact      bool   `yaml:"redact" toml:"redact"`         // Mask credentials, flag destructive commands
	Unique      string `yaml:"unique" toml:"unique"`         // Attribute to dedupe on (empty = off)
	LuaScript   string `yaml:"lua_script" toml:"lua_script"` // Path of a Lua transform script
	Sort        string `yaml:"sort" toml:"sort"`             // Attribute to sort on (empty = off)
	SortReverse bool   `yaml:"sort_reverse" toml:"sort_reverse"`
	SortLocale  string `yaml:"sort_locale" toml:"sort_locale"` // BCP 47 tag for collation
	Filter      bool   `yaml:"filter" toml:"filter"`
}

// RenderConfig holds the selector renderers.
type RenderConfig struct {
	SmartPath bool `yaml:"smart_path" toml:"smart_path"`
	Truncate  bool `yaml:"truncate" toml:"truncate"`
}

// PreviewConfig selects the previewers.
type PreviewConfig struct {
	Kind       string `yaml:"kind" toml:"kind"` // file, detail, none
	PathAttr   string `yaml:"path_attr" toml:"path_attr"` // Detail keys of the file position
	LineAttr   string `yaml:"line_attr" toml:"line_attr"`
	ColumnAttr string `yaml:"column_attr" toml:"column_attr"`
}

// ActionConfig selects what happens to accepted items.
type ActionConfig struct {
	Kind        string `yaml:"kind" toml:"kind"` // print, yank, open
	OpenCommand string `yaml:"open_command" toml:"open_command"`
	PathAttr    string `yaml:"path_attr" toml:"path_attr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"` // debug, info, warn, error
	File  string `yaml:"file" toml:"file"`   // Log file path (overrides default)
}

// ResumeConfig holds the resume store settings.
type ResumeConfig struct {
	DBPath     string `yaml:"db_path" toml:"db_path"`           // Database path (overrides default)
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"` // Prune older records (0 = keep)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Picker: PickerConfig{
			Border:           "rounded",
			WidthRatio:       0.9,
			WidthMin:         80,
			WidthMax:         800,
			HeightRatio:      0.9,
			HeightMin:        5,
			HeightMax:        300,
			PreviewRatio:     0.65,
			RedrawIntervalMs: 16,
			HeadSymbol:       ">",
			FailSymbol:       "☓",
			AltScreen:        true,
		},
		Source: SourceConfig{
			Kind: "stdin",
		},
		Pipeline: PipelineConfig{
			Sanitize: true,
			Filter:   true,
		},
		Render: RenderConfig{
			Truncate: true,
		},
		Preview: PreviewConfig{
			Kind:       "file",
			PathAttr:   "path",
			LineAttr:   "line",
			ColumnAttr: "column",
		},
		Action: ActionConfig{
			Kind:     "print",
			PathAttr: "path",
		},
		Log: LogConfig{
			Level: "info",
		},
		Resume: ResumeConfig{
			MaxAgeDays: 30,
		},
	}
}

// Load loads configuration from SIFT_CONFIG or the default path.
func Load() (*Config, error) {
	if path := os.Getenv("SIFT_CONFIG"); path != "" {
		return LoadFromFile(path)
	}
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from the specified file. Files ending
// in .toml are TOML; anything else is YAML. If the file doesn't exist,
// returns the default configuration. Environment variable overrides are
// applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves the configuration to the specified file in the format
// its extension selects.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Get retrieves a configuration value by dot-separated key.
// For example: "picker.threshold" or "source.kind".
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "picker":
		return c.getPickerField(field)
	case "source":
		return c.getSourceField(field)
	case "pipeline":
		return c.getPipelineField(field)
	case "render":
		return c.getRenderField(field)
	case "preview":
		return c.getPreviewField(field)
	case "action":
		return c.getActionField(field)
	case "log":
		return c.getLogField(field)
	case "resume":
		return c.getResumeField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "picker":
		return c.setPickerField(field, value)
	case "source":
		return c.setSourceField(field, value)
	case "pipeline":
		return c.setPipelineField(field, value)
	case "render":
		return c.setRenderField(field, value)
	case "preview":
		return c.setPreviewField(field, value)
	case "action":
		return c.setActionField(field, value)
	case "log":
		return c.setLogField(field, value)
	case "resume":
		return c.setResumeField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	p := c.Picker
	if p.WidthRatio < 0 || p.HeightRatio < 0 {
		return errors.New("picker width_ratio and height_ratio must be >= 0")
	}
	if p.PreviewRatio < 0 || p.PreviewRatio >= 1 {
		return fmt.Errorf("picker.preview_ratio must be in [0, 1) (got: %g)", p.PreviewRatio)
	}
	if p.WidthMin < 0 || p.HeightMin < 0 {
		return errors.New("picker width_min and height_min must be >= 0")
	}
	if p.WidthMax > 0 && p.WidthMax < p.WidthMin {
		return errors.New("picker.width_max must be >= picker.width_min")
	}
	if p.HeightMax > 0 && p.HeightMax < p.HeightMin {
		return errors.New("picker.height_max must be >= picker.height_min")
	}
	if p.RedrawIntervalMs < 0 {
		return errors.New("picker.redraw_interval_ms must be >= 0")
	}
	if p.Threshold < 0 {
		return errors.New("picker.threshold must be >= 0")
	}
	if p.Scrolloff < 0 {
		return errors.New("picker.scrolloff must be >= 0")
	}
	if !isOneOf(p.Border, BorderStyles...) {
		return fmt.Errorf("picker.border must be one of %s (got: %s)", strings.Join(BorderStyles, ", "), p.Border)
	}
	if !isOneOf(c.Source.Kind, SourceKinds...) {
		return fmt.Errorf("source.kind must be one of %s (got: %s)", strings.Join(SourceKinds, ", "), c.Source.Kind)
	}
	if !isOneOf(c.Preview.Kind, PreviewKinds...) {
		return fmt.Errorf("preview.kind must be one of %s (got: %s)", strings.Join(PreviewKinds, ", "), c.Preview.Kind)
	}
	if !isOneOf(c.Action.Kind, ActionKinds...) {
		return fmt.Errorf("action.kind must be one of %s (got: %s)", strings.Join(ActionKinds, ", "), c.Action.Kind)
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	if c.Resume.MaxAgeDays < 0 {
		return errors.New("resume.max_age_days must be >= 0")
	}
	return nil
}

// Accepted enum values.
var (
	BorderStyles = []string{"none", "ascii", "single", "double", "rounded"}
	SourceKinds  = []string{"stdin", "command", "file", "walk", "history", "jsonl", "list"}
	PreviewKinds = []string{"file", "detail", "none"}
	ActionKinds  = []string{"print", "yank", "open"}
)

func isOneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func isValidLogLevel(level string) bool {
	return isOneOf(level, "debug", "info", "warn", "error")
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SIFT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SIFT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("SIFT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Picker.Threshold = n
		}
	}
}

// ListKeys returns the user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"picker.title",
		"picker.selectable",
		"picker.border",
		"picker.preview_ratio",
		"picker.redraw_interval_ms",
		"picker.threshold",
		"picker.scrolloff",
		"picker.alt_screen",
		"source.kind",
		"source.command",
		"source.path",
		"pipeline.sanitize",
		"pipeline.redact",
		"pipeline.unique",
		"pipeline.sort",
		"pipeline.sort_reverse",
		"pipeline.filter",
		"render.smart_path",
		"render.truncate",
		"preview.kind",
		"action.kind",
		"action.open_command",
		"log.level",
		"resume.max_age_days",
	}
}
