// Package config loads and saves the compiler's persistent settings (output
// defaults, parse-error limits, diagnostic display) as a TOML file.
// Grounded on the teacher's config.Config: a struct of nested tables decoded
// with BurntSushi/toml, a platform-specific default path under the user's
// config directory, and a default-on-missing-file Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the compiler's settings. The driver reads Output.Path,
// Output.FileMode, Limits.MaxParseErrors and Diagnostics.ColorOutput; the
// other fields are loaded and saved but not consulted.
type Config struct {
	// Output settings control what the compiler produces and where.
	Output struct {
		Path        string `toml:"path" yaml:"path"`                   // default output executable name
		EntrySymbol string `toml:"entry_symbol" yaml:"entry_symbol"`   // not consulted: the _start stub always calls main
		FileMode    int    `toml:"file_mode" yaml:"file_mode"`         // POSIX mode for the written executable
	} `toml:"output" yaml:"output"`

	// Limits bound the compiler's tolerance for malformed input before it
	// gives up rather than flooding the user with cascading diagnostics.
	Limits struct {
		MaxParseErrors int `toml:"max_parse_errors" yaml:"max_parse_errors"`
		MaxCallArgs    int `toml:"max_call_args" yaml:"max_call_args"`
	} `toml:"limits" yaml:"limits"`

	// Diagnostics controls how errors and warnings are printed.
	Diagnostics struct {
		ColorOutput bool `toml:"color_output" yaml:"color_output"`
		ShowSource  bool `toml:"show_source" yaml:"show_source"`
	} `toml:"diagnostics" yaml:"diagnostics"`

	// Trace names the optional pre-codegen dumps (tokens, AST, lowered
	// instructions). The driver does not read it; the dumps are switched on
	// by its --tokens, --ast and --code flags.
	Trace struct {
		Tokens bool   `toml:"tokens" yaml:"tokens"`
		AST    bool   `toml:"ast" yaml:"ast"`
		Code   bool   `toml:"code" yaml:"code"`
		File   string `toml:"file" yaml:"file"` // empty means stderr
	} `toml:"trace" yaml:"trace"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Output.Path = "a.out"
	cfg.Output.EntrySymbol = "main"
	cfg.Output.FileMode = 0o755

	cfg.Limits.MaxParseErrors = 20
	cfg.Limits.MaxCallArgs = 4

	cfg.Diagnostics.ColorOutput = true
	cfg.Diagnostics.ShowSource = true

	cfg.Trace.Tokens = false
	cfg.Trace.AST = false
	cfg.Trace.Code = false
	cfg.Trace.File = ""

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "nxc")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "nxc")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is
// not an error: the caller gets default settings. The file format is chosen
// by extension: ".yaml"/".yml" decodes as YAML, anything else as TOML.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if isYAMLPath(path) {
		data, err := os.ReadFile(path) // #nosec G304 -- user config file path
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file, in YAML or TOML
// depending on its extension (see LoadFrom).
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if isYAMLPath(path) {
		data, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		return nil
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
