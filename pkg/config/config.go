// Package config loads fsmd configuration from TOML or YAML files, a .env
// file and FSMD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/render"
)

// ErrUnknownFormat is returned for config files that are neither TOML
// nor YAML.
var ErrUnknownFormat = errors.New("unknown config file format")

// Config is the complete fsmd configuration.
type Config struct {
	Designer DesignerConfig `toml:"designer" yaml:"designer"`
	Theme    ThemeConfig    `toml:"theme" yaml:"theme"`
	Export   ExportConfig   `toml:"export" yaml:"export"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	VHDL     VHDLConfig     `toml:"vhdl" yaml:"vhdl"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// DesignerConfig tunes editing behavior.
type DesignerConfig struct {
	SnapPadding     float64 `toml:"snap_padding" yaml:"snap_padding"`
	HitPadding      float64 `toml:"hit_padding" yaml:"hit_padding"`
	UndoHistory     int     `toml:"undo_history" yaml:"undo_history"`
	TextUndoDelayMS int     `toml:"text_undo_delay_ms" yaml:"text_undo_delay_ms"`
	CaretBlinkMS    int     `toml:"caret_blink_ms" yaml:"caret_blink_ms"`
	NodeRadius      float64 `toml:"node_radius" yaml:"node_radius"`
}

// ThemeConfig holds colors (names or #rrggbb) and font sizes in pixels.
type ThemeConfig struct {
	Foreground     string  `toml:"foreground" yaml:"foreground"`
	Background     string  `toml:"background" yaml:"background"`
	Selected       string  `toml:"selected" yaml:"selected"`
	Output         string  `toml:"output" yaml:"output"`
	NodeFontSize   float64 `toml:"node_font_size" yaml:"node_font_size"`
	OutputFontSize float64 `toml:"output_font_size" yaml:"output_font_size"`
	LinkFontSize   float64 `toml:"link_font_size" yaml:"link_font_size"`
}

// ExportConfig sizes exported images.
type ExportConfig struct {
	Width      int     `toml:"width" yaml:"width"`
	Height     int     `toml:"height" yaml:"height"`
	LaTeXScale float64 `toml:"latex_scale" yaml:"latex_scale"`
}

// StoreConfig selects the autosave backend.
type StoreConfig struct {
	Driver     string `toml:"driver" yaml:"driver"` // file, memory, sqlite, redis, mongo
	Path       string `toml:"path" yaml:"path"`
	URL        string `toml:"url" yaml:"url"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
	Key        string `toml:"key" yaml:"key"`
}

// ServerConfig configures fsmd serve.
type ServerConfig struct {
	Addr               string  `toml:"addr" yaml:"addr"`
	RateLimit          float64 `toml:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	Burst              int     `toml:"burst" yaml:"burst"`
	Converter          string  `toml:"converter" yaml:"converter"`
	ConverterTimeoutMS int     `toml:"converter_timeout_ms" yaml:"converter_timeout_ms"`
	MaxExportWidth     int     `toml:"max_export_width" yaml:"max_export_width"` // pixels, 0 means no limit
	MaxExportHeight    int     `toml:"max_export_height" yaml:"max_export_height"`
}

// VHDLConfig points at a VHDL generation service.
type VHDLConfig struct {
	URL       string `toml:"url" yaml:"url"`
	TimeoutMS int    `toml:"timeout_ms" yaml:"timeout_ms"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Designer: DesignerConfig{
			SnapPadding:     diagram.DefaultSnapPadding,
			HitPadding:      diagram.DefaultHitPadding,
			UndoHistory:     32,
			TextUndoDelayMS: 2000,
			CaretBlinkMS:    500,
			NodeRadius:      diagram.DefaultRadius,
		},
		Theme: ThemeConfig{
			Foreground:     "black",
			Background:     "white",
			Selected:       "blue",
			Output:         "#101010",
			NodeFontSize:   16,
			OutputFontSize: 20,
			LinkFontSize:   16,
		},
		Export: ExportConfig{Width: 800, Height: 600, LaTeXScale: render.DefaultLaTeXScale},
		Store:  StoreConfig{Driver: "file", Key: "fsm", Database: "fsmd", Collection: "autosave"},
		Server: ServerConfig{
			Addr:               ":8080",
			RateLimit:          10,
			Burst:              20,
			Converter:          "fsmconv -f fsmd",
			ConverterTimeoutMS: 30000,
			MaxExportWidth:     8192,
			MaxExportHeight:    8192,
		},
		VHDL: VHDLConfig{URL: "http://localhost:8080/genhdl", TimeoutMS: 30000},
		Log:  LogConfig{Level: "info"},
	}
}

// Dir returns the fsmd config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fsmd")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path over the defaults, then applies .env and
// environment overrides. An empty path reads DefaultPath and tolerates its
// absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(cfg, filepath.Ext(path), data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	_ = godotenv.Load()
	ApplyEnv(cfg, os.Getenv)
	return cfg, nil
}

// Decode parses data into cfg according to the file extension.
func Decode(cfg *Config, ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".toml", "":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// ApplyEnv overrides settings from FSMD_* variables looked up with getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	strs := map[string]*string{
		"FSMD_STORE_DRIVER":     &cfg.Store.Driver,
		"FSMD_STORE_PATH":       &cfg.Store.Path,
		"FSMD_STORE_URL":        &cfg.Store.URL,
		"FSMD_STORE_DATABASE":   &cfg.Store.Database,
		"FSMD_STORE_COLLECTION": &cfg.Store.Collection,
		"FSMD_STORE_KEY":        &cfg.Store.Key,
		"FSMD_SERVER_ADDR":      &cfg.Server.Addr,
		"FSMD_SERVER_CONVERTER": &cfg.Server.Converter,
		"FSMD_VHDL_URL":         &cfg.VHDL.URL,
		"FSMD_LOG_LEVEL":        &cfg.Log.Level,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FSMD_EXPORT_WIDTH":  &cfg.Export.Width,
		"FSMD_EXPORT_HEIGHT": &cfg.Export.Height,
		"FSMD_UNDO_HISTORY":  &cfg.Designer.UndoHistory,

		"FSMD_SERVER_MAX_EXPORT_WIDTH":  &cfg.Server.MaxExportWidth,
		"FSMD_SERVER_MAX_EXPORT_HEIGHT": &cfg.Server.MaxExportHeight,
	}
	for name, dst := range ints {
		if v := getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v := getenv("FSMD_SERVER_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = f
		}
	}
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Save writes cfg as TOML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}

// TextUndoDelay returns the typing-burst idle gap.
func (d DesignerConfig) TextUndoDelay() time.Duration {
	return time.Duration(d.TextUndoDelayMS) * time.Millisecond
}

// CaretBlink returns the caret blink interval.
func (d DesignerConfig) CaretBlink() time.Duration {
	return time.Duration(d.CaretBlinkMS) * time.Millisecond
}

// ConverterTimeout returns how long /genhdl waits for the converter.
func (s ServerConfig) ConverterTimeout() time.Duration {
	return time.Duration(s.ConverterTimeoutMS) * time.Millisecond
}

// Timeout returns the VHDL client request timeout.
func (v VHDLConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutMS) * time.Millisecond
}

// Build turns the theme settings into a diagram theme.
func (t ThemeConfig) Build() (*diagram.Theme, error) {
	th := diagram.DefaultTheme()
	colors := []struct {
		value string
		dst   *render.Color
	}{
		{t.Foreground, &th.Foreground},
		{t.Background, &th.Background},
		{t.Selected, &th.Selected},
		{t.Output, &th.Output},
	}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		parsed, err := render.Hex(c.value)
		if err != nil {
			return nil, fmt.Errorf("theme: %w", err)
		}
		*c.dst = parsed
	}
	if t.NodeFontSize > 0 {
		th.NodeFont.Size = t.NodeFontSize
	}
	if t.OutputFontSize > 0 {
		th.OutputFont.Size = t.OutputFontSize
	}
	if t.LinkFontSize > 0 {
		th.LinkFont.Size = t.LinkFontSize
	}
	return th, nil
}

// ExportOptions converts the export settings for diagram.Export.
func (c *Config) ExportOptions() (diagram.ExportOptions, error) {
	th, err := c.Theme.Build()
	if err != nil {
		return diagram.ExportOptions{}, err
	}
	return diagram.ExportOptions{
		Width:      c.Export.Width,
		Height:     c.Export.Height,
		LaTeXScale: c.Export.LaTeXScale,
		Theme:      th,
	}, nil
}
