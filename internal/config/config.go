// Package config loads the viewer's settings from a TOML file with
// ANNOVIEW_ environment overrides, and can watch the file for changes.
package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/logging"
	"github.com/dshills/annomodel/internal/renderer/gutter"
)

// Config is the complete viewer configuration.
type Config struct {
	Gutter GutterConfig `toml:"gutter"`

	// Signs maps annotation kind names to gutter sign names, e.g.
	// task = "bookmark". Kinds not listed keep their default sign.
	Signs map[string]string `toml:"signs"`

	View    ViewConfig    `toml:"view"`
	Tasks   TasksConfig   `toml:"tasks"`
	Scripts ScriptsConfig `toml:"scripts"`
	Log     LogConfig     `toml:"log"`
}

// ViewConfig controls how buffer text is drawn.
type ViewConfig struct {
	TabWidth int `toml:"tab_width"`
}

// GutterConfig controls the gutter column.
type GutterConfig struct {
	LineNumbers     bool `toml:"line_numbers"`
	RelativeNumbers bool `toml:"relative_numbers"`
	Signs           bool `toml:"signs"`
	MinNumberWidth  int  `toml:"min_number_width"`
}

// TasksConfig controls which comment markers become task annotations.
type TasksConfig struct {
	Markers []string `toml:"markers"`
}

// ScriptsConfig lists Lua annotation scripts. Relative paths are resolved
// against the directory of the config file.
type ScriptsConfig struct {
	Files []string `toml:"files"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`

	// File is the log destination. Empty disables logging, since the
	// terminal is taken by the viewer.
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Gutter: GutterConfig{
			LineNumbers:    true,
			Signs:          true,
			MinNumberWidth: 3,
		},
		Signs: map[string]string{},
		View:  ViewConfig{TabWidth: 4},
		Tasks: TasksConfig{Markers: []string{"TODO", "FIXME"}},
		Log:   LogConfig{Level: "info"},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.Signs = maps.Clone(c.Signs)
	c.Tasks.Markers = slices.Clone(c.Tasks.Markers)
	c.Scripts.Files = slices.Clone(c.Scripts.Files)
	return c
}

// Validate checks the sign table and the view settings. All problems are
// reported together.
func (c Config) Validate() error {
	var errs []error
	if c.View.TabWidth < 1 {
		errs = append(errs, fmt.Errorf("view.tab_width = %d: %w", c.View.TabWidth, ErrInvalidValue))
	}
	for _, kind := range slices.Sorted(maps.Keys(c.Signs)) {
		if _, ok := annotation.ParseKind(kind); !ok {
			errs = append(errs, fmt.Errorf("signs.%s: %w", kind, ErrUnknownKind))
		}
		if _, ok := gutter.ParseSignType(c.Signs[kind]); !ok {
			errs = append(errs, fmt.Errorf("signs.%s = %q: %w", kind, c.Signs[kind], ErrUnknownSign))
		}
	}
	return errors.Join(errs...)
}

// KindSigns returns the gutter's default kind to sign table with the
// configured overrides applied. Invalid entries are skipped; call Validate
// to report them.
func (c Config) KindSigns() map[annotation.Kind]gutter.SignType {
	m := gutter.DefaultKindSigns()
	for name, sign := range c.Signs {
		kind, ok := annotation.ParseKind(name)
		if !ok {
			continue
		}
		st, ok := gutter.ParseSignType(sign)
		if !ok {
			continue
		}
		m[kind] = st
	}
	return m
}

// GutterSettings converts the gutter section for gutter.New.
func (c Config) GutterSettings() gutter.Config {
	g := gutter.DefaultConfig()
	g.ShowLineNumbers = c.Gutter.LineNumbers
	g.RelativeLineNumbers = c.Gutter.RelativeNumbers
	g.ShowSigns = c.Gutter.Signs
	if c.Gutter.MinNumberWidth > 0 {
		g.MinLineNumberWidth = c.Gutter.MinNumberWidth
	}
	return g
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
