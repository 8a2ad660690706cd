package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANNOVIEW_"

// Load reads the TOML file at path on top of Default, then applies
// environment overrides and validates the result. A missing file, or an
// empty path, is not an error.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := parse(path, data, &cfg); err != nil {
				return Config{}, err
			}
			resolveScripts(&cfg, filepath.Dir(path))
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// parse decodes data into cfg. Keys that cfg does not know are an error,
// so typos do not pass silently.
func parse(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(cfg)
	if err == nil {
		return nil
	}

	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	var serr *toml.StrictMissingError
	switch {
	case errors.As(err, &derr):
		pe.Line, pe.Column = derr.Position()
	case errors.As(err, &serr) && len(serr.Errors) > 0:
		pe.Line, pe.Column = serr.Errors[0].Position()
	}
	return pe
}

// applyEnv applies the ANNOVIEW_ overrides found through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if err := envBool(lookup, EnvPrefix+"GUTTER_SIGNS", &cfg.Gutter.Signs); err != nil {
		return err
	}
	if err := envBool(lookup, EnvPrefix+"GUTTER_LINE_NUMBERS", &cfg.Gutter.LineNumbers); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "TAB_WIDTH"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sTAB_WIDTH=%q: %w", EnvPrefix, v, ErrInvalidValue)
		}
		cfg.View.TabWidth = n
	}
	if v, ok := lookup(EnvPrefix + "TASK_MARKERS"); ok {
		cfg.Tasks.Markers = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "SCRIPTS"); ok {
		cfg.Scripts.Files = splitList(v)
	}
	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func resolveScripts(cfg *Config, dir string) {
	for i, f := range cfg.Scripts.Files {
		if !filepath.IsAbs(f) {
			cfg.Scripts.Files[i] = filepath.Join(dir, f)
		}
	}
}

func envBool(lookup func(string) (string, bool), name string, dst *bool) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s=%q: %w", name, v, ErrInvalidValue)
	}
	*dst = b
	return nil
}
