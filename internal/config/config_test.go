package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/logging"
	"github.com/dshills/annomodel/internal/renderer/gutter"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "annoview.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Gutter.LineNumbers || !cfg.Gutter.Signs {
		t.Error("gutter should show numbers and signs by default")
	}
	if diff := cmp.Diff([]string{"TODO", "FIXME"}, cfg.Tasks.Markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	if cfg.LogLevel() != logging.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "nope.toml"), noEnv)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if _, err := load("", noEnv); err != nil {
		t.Errorf("empty path should not fail: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[gutter]
relative_numbers = true
min_number_width = 5

[signs]
task = "bookmark"
range = "info"

[view]
tab_width = 2

[tasks]
markers = ["XXX"]

[scripts]
files = ["lint.lua", "/opt/annoview/spell.lua"]

[log]
level = "debug"
file = "/tmp/annoview.log"
`)

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Gutter.RelativeNumbers = true
	want.Gutter.MinNumberWidth = 5
	want.Signs = map[string]string{"task": "bookmark", "range": "info"}
	want.View.TabWidth = 2
	want.Tasks.Markers = []string{"XXX"}
	want.Scripts.Files = []string{filepath.Join(filepath.Dir(path), "lint.lua"), "/opt/annoview/spell.lua"}
	want.Log = LogConfig{Level: "debug", File: "/tmp/annoview.log"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	signs := cfg.KindSigns()
	if signs[annotation.KindTask] != gutter.SignBookmark || signs[annotation.KindRange] != gutter.SignInfo {
		t.Errorf("KindSigns overrides not applied: %v", signs)
	}
	if signs[annotation.KindError] != gutter.SignError {
		t.Error("KindSigns lost a default")
	}

	g := cfg.GutterSettings()
	if !g.RelativeLineNumbers || g.MinLineNumberWidth != 5 || !g.ShowSigns {
		t.Errorf("GutterSettings = %+v", g)
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "[gutter]\nsigns = \n")

	_, err := load(path, noEnv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != path || pe.Line == 0 {
		t.Errorf("ParseError = %+v", pe)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "[gutter]\nline_numbrs = false\n")

	_, err := load(path, noEnv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestLoadInvalidSigns(t *testing.T) {
	path := writeConfig(t, "[signs]\nbanana = \"error\"\nerror = \"skull\"\n")

	_, err := load(path, noEnv)
	if !errors.Is(err, ErrUnknownKind) || !errors.Is(err, ErrUnknownSign) {
		t.Errorf("expected both validation errors, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"debug\"\n")
	env := envMap(map[string]string{
		"ANNOVIEW_LOG_LEVEL":           "warn",
		"ANNOVIEW_LOG_FILE":            "/var/log/annoview.log",
		"ANNOVIEW_GUTTER_SIGNS":        "false",
		"ANNOVIEW_GUTTER_LINE_NUMBERS": "0",
		"ANNOVIEW_TASK_MARKERS":        "HACK, NOTE,,",
		"ANNOVIEW_SCRIPTS":             "a.lua,b.lua",
		"ANNOVIEW_TAB_WIDTH":           " 8",
	})

	cfg, err := load(path, env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel() != logging.LevelWarn || cfg.Log.File != "/var/log/annoview.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Gutter.Signs || cfg.Gutter.LineNumbers {
		t.Errorf("gutter = %+v", cfg.Gutter)
	}
	if diff := cmp.Diff([]string{"HACK", "NOTE"}, cfg.Tasks.Markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.lua", "b.lua"}, cfg.Scripts.Files); diff != "" {
		t.Errorf("scripts mismatch (-want +got):\n%s", diff)
	}
	if cfg.View.TabWidth != 8 {
		t.Errorf("TabWidth = %d, want 8", cfg.View.TabWidth)
	}
}

func TestTabWidthValidation(t *testing.T) {
	tests := []struct {
		name string
		load func() error
	}{
		{"file", func() error {
			_, err := load(writeConfig(t, "[view]\ntab_width = 0\n"), noEnv)
			return err
		}},
		{"env", func() error {
			_, err := load("", envMap(map[string]string{"ANNOVIEW_TAB_WIDTH": "wide"}))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.load(); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("err = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestEnvInvalidBool(t *testing.T) {
	_, err := load("", envMap(map[string]string{"ANNOVIEW_GUTTER_SIGNS": "maybe"}))
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Signs["task"] = "info"
	c := cfg.Clone()
	c.Signs["task"] = "error"
	c.Tasks.Markers[0] = "XXX"

	if cfg.Signs["task"] != "info" || cfg.Tasks.Markers[0] != "TODO" {
		t.Error("Clone shares state with the original")
	}
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "a.toml", Line: 3, Column: 7, Message: "bad"}, "parse error in a.toml at line 3, column 7: bad"},
		{&ParseError{Path: "a.toml", Line: 3, Message: "bad"}, "parse error in a.toml at line 3: bad"},
		{&ParseError{Path: "a.toml", Message: "bad"}, "parse error in a.toml: bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"info\"\n")

	got := make(chan Config, 4)
	w, err := Watch(path, func(cfg Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[log]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Log.Level != "error" {
			t.Errorf("reloaded level = %q", cfg.Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWatchNoPath(t *testing.T) {
	if _, err := Watch("", func(Config, error) {}); err == nil {
		t.Error("Watch(\"\") should fail")
	}
}
