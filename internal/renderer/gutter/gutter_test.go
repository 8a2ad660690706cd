package gutter

import (
	"sync"
	"testing"
)

// numberText returns the line number part of a rendered gutter line.
func numberText(g *Gutter, cells []Cell) string {
	start := 0
	if cfg := g.Config(); cfg.ShowSigns {
		start = cfg.SignColumnWidth
	}
	s := ""
	for _, c := range cells[start : len(cells)-1] {
		s += string(c.Rune)
	}
	return s
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.ShowLineNumbers || !cfg.ShowSigns {
		t.Error("line numbers and signs should be shown by default")
	}
	if cfg.RelativeLineNumbers {
		t.Error("RelativeLineNumbers should be false by default")
	}
	if cfg.MinLineNumberWidth != 3 {
		t.Errorf("expected MinLineNumberWidth 3, got %d", cfg.MinLineNumberWidth)
	}
	if cfg.SignColumnWidth != 2 {
		t.Errorf("expected SignColumnWidth 2, got %d", cfg.SignColumnWidth)
	}
}

func TestGutterWidth(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		lineCount uint32
		want      int
	}{
		{"default", func(*Config) {}, 10, 6},
		{"wide count", func(*Config) {}, 100000, 9},
		{"fixed", func(c *Config) { c.LineNumberWidth = 5 }, 1000000, 8},
		{"numbers only", func(c *Config) { c.ShowSigns = false }, 1000, 5},
		{"signs only", func(c *Config) { c.ShowLineNumbers = false }, 1000, 3},
		{"nothing", func(c *Config) { c.ShowLineNumbers, c.ShowSigns = false, false }, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			g := New(cfg)
			g.SetLineCount(tt.lineCount)
			if got := g.Width(); got != tt.want {
				t.Errorf("Width() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGutterRenderLine(t *testing.T) {
	g := New(DefaultConfig())
	g.SetLineCount(100)
	g.SetCurrentLine(5)

	cells := g.RenderLine(10, true)
	if len(cells) != g.Width() {
		t.Fatalf("got %d cells, want %d", len(cells), g.Width())
	}
	if got := numberText(g, cells); got != " 11" {
		t.Errorf("expected ' 11', got %q", got)
	}
	if cells[len(cells)-1].Rune != ' ' {
		t.Error("last column should be the separator")
	}
}

func TestGutterRenderCurrentLine(t *testing.T) {
	g := New(DefaultConfig())
	g.SetLineCount(100)
	g.SetCurrentLine(10)

	cells := g.RenderLine(10, true)
	if cells[g.Config().SignColumnWidth].Style != StyleCurrentLine {
		t.Errorf("expected StyleCurrentLine, got %v", cells[2].Style)
	}
	cells = g.RenderLine(11, true)
	if cells[g.Config().SignColumnWidth].Style != StyleDim {
		t.Errorf("expected StyleDim, got %v", cells[2].Style)
	}
}

func TestGutterRenderNonVisibleLine(t *testing.T) {
	g := New(DefaultConfig())
	g.SetLineCount(100)

	cells := g.RenderLine(100, false)
	if got := numberText(g, cells); got != "  ~" {
		t.Errorf("expected '  ~', got %q", got)
	}
}

func TestGutterRelativeLineNumbers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RelativeLineNumbers = true
	g := New(cfg)
	g.SetLineCount(100)
	g.SetCurrentLine(50)

	tests := []struct {
		line uint32
		want string
	}{
		{50, " 51"},
		{48, "  2"},
		{52, "  2"},
	}
	for _, tt := range tests {
		if got := numberText(g, g.RenderLine(tt.line, true)); got != tt.want {
			t.Errorf("line %d: got %q, want %q", tt.line, got, tt.want)
		}
	}
}

type staticSigns []Sign

func (s staticSigns) SignsForLine(line uint32) []Sign {
	var out []Sign
	for _, sign := range s {
		if sign.Line == line {
			out = append(out, sign)
		}
	}
	return out
}

func (s staticSigns) AllSigns() []Sign {
	return s
}

func TestGutterRenderSign(t *testing.T) {
	g := New(DefaultConfig())
	g.SetLineCount(10)
	g.SetSignProvider(staticSigns{
		{Line: 2, Type: SignAdded},
		{Line: 2, Type: SignError},
		{Line: 3, Type: SignTask},
	})

	tests := []struct {
		line  uint32
		rune  rune
		style CellStyle
	}{
		{1, ' ', StyleNormal},
		{2, 'E', StyleError},
		{3, 'T', StyleTask},
	}
	for _, tt := range tests {
		cell := g.RenderLine(tt.line, true)[0]
		if cell.Rune != tt.rune || cell.Style != tt.style {
			t.Errorf("line %d: got %q/%v, want %q/%v", tt.line, cell.Rune, cell.Style, tt.rune, tt.style)
		}
	}

	if cell := g.RenderLine(2, false)[0]; cell.Rune != ' ' {
		t.Errorf("non-visible line shows sign %q", cell.Rune)
	}
}

func TestSignTypeNames(t *testing.T) {
	for st := SignNone; st <= SignDeleted; st++ {
		got, ok := ParseSignType(st.String())
		if !ok || got != st {
			t.Errorf("ParseSignType(%q) = %v, %v", st.String(), got, ok)
		}
	}
	if _, ok := ParseSignType("breakpoint"); ok {
		t.Error("ParseSignType accepted an unknown name")
	}
}

func TestHighestPriority(t *testing.T) {
	got := HighestPriority([]Sign{{Type: SignAdded}, {Type: SignWarning}, {Type: SignBookmark}})
	if got.Type != SignWarning {
		t.Errorf("HighestPriority = %v, want warning", got.Type)
	}
	if HighestPriority(nil).Type != SignNone {
		t.Error("empty input should give SignNone")
	}
}

func TestPadLeft(t *testing.T) {
	if got := PadLeft("7", 3); got != "  7" {
		t.Errorf("PadLeft = %q", got)
	}
	if got := PadLeft("1234", 3); got != "1234" {
		t.Errorf("PadLeft = %q", got)
	}
}

func TestGutterConcurrency(t *testing.T) {
	g := New(DefaultConfig())
	g.SetLineCount(1000)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = g.Width()
			_ = g.RenderLine(uint32(i%100), true)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			g.SetCurrentLine(uint32(i % 100))
			g.SetLineCount(uint32(500 + i))
		}
	}()
	wg.Wait()
}
