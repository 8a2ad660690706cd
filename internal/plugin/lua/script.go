package lua

import (
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/annomodel/internal/annotation"
)

// Result is one annotation returned by a script. Line is 0-indexed. Col is
// the 1-based byte column the annotation starts at, or 0 for the whole
// line; Len is its length in bytes, or -1 for the rest of the line.
type Result struct {
	Line uint32
	Col  int
	Len  int
	Kind annotation.Kind
	Text string
}

// Script is a loaded annotation script with its own Lua state.
type Script struct {
	name  string
	state *State
}

// Load runs the script at path and checks that it defines annotate.
func Load(path string, opts ...StateOption) (*Script, error) {
	s := &Script{name: filepath.Base(path), state: NewState(opts...)}
	if err := s.state.DoFile(path); err != nil {
		s.Close()
		return nil, err
	}
	return s.checked()
}

// LoadString is Load for a script held in memory.
func LoadString(name, code string, opts ...StateOption) (*Script, error) {
	s := &Script{name: name, state: NewState(opts...)}
	if err := s.state.DoString(code); err != nil {
		s.Close()
		return nil, err
	}
	return s.checked()
}

func (s *Script) checked() (*Script, error) {
	if !s.state.HasFunction("annotate") {
		s.Close()
		return nil, ErrNoAnnotate
	}
	return s, nil
}

// Name returns the script's file name.
func (s *Script) Name() string {
	return s.name
}

// Annotate calls the script's annotate function with lines.
func (s *Script) Annotate(lines []string) ([]Result, error) {
	var out []Result
	err := s.state.run(func() error {
		L := s.state.L
		arg := L.NewTable()
		for _, l := range lines {
			arg.Append(lua.LString(l))
		}
		if err := L.CallByParam(lua.P{Fn: L.GetGlobal("annotate"), NRet: 1, Protect: true}, arg); err != nil {
			return err
		}
		ret := L.Get(-1)
		L.Pop(1)

		if ret == lua.LNil {
			return nil
		}
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return &ResultError{Script: s.name, Reason: "annotate must return a table, got " + ret.Type().String()}
		}
		out = make([]Result, 0, tbl.Len())
		for i := 1; i <= tbl.Len(); i++ {
			r, err := s.result(i, tbl.RawGetInt(i))
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Script) result(i int, v lua.LValue) (Result, error) {
	fail := func(reason string) (Result, error) {
		return Result{}, &ResultError{Script: s.name, Index: i, Reason: reason}
	}

	entry, ok := v.(*lua.LTable)
	if !ok {
		return fail("entry is not a table")
	}
	line, ok := entry.RawGetString("line").(lua.LNumber)
	if !ok || line < 1 {
		return fail("line must be a number >= 1")
	}

	r := Result{Line: uint32(line) - 1, Len: -1, Kind: annotation.KindInfo}
	switch k := entry.RawGetString("kind").(type) {
	case *lua.LNilType:
	case lua.LString:
		kind, ok := annotation.ParseKind(string(k))
		if !ok {
			return fail("unknown kind " + string(k))
		}
		r.Kind = kind
	default:
		return fail("kind must be a string")
	}
	if text := entry.RawGetString("text"); text != lua.LNil {
		r.Text = text.String()
	}
	if col, ok := entry.RawGetString("col").(lua.LNumber); ok {
		if col < 1 {
			return fail("col must be >= 1")
		}
		r.Col = int(col)
	}
	if n, ok := entry.RawGetString("len").(lua.LNumber); ok {
		if n < 0 {
			return fail("len must be >= 0")
		}
		r.Len = int(n)
	}
	return r, nil
}

// Close releases the script's Lua state.
func (s *Script) Close() {
	s.state.Close()
}
