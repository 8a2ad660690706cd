// Package lua runs user annotation scripts in a sandboxed gopher-lua state.
//
// A script defines a global annotate function. It receives the buffer's
// lines as a table of strings and returns a list of tables:
//
//	function annotate(lines)
//	  local out = {}
//	  for i, l in ipairs(lines) do
//	    if #l > 100 then
//	      table.insert(out, {line = i, kind = "warning", text = "long line"})
//	    end
//	  end
//	  return out
//	end
//
// line is 1-based. kind is an annotation kind name and defaults to info.
// Optional col and len narrow the annotation to part of the line.
//
// The state opens only the base, table, string and math libraries and
// removes dofile, loadfile, load and require. print goes to the logger.
package lua
