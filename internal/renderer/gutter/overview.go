package gutter

// Overview maps the signs of a whole document onto a fixed number of rows,
// like a scrollbar that shows where the errors are.
type Overview struct {
	signs SignProvider
}

// NewOverview creates an overview ruler over signs.
func NewOverview(signs SignProvider) *Overview {
	return &Overview{signs: signs}
}

// Rows returns height rows, each holding the most severe sign among the
// lines that fall into it. Lines past lineCount are ignored.
func (o *Overview) Rows(lineCount uint32, height int) []SignType {
	if height <= 0 {
		return nil
	}
	rows := make([]SignType, height)
	if lineCount == 0 {
		return rows
	}

	for _, s := range o.signs.AllSigns() {
		if s.Line >= lineCount {
			continue
		}
		row := RowForLine(s.Line, lineCount, height)
		if signPriority(s.Type) > signPriority(rows[row]) {
			rows[row] = s.Type
		}
	}
	return rows
}

// RowForLine returns the ruler row of line. Every row covers the same share
// of the document, so short documents spread over the whole ruler.
func RowForLine(line, lineCount uint32, height int) int {
	if lineCount == 0 || height <= 0 {
		return 0
	}
	row := int(uint64(line) * uint64(height) / uint64(lineCount))
	return min(row, height-1)
}

// LineForRow returns the first line shown in row. The viewer uses it to
// jump when the ruler is clicked.
func LineForRow(row int, lineCount uint32, height int) uint32 {
	if lineCount == 0 || height <= 0 || row <= 0 {
		return 0
	}
	row = min(row, height-1)
	line := (uint64(row)*uint64(lineCount) + uint64(height) - 1) / uint64(height)
	return uint32(min(line, uint64(lineCount-1)))
}
