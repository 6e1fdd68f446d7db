package doctree

import "strings"

// Alignment is the horizontal alignment of a paragraph.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustified
)

var alignmentNames = [...]string{"LEFT", "CENTER", "RIGHT", "JUSTIFIED"}

func (a Alignment) String() string {
	if a < 0 || int(a) >= len(alignmentNames) {
		return "LEFT"
	}
	return alignmentNames[a]
}

// ParseAlignment maps an alignment name to an Alignment. Unknown names are LEFT.
func ParseAlignment(s string) Alignment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CENTER", "CENTRE":
		return AlignCenter
	case "RIGHT", "END":
		return AlignRight
	case "JUSTIFIED", "JUSTIFY", "BOTH", "DISTRIBUTE":
		return AlignJustified
	}
	return AlignLeft
}

// Color is an RGB color with channels in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Run is a styled contiguous span of text. Nil style fields mean "not set".
type Run struct {
	Text       string   `json:"text"`
	Bold       *bool    `json:"bold,omitempty"`
	Underline  *bool    `json:"underline,omitempty"`
	FontSize   *float64 `json:"font_size,omitempty"` // points
	FontFamily string   `json:"font_family,omitempty"`
	Foreground *Color   `json:"foreground,omitempty"`
	Background *Color   `json:"background,omitempty"`
}

// IsBold reports whether bold is set and true.
func (r Run) IsBold() bool { return r.Bold != nil && *r.Bold }

// IsUnderlined reports whether underline is set and true.
func (r Run) IsUnderlined() bool { return r.Underline != nil && *r.Underline }

// Block is one structural unit of a document: *Paragraph or *Table.
type Block interface {
	block()
}

// Paragraph is a sequence of runs with an alignment.
type Paragraph struct {
	Runs           []Run     `json:"runs"`
	Alignment      Alignment `json:"alignment"`
	HorizontalRule bool      `json:"horizontal_rule,omitempty"`
}

func (*Paragraph) block() {}

// FirstRun returns the first run, if any.
func (p *Paragraph) FirstRun() (Run, bool) {
	if p == nil || len(p.Runs) == 0 {
		return Run{}, false
	}
	return p.Runs[0], true
}

// Text concatenates the text of all runs.
func (p *Paragraph) Text() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Table is a grid of cells.
type Table struct {
	Rows []Row `json:"rows"`
}

func (*Table) block() {}

// FirstCell returns the top-left cell, if any.
func (t *Table) FirstCell() (Cell, bool) {
	if t == nil || len(t.Rows) == 0 || len(t.Rows[0].Cells) == 0 {
		return Cell{}, false
	}
	return t.Rows[0].Cells[0], true
}

// Columns returns the cell count of the widest row.
func (t *Table) Columns() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, r := range t.Rows {
		if len(r.Cells) > n {
			n = len(r.Cells)
		}
	}
	return n
}

// Row is one table row.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Cell owns its own block sequence.
type Cell struct {
	Blocks     Blocks `json:"blocks"`
	Background *Color `json:"background,omitempty"`
}

// FirstParagraph returns the first paragraph block of the cell, if any.
func (c Cell) FirstParagraph() (*Paragraph, bool) {
	for _, b := range c.Blocks {
		if p, ok := b.(*Paragraph); ok && p != nil {
			return p, true
		}
	}
	return nil, false
}

// Text joins the text of the paragraphs in the cell with newlines.
func (c Cell) Text() string {
	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if p, ok := b.(*Paragraph); ok {
			parts = append(parts, p.Text())
		}
	}
	return strings.Join(parts, "\n")
}

// Bool returns a pointer to v, for building runs.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for building runs.
func Float(v float64) *float64 { return &v }
