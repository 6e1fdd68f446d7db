package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (doctree.Blocks, error) {
	// go-docx needs a ReaderAt and size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx %s: %w", filename, err)
	}
	return FromDocx(doc), nil
}

// FromDocx converts the body of a parsed docx file.
func FromDocx(doc *docx.Docx) doctree.Blocks {
	blocks := doctree.Blocks{}
	if doc == nil {
		return blocks
	}
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			blocks = append(blocks, docxParagraph(v))
		case *docx.Table:
			blocks = append(blocks, docxTable(v))
		}
	}
	return blocks
}

func docxParagraph(para *docx.Paragraph) *doctree.Paragraph {
	p := &doctree.Paragraph{Runs: []doctree.Run{}}
	if para.Properties != nil && para.Properties.Justification != nil {
		p.Alignment = doctree.ParseAlignment(para.Properties.Justification.Val)
	}
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		text := docxRunText(run)
		if text == "" {
			continue
		}
		r := doctree.Run{Text: text}
		applyDocxRunProperties(&r, run.RunProperties)
		p.Runs = append(p.Runs, r)
	}
	return p
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		}
	}
	return buf.String()
}

func applyDocxRunProperties(r *doctree.Run, props *docx.RunProperties) {
	if props == nil {
		return
	}
	if props.Bold != nil {
		r.Bold = doctree.Bool(true)
	}
	if props.Underline != nil {
		r.Underline = doctree.Bool(props.Underline.Val != "none")
	}
	if props.Size != nil {
		// w:sz is in half-points.
		if half, err := strconv.ParseFloat(props.Size.Val, 64); err == nil {
			r.FontSize = doctree.Float(half / 2)
		}
	}
	if props.Fonts != nil {
		r.FontFamily = props.Fonts.ASCII
		if r.FontFamily == "" {
			r.FontFamily = props.Fonts.HAnsi
		}
	}
	if props.Color != nil {
		r.Foreground = hexColor(props.Color.Val)
	}
	switch {
	case props.Shade != nil && hexColor(props.Shade.Fill) != nil:
		r.Background = hexColor(props.Shade.Fill)
	case props.Highlight != nil:
		r.Background = highlightColor(props.Highlight.Val)
	}
}

func docxTable(tbl *docx.Table) *doctree.Table {
	t := &doctree.Table{Rows: make([]doctree.Row, 0, len(tbl.TableRows))}
	for _, tr := range tbl.TableRows {
		row := doctree.Row{Cells: make([]doctree.Cell, 0, len(tr.TableCells))}
		for _, tc := range tr.TableCells {
			cell := doctree.Cell{Blocks: doctree.Blocks{}}
			for _, para := range tc.Paragraphs {
				cell.Blocks = append(cell.Blocks, docxParagraph(para))
			}
			// go-docx keeps nested tables apart from paragraphs, so their
			// position within the cell is lost.
			for _, nested := range tc.Tables {
				cell.Blocks = append(cell.Blocks, docxTable(nested))
			}
			if tc.TableCellProperties != nil && tc.TableCellProperties.Shade != nil {
				cell.Background = hexColor(tc.TableCellProperties.Shade.Fill)
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// highlightColor maps the w:highlight palette names used for shading.
func highlightColor(name string) *doctree.Color {
	switch strings.ToLower(name) {
	case "yellow":
		return &doctree.Color{R: 1, G: 1, B: 0}
	case "green":
		return &doctree.Color{R: 0, G: 1, B: 0}
	case "cyan":
		return &doctree.Color{R: 0, G: 1, B: 1}
	case "lightgray":
		return &doctree.Color{R: 0.75, G: 0.75, B: 0.75}
	case "darkgreen":
		return &doctree.Color{R: 0, G: 0.5, B: 0}
	}
	return nil
}
