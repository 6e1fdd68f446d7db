package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/tafsirgest/internal/doctree"
	"google.golang.org/api/docs/v1"
)

// GoogleDocJSONParser handles a saved Google Docs API documents.get response.
type GoogleDocJSONParser struct{}

func (p *GoogleDocJSONParser) Parse(r io.Reader, filename string) (doctree.Blocks, error) {
	var doc docs.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode google doc %s: %w", filename, err)
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("decode google doc %s: document has no body", filename)
	}
	return FromGoogleDoc(&doc), nil
}

// FromGoogleDoc converts the body of a Docs API document. Boolean styles the
// API reports as false are left unset, since the API omits them either way.
func FromGoogleDoc(doc *docs.Document) doctree.Blocks {
	if doc == nil || doc.Body == nil {
		return doctree.Blocks{}
	}
	return gdocContent(doc.Body.Content)
}

// gdocContent drops section breaks and tables of contents, so block indices
// count converted blocks only, not body.content elements.
func gdocContent(content []*docs.StructuralElement) doctree.Blocks {
	out := doctree.Blocks{}
	for _, el := range content {
		switch {
		case el == nil:
		case el.Paragraph != nil:
			out = append(out, gdocParagraph(el.Paragraph))
		case el.Table != nil:
			out = append(out, gdocTable(el.Table))
		}
	}
	return out
}

func gdocParagraph(gp *docs.Paragraph) *doctree.Paragraph {
	p := &doctree.Paragraph{Runs: []doctree.Run{}}
	if gp.ParagraphStyle != nil {
		p.Alignment = doctree.ParseAlignment(gp.ParagraphStyle.Alignment)
	}
	for _, el := range gp.Elements {
		if el == nil {
			continue
		}
		if el.HorizontalRule != nil {
			p.HorizontalRule = true
		}
		if el.TextRun == nil {
			continue
		}
		r := doctree.Run{Text: el.TextRun.Content}
		if ts := el.TextRun.TextStyle; ts != nil {
			if ts.Bold {
				r.Bold = doctree.Bool(true)
			}
			if ts.Underline {
				r.Underline = doctree.Bool(true)
			}
			if ts.FontSize != nil && ts.FontSize.Magnitude > 0 {
				r.FontSize = doctree.Float(ts.FontSize.Magnitude)
			}
			if ts.WeightedFontFamily != nil {
				r.FontFamily = ts.WeightedFontFamily.FontFamily
			}
			r.Foreground = gdocColor(ts.ForegroundColor)
			r.Background = gdocColor(ts.BackgroundColor)
		}
		p.Runs = append(p.Runs, r)
	}
	return p
}

func gdocTable(gt *docs.Table) *doctree.Table {
	t := &doctree.Table{Rows: make([]doctree.Row, 0, len(gt.TableRows))}
	for _, tr := range gt.TableRows {
		if tr == nil {
			continue
		}
		row := doctree.Row{Cells: make([]doctree.Cell, 0, len(tr.TableCells))}
		for _, tc := range tr.TableCells {
			if tc == nil {
				continue
			}
			cell := doctree.Cell{Blocks: gdocContent(tc.Content)}
			if tc.TableCellStyle != nil {
				cell.Background = gdocColor(tc.TableCellStyle.BackgroundColor)
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func gdocColor(c *docs.OptionalColor) *doctree.Color {
	if c == nil || c.Color == nil || c.Color.RgbColor == nil {
		return nil
	}
	rgb := c.Color.RgbColor
	return &doctree.Color{R: rgb.Red, G: rgb.Green, B: rgb.Blue}
}
