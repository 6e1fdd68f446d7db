package exegesis

import "github.com/dgallion1/tafsirgest/internal/doctree"

func anchor(label string) *doctree.Paragraph {
	return &doctree.Paragraph{
		Runs:      []doctree.Run{{Text: label, Bold: doctree.Bool(true)}},
		Alignment: doctree.AlignCenter,
	}
}

func tableAnchor(label string, green float64) *doctree.Table {
	return &doctree.Table{Rows: []doctree.Row{{Cells: []doctree.Cell{{
		Blocks:     doctree.Blocks{para(label)},
		Background: &doctree.Color{R: 0.85, G: green, B: 0.83},
	}}}}}
}

func heading(text string) *doctree.Paragraph {
	return &doctree.Paragraph{
		Runs: []doctree.Run{{Text: text, Underline: doctree.Bool(true)}},
	}
}

func para(text string) *doctree.Paragraph {
	return &doctree.Paragraph{Runs: []doctree.Run{{Text: text}}}
}

func texts(blocks doctree.Blocks) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if p, ok := b.(*doctree.Paragraph); ok {
			out = append(out, p.Text())
		}
	}
	return out
}

func codes(diags []Diagnostic) []Code {
	out := make([]Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(diags []Diagnostic, c Code) bool {
	for _, d := range diags {
		if d.Code == c {
			return true
		}
	}
	return false
}
