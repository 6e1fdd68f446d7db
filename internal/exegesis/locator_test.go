package exegesis

import (
	"errors"
	"testing"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

func TestParagraphAnchor_Detect(t *testing.T) {
	tests := []struct {
		name  string
		block doctree.Block
		label string
		ok    bool
	}{
		{"bold centered with colon", anchor(" 2:1 "), "2:1", true},
		{"not bold", &doctree.Paragraph{Runs: []doctree.Run{{Text: "2:1"}}, Alignment: doctree.AlignCenter}, "", false},
		{"not centered", &doctree.Paragraph{Runs: []doctree.Run{{Text: "2:1", Bold: doctree.Bool(true)}}}, "", false},
		{"no colon", anchor("Verse one"), "", false},
		{"colon only in second run", &doctree.Paragraph{
			Runs:      []doctree.Run{{Text: "Verse", Bold: doctree.Bool(true)}, {Text: " 2:1"}},
			Alignment: doctree.AlignCenter,
		}, "", false},
		{"table", tableAnchor("2:1", 0.95), "", false},
		{"nil paragraph", (*doctree.Paragraph)(nil), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := ParagraphAnchor{}.Detect(tt.block)
			if ok != tt.ok || label != tt.label {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.label, tt.ok, label, ok)
			}
		})
	}
}

func TestShadedTableAnchor_Detect(t *testing.T) {
	tests := []struct {
		name  string
		block doctree.Block
		label string
		ok    bool
	}{
		{"green cell", tableAnchor("2:3\n", 0.95), "2:3", true},
		{"exactly threshold", tableAnchor("2:3", 0.9), "", false},
		{"pale cell", tableAnchor("2:3", 0.5), "", false},
		{"blank label", tableAnchor("   ", 0.95), "", false},
		{"no background", &doctree.Table{Rows: []doctree.Row{{Cells: []doctree.Cell{{Blocks: doctree.Blocks{para("2:3")}}}}}}, "", false},
		{"empty table", &doctree.Table{}, "", false},
		{"paragraph", anchor("2:3"), "", false},
		{"nil table", (*doctree.Table)(nil), "", false},
		{"nil paragraph in cell", &doctree.Table{Rows: []doctree.Row{{Cells: []doctree.Cell{{
			Blocks:     doctree.Blocks{(*doctree.Paragraph)(nil)},
			Background: &doctree.Color{G: 1},
		}}}}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := ShadedTableAnchor{}.Detect(tt.block)
			if ok != tt.ok || label != tt.label {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.label, tt.ok, label, ok)
			}
		})
	}
}

func TestLocator_LocateBothEras(t *testing.T) {
	blocks := doctree.Blocks{
		para("preface"),
		anchor("2:1"),
		para("body"),
		tableAnchor("2:2", 0.96),
		para("body"),
	}
	anchors, diags, err := NewLocator().Locate(blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].BlockIndex != 1 || anchors[0].Detector != "paragraph" {
		t.Errorf("unexpected first anchor: %+v", anchors[0])
	}
	if anchors[1].BlockIndex != 3 || anchors[1].Label != "2:2" || anchors[1].Detector != "shaded_table" {
		t.Errorf("unexpected second anchor: %+v", anchors[1])
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}

func TestParse_NilBlocks(t *testing.T) {
	blocks := doctree.Blocks{
		(*doctree.Paragraph)(nil),
		anchor("2:1"),
		(*doctree.Table)(nil),
		heading("Comments/Reflections"),
		(*doctree.Paragraph)(nil),
	}
	doc, err := NewParser(WithIntro(DefaultIntroConfig())).Parse(blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Verses) != 1 || doc.Verses[0].BlockIndex != 1 {
		t.Fatalf("unexpected verses %+v", doc.Verses)
	}
	c, ok := doc.Verses[0].Subsection(Comments)
	if !ok || len(c.Content) != 1 {
		t.Errorf("expected the trailing block under comments, got %+v", c)
	}
}

func TestLocator_NoAnchors(t *testing.T) {
	_, _, err := NewLocator().Locate(doctree.Blocks{para("a"), heading("Linguistic Meaning")})
	if !errors.Is(err, ErrNoAnchorsFound) {
		t.Fatalf("expected ErrNoAnchorsFound, got %v", err)
	}
}

type prefixDetector struct{}

func (prefixDetector) Name() string { return "prefix" }

func (prefixDetector) Detect(b doctree.Block) (string, bool) {
	p, ok := b.(*doctree.Paragraph)
	if !ok || len(p.Text()) < 6 || p.Text()[:6] != "VERSE " {
		return "", false
	}
	return p.Text()[6:], true
}

func TestLocator_CustomDetector(t *testing.T) {
	l := NewLocator(prefixDetector{})
	anchors, _, err := l.Locate(doctree.Blocks{para("VERSE 3:1"), anchor("3:2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anchors) != 1 || anchors[0].Label != "3:1" {
		t.Errorf("expected only the custom anchor, got %+v", anchors)
	}
}

func TestCheckLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []Code
	}{
		{"ordered", []string{"2:1", "2:2", "2:3"}, nil},
		{"range then next", []string{"2:1-3", "2:4"}, nil},
		{"next chapter", []string{"2:286", "3:1"}, nil},
		{"gap", []string{"2:1", "2:4"}, []Code{CodeAnchorGap}},
		{"out of order", []string{"2:5", "2:3"}, []Code{CodeOutOfOrderAnchor}},
		{"earlier chapter", []string{"3:1", "2:9"}, []Code{CodeOutOfOrderAnchor}},
		{"duplicate", []string{"2:1", "2:1"}, []Code{CodeDuplicateAnchor}},
		{"malformed", []string{"2:1", "two:2", "2:x"}, []Code{CodeMalformedAnchor, CodeMalformedAnchor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchors := make([]VerseAnchor, len(tt.labels))
			for i, l := range tt.labels {
				anchors[i] = VerseAnchor{Label: l, BlockIndex: i * 10}
			}
			got := codes(checkLabels(anchors))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("diagnostic %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}
