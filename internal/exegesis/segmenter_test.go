package exegesis

import (
	"testing"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

func TestClassifyHeading(t *testing.T) {
	tests := []struct {
		name  string
		block doctree.Block
		kind  SubsectionKind
		ok    bool
	}{
		{"plain label", heading("Linguistic Meaning"), LinguisticMeaning, true},
		{"label with colon", heading("Variant Readings: ibn Kathir"), VariantReadings, true},
		{"comments", heading("Comments/Reflections:"), Comments, true},
		{"connections", heading("Connection with other ayat"), Connections, true},
		{"wrong case", heading("linguistic meaning"), 0, false},
		{"trailing space", heading("Existing Commentary "), 0, false},
		{"not underlined", para("Existing Commentary"), 0, false},
		{"explicit false underline", &doctree.Paragraph{Runs: []doctree.Run{{Text: "Existing Commentary", Underline: doctree.Bool(false)}}}, 0, false},
		{"table", tableAnchor("Linguistic Meaning", 0.1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := ClassifyHeading(tt.block)
			if ok != tt.ok || kind != tt.kind {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.kind, tt.ok, kind, ok)
			}
		})
	}
}

func TestSegment_AdjacentHeadingsYieldEmptyRegion(t *testing.T) {
	blocks := doctree.Blocks{
		anchor("2:1"),
		heading("Linguistic Meaning"),
		heading("Variant Readings"),
		para("v"),
	}
	seg := NewSegmenter(nil).Segment(blocks, 1, len(blocks))
	lm, ok := seg.Regions[LinguisticMeaning]
	if !ok {
		t.Fatal("expected linguistic meaning region")
	}
	if lm.Start != 2 || lm.End != 1 {
		t.Errorf("expected empty region [2,1], got [%d,%d]", lm.Start, lm.End)
	}
	if got := ExtractRange(blocks, lm.Start, lm.End); len(got) != 0 {
		t.Errorf("expected empty content, got %d blocks", len(got))
	}
	vr := seg.Regions[VariantReadings]
	if vr.Start != 3 || vr.End != 3 {
		t.Errorf("expected [3,3], got [%d,%d]", vr.Start, vr.End)
	}
}

func TestSegment_StopsAtEmbeddedAnchor(t *testing.T) {
	blocks := doctree.Blocks{
		anchor("2:1"),
		heading("Existing Commentary"),
		para("a"),
		tableAnchor("2:2", 0.95),
		para("b"),
	}
	seg := NewSegmenter(nil).Segment(blocks, 1, 99)
	r := seg.Regions[ExistingCommentary]
	if r.End != 2 {
		t.Errorf("expected region to close before the anchor, got end %d", r.End)
	}
}

func TestSegment_RepeatedHeadingLastWins(t *testing.T) {
	blocks := doctree.Blocks{
		anchor("2:1"),
		heading("Comments/Reflections"),
		para("first"),
		heading("Linguistic Meaning"),
		para("lm"),
		heading("Comments/Reflections"),
		para("second"),
		para("third"),
	}
	seg := NewSegmenter(nil).Segment(blocks, 1, len(blocks))
	c := seg.Regions[Comments]
	got := texts(ExtractRange(blocks, c.Start, c.End))
	if len(got) != 2 || got[0] != "second" || got[1] != "third" {
		t.Errorf("expected [second third], got %v", got)
	}
	if c.Heading != 5 {
		t.Errorf("expected heading index 5, got %d", c.Heading)
	}
	if !hasCode(seg.Diagnostics, CodeRepeatedHeading) {
		t.Errorf("expected a repeated heading diagnostic, got %v", seg.Diagnostics)
	}
}

func TestSegment_UnrecognizedHeadingIsContent(t *testing.T) {
	blocks := doctree.Blocks{
		anchor("2:1"),
		heading("Linguistic Meaning"),
		para("a"),
		heading("Grammar notes"),
		para("b"),
	}
	seg := NewSegmenter(nil).Segment(blocks, 1, len(blocks))
	lm := seg.Regions[LinguisticMeaning]
	if got := texts(ExtractRange(blocks, lm.Start, lm.End)); len(got) != 3 {
		t.Errorf("expected unrecognized heading kept as content, got %v", got)
	}
	if len(seg.Diagnostics) != 1 || seg.Diagnostics[0].Code != CodeUnrecognizedHeading || seg.Diagnostics[0].BlockIndex != 3 {
		t.Errorf("expected one unrecognized heading diagnostic at 3, got %v", seg.Diagnostics)
	}
}

func TestSegment_StartPastBoundary(t *testing.T) {
	blocks := doctree.Blocks{anchor("2:1")}
	seg := NewSegmenter(nil).Segment(blocks, 1, len(blocks))
	if len(seg.Regions) != 0 {
		t.Errorf("expected no regions, got %v", seg.Regions)
	}
}

func TestExtractRange(t *testing.T) {
	blocks := doctree.Blocks{para("a"), para("b"), para("c"), para("d")}
	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{"middle", 1, 2, []string{"b", "c"}},
		{"single", 3, 3, []string{"d"}},
		{"empty", 2, 1, []string{}},
		{"clamped", -4, 10, []string{"a", "b", "c", "d"}},
		{"beyond end", 6, 9, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(ExtractRange(blocks, tt.start, tt.end))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestExtractRange_FreshSlice(t *testing.T) {
	blocks := doctree.Blocks{para("a"), para("b"), para("c")}
	out := ExtractRange(blocks, 0, 1)
	out[0] = para("changed")
	if blocks[0].(*doctree.Paragraph).Text() != "a" {
		t.Error("expected input to be unaffected by writes to the result")
	}
	_ = append(out, para("x"))
	if blocks[2].(*doctree.Paragraph).Text() != "c" {
		t.Error("expected append on result not to clobber input")
	}
}

func TestExtractRange_AdjacentRangesReassemble(t *testing.T) {
	blocks := doctree.Blocks{para("0"), para("1"), para("2"), para("3"), para("4"), para("5")}
	var joined []string
	for _, r := range [][2]int{{1, 2}, {3, 2}, {3, 5}} {
		joined = append(joined, texts(ExtractRange(blocks, r[0], r[1]))...)
	}
	want := []string{"1", "2", "3", "4", "5"}
	if len(joined) != len(want) {
		t.Fatalf("expected %v, got %v", want, joined)
	}
	for i := range want {
		if joined[i] != want[i] {
			t.Errorf("expected %v, got %v", want, joined)
		}
	}
}
