// Package exegesis segments a tafsir document into verses and their
// canonical subsections. It performs no I/O.
package exegesis

import (
	"strconv"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// Subsection is the content under one canonical heading of a verse.
type Subsection struct {
	Kind         SubsectionKind `json:"kind"`
	HeadingIndex int            `json:"heading_index"`
	Start        int            `json:"start"`
	End          int            `json:"end"`
	Content      doctree.Blocks `json:"content"`
}

// Verse is one verse of the document, numbered by anchor scan order.
type Verse struct {
	Number      int                            `json:"number"`
	Label       string                         `json:"label"`
	BlockIndex  int                            `json:"block_index"`
	Subsections map[SubsectionKind]*Subsection `json:"subsections"`
}

// Subsection returns the verse's subsection of kind k, if present.
func (v *Verse) Subsection(k SubsectionKind) (*Subsection, bool) {
	s, ok := v.Subsections[k]
	return s, ok
}

// ParsedDocument is the result of a parse.
type ParsedDocument struct {
	ChapterNumber int          `json:"chapter_number"`
	Verses        []Verse      `json:"verses"`
	Intro         *Intro       `json:"intro,omitempty"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
}

// Verse returns the verse with the given 1-based number.
func (d *ParsedDocument) Verse(number int) (*Verse, bool) {
	if number < 1 || number > len(d.Verses) {
		return nil, false
	}
	return &d.Verses[number-1], true
}

// Option configures a Parser.
type Option func(*Parser)

// WithDetectors replaces the anchor detectors, tried in the given order.
func WithDetectors(detectors ...AnchorDetector) Option {
	return func(p *Parser) {
		if len(detectors) > 0 {
			p.locator = NewLocator(detectors...)
		}
	}
}

// WithIntro enables reading the introduction before the first verse.
func WithIntro(cfg IntroConfig) Option {
	return func(p *Parser) {
		p.intro = &cfg
	}
}

// Parser assembles a ParsedDocument from a block sequence. A Parser holds no
// per-parse state and is safe for concurrent use.
type Parser struct {
	locator *Locator
	intro   *IntroConfig
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{locator: NewLocator()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse parses blocks with the default options.
func Parse(blocks doctree.Blocks) (*ParsedDocument, error) {
	return NewParser().Parse(blocks)
}

// Parse locates every verse and segments its span. It fails only with
// ErrEmptyDocument; everything else is reported as a Diagnostic.
func (p *Parser) Parse(blocks doctree.Blocks) (*ParsedDocument, error) {
	anchors, diags, err := p.locator.Locate(blocks)
	if err != nil {
		return nil, ErrEmptyDocument
	}

	doc := &ParsedDocument{
		Verses:      make([]Verse, 0, len(anchors)),
		Diagnostics: []Diagnostic{},
	}
	doc.Diagnostics = append(doc.Diagnostics, diags...)

	chapter, err := chapterNumber(anchors[0].Label)
	if err != nil && !hasMalformed(diags, anchors[0].BlockIndex) {
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
			Code:       CodeMalformedAnchor,
			BlockIndex: anchors[0].BlockIndex,
			Label:      anchors[0].Label,
			Message:    "chapter number is not an integer",
		})
	}
	doc.ChapterNumber = chapter

	seg := NewSegmenter(p.locator)
	for n, a := range anchors {
		boundary := len(blocks)
		if n+1 < len(anchors) {
			boundary = anchors[n+1].BlockIndex
		}
		s := seg.Segment(blocks, a.BlockIndex+1, boundary)
		doc.Diagnostics = append(doc.Diagnostics, s.Diagnostics...)

		v := Verse{
			Number:      n + 1,
			Label:       a.Label,
			BlockIndex:  a.BlockIndex,
			Subsections: make(map[SubsectionKind]*Subsection, len(s.Regions)),
		}
		for kind, r := range s.Regions {
			v.Subsections[kind] = &Subsection{
				Kind:         kind,
				HeadingIndex: r.Heading,
				Start:        r.Start,
				End:          r.End,
				Content:      ExtractRange(blocks, r.Start, r.End),
			}
		}
		doc.Verses = append(doc.Verses, v)
	}

	if p.intro != nil {
		doc.Intro = ReadIntro(blocks, anchors[0].BlockIndex, *p.intro)
	}
	return doc, nil
}

// chapterNumber reads the integer before the first colon of a label.
func chapterNumber(label string) (int, error) {
	prefix, _, _ := strings.Cut(strings.TrimSpace(label), ":")
	n, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func hasMalformed(diags []Diagnostic, blockIndex int) bool {
	for _, d := range diags {
		if d.Code == CodeMalformedAnchor && d.BlockIndex == blockIndex {
			return true
		}
	}
	return false
}
