package exegesis

import (
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// DefaultMinGreen is the green-channel threshold above which a table's first
// cell marks a verse anchor.
const DefaultMinGreen = 0.9

// AnchorDetector recognizes one document era's verse-anchor format.
type AnchorDetector interface {
	Name() string
	Detect(b doctree.Block) (label string, ok bool)
}

// ParagraphAnchor matches a centered paragraph whose first run is bold and
// contains a colon, e.g. "2:255".
type ParagraphAnchor struct{}

func (ParagraphAnchor) Name() string { return "paragraph" }

func (ParagraphAnchor) Detect(b doctree.Block) (string, bool) {
	p, ok := b.(*doctree.Paragraph)
	if !ok || p == nil || p.Alignment != doctree.AlignCenter {
		return "", false
	}
	run, ok := p.FirstRun()
	if !ok || !run.IsBold() || !strings.Contains(run.Text, ":") {
		return "", false
	}
	return strings.TrimSpace(run.Text), true
}

// ShadedTableAnchor matches a table whose first cell is shaded green. The label
// is the text of the first paragraph in that cell.
type ShadedTableAnchor struct {
	MinGreen float64 // zero means DefaultMinGreen
}

func (ShadedTableAnchor) Name() string { return "shaded_table" }

func (d ShadedTableAnchor) Detect(b doctree.Block) (string, bool) {
	t, ok := b.(*doctree.Table)
	if !ok || t == nil {
		return "", false
	}
	cell, ok := t.FirstCell()
	if !ok || cell.Background == nil {
		return "", false
	}
	threshold := d.MinGreen
	if threshold == 0 {
		threshold = DefaultMinGreen
	}
	if cell.Background.G <= threshold {
		return "", false
	}
	p, ok := cell.FirstParagraph()
	if !ok {
		return "", false
	}
	label := strings.TrimSpace(p.Text())
	if label == "" {
		return "", false
	}
	return label, true
}

// DefaultDetectors returns the built-in detectors in priority order.
func DefaultDetectors() []AnchorDetector {
	return []AnchorDetector{ParagraphAnchor{}, ShadedTableAnchor{}}
}

// VerseAnchor marks the block that opens a verse.
type VerseAnchor struct {
	Label      string `json:"label"`
	BlockIndex int    `json:"block_index"`
	Detector   string `json:"detector"`
}

// Locator finds verse anchors using an ordered list of detectors.
type Locator struct {
	detectors []AnchorDetector
}

// NewLocator creates a Locator. With no detectors it uses DefaultDetectors.
func NewLocator(detectors ...AnchorDetector) *Locator {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Locator{detectors: detectors}
}

// Match reports whether b is a verse anchor. The first matching detector wins.
func (l *Locator) Match(b doctree.Block) (label, detector string, ok bool) {
	for _, d := range l.detectors {
		if label, ok := d.Detect(b); ok {
			return label, d.Name(), true
		}
	}
	return "", "", false
}

// Locate returns every anchor in scan order along with label diagnostics.
func (l *Locator) Locate(blocks []doctree.Block) ([]VerseAnchor, []Diagnostic, error) {
	var anchors []VerseAnchor
	for i, b := range blocks {
		if label, name, ok := l.Match(b); ok {
			anchors = append(anchors, VerseAnchor{Label: label, BlockIndex: i, Detector: name})
		}
	}
	if len(anchors) == 0 {
		return nil, nil, ErrNoAnchorsFound
	}
	return anchors, checkLabels(anchors), nil
}
