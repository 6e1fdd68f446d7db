package exegesis

import (
	"fmt"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

type segState int

const (
	stateScanning segState = iota
	stateInSubsection
	stateTerminated
)

type action int

const (
	actContinue action = iota
	actOpen
	actTerminate
)

// transition is the decision for a single block.
type transition struct {
	action action
	kind   SubsectionKind
	index  int
	// unmatched holds the text of an underlined paragraph that named no kind.
	unmatched string
}

// Region is a closed subsection span. Start > End denotes an empty region.
type Region struct {
	Kind    SubsectionKind
	Heading int
	Start   int
	End     int
}

// Segmentation is the result of segmenting one verse's span.
type Segmentation struct {
	Regions     map[SubsectionKind]Region
	Diagnostics []Diagnostic
}

// Segmenter delimits subsection regions inside a verse.
type Segmenter struct {
	locator *Locator
}

func NewSegmenter(l *Locator) *Segmenter {
	if l == nil {
		l = NewLocator()
	}
	return &Segmenter{locator: l}
}

func (s *Segmenter) decide(blocks []doctree.Block, i, boundary int) transition {
	if i >= boundary {
		return transition{action: actTerminate, index: i}
	}
	b := blocks[i]
	if _, _, ok := s.locator.Match(b); ok {
		return transition{action: actTerminate, index: i}
	}
	if name, ok := headingCandidate(b); ok {
		if kind, ok := KindForLabel(name); ok {
			return transition{action: actOpen, kind: kind, index: i}
		}
		return transition{action: actContinue, index: i, unmatched: name}
	}
	return transition{action: actContinue, index: i}
}

// Segment scans blocks from start until boundary (exclusive, clamped to
// len(blocks)) or the next anchor. A kind opened twice keeps only its last
// occurrence.
func (s *Segmenter) Segment(blocks []doctree.Block, start, boundary int) Segmentation {
	if boundary > len(blocks) {
		boundary = len(blocks)
	}
	if start < 0 {
		start = 0
	}

	seg := Segmentation{Regions: make(map[SubsectionKind]Region)}
	state := stateScanning
	var open Region

	for i := start; state != stateTerminated; i++ {
		t := s.decide(blocks, i, boundary)
		switch t.action {
		case actTerminate:
			if state == stateInSubsection {
				open.End = t.index - 1
				seg.Regions[open.Kind] = open
			}
			state = stateTerminated

		case actOpen:
			if state == stateInSubsection {
				open.End = t.index - 1
				seg.Regions[open.Kind] = open
			}
			if prev, seen := seg.Regions[t.kind]; seen {
				seg.Diagnostics = append(seg.Diagnostics, Diagnostic{
					Code:       CodeRepeatedHeading,
					BlockIndex: t.index,
					Label:      t.kind.Label(),
					Message:    fmt.Sprintf("replaces the %q heading at block %d", t.kind.Label(), prev.Heading),
				})
			}
			open = Region{Kind: t.kind, Heading: t.index, Start: t.index + 1}
			state = stateInSubsection

		case actContinue:
			if strings.TrimSpace(t.unmatched) != "" {
				seg.Diagnostics = append(seg.Diagnostics, Diagnostic{
					Code:       CodeUnrecognizedHeading,
					BlockIndex: t.index,
					Label:      t.unmatched,
					Message:    fmt.Sprintf("underlined text %q is not a known subsection heading", t.unmatched),
				})
			}
		}
	}
	return seg
}
