package exegesis

import (
	"fmt"
	"strconv"
	"strings"
)

// verseRef is the numeric reading of an anchor label such as "2:255" or "2:1-5".
type verseRef struct {
	Chapter   int
	Verse     int
	LastVerse int
}

// parseLabel reads "chapter:verse[-verse]". Anything after the leading verse
// digits other than a range suffix makes the label malformed.
func parseLabel(label string) (verseRef, error) {
	chapter, rest, ok := strings.Cut(strings.TrimSpace(label), ":")
	if !ok {
		return verseRef{}, fmt.Errorf("label %q has no colon", label)
	}
	ch, err := strconv.Atoi(strings.TrimSpace(chapter))
	if err != nil || ch <= 0 {
		return verseRef{}, fmt.Errorf("label %q has non-numeric chapter", label)
	}

	rest = strings.TrimSpace(rest)
	first, last, isRange := strings.Cut(rest, "-")
	v, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || v <= 0 {
		return verseRef{}, fmt.Errorf("label %q has non-numeric verse", label)
	}
	ref := verseRef{Chapter: ch, Verse: v, LastVerse: v}
	if isRange {
		lv, err := strconv.Atoi(strings.TrimSpace(last))
		if err != nil || lv < v {
			return verseRef{}, fmt.Errorf("label %q has an invalid verse range", label)
		}
		ref.LastVerse = lv
	}
	return ref, nil
}

// checkLabels reports label anomalies for anchors in scan order. It never
// changes numbering, which is always by scan position.
func checkLabels(anchors []VerseAnchor) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]int, len(anchors))
	var prev *verseRef

	for _, a := range anchors {
		if first, dup := seen[a.Label]; dup {
			diags = append(diags, Diagnostic{
				Code:       CodeDuplicateAnchor,
				BlockIndex: a.BlockIndex,
				Label:      a.Label,
				Message:    fmt.Sprintf("label already used by the anchor at block %d", first),
			})
			continue
		}
		seen[a.Label] = a.BlockIndex

		ref, err := parseLabel(a.Label)
		if err != nil {
			diags = append(diags, Diagnostic{
				Code:       CodeMalformedAnchor,
				BlockIndex: a.BlockIndex,
				Label:      a.Label,
				Message:    err.Error(),
			})
			continue
		}

		if prev != nil {
			switch {
			case ref.Chapter < prev.Chapter,
				ref.Chapter == prev.Chapter && ref.Verse <= prev.LastVerse:
				diags = append(diags, Diagnostic{
					Code:       CodeOutOfOrderAnchor,
					BlockIndex: a.BlockIndex,
					Label:      a.Label,
					Message:    fmt.Sprintf("follows %d:%d in scan order", prev.Chapter, prev.LastVerse),
				})
			case ref.Chapter == prev.Chapter && ref.Verse > prev.LastVerse+1:
				diags = append(diags, Diagnostic{
					Code:       CodeAnchorGap,
					BlockIndex: a.BlockIndex,
					Label:      a.Label,
					Message:    fmt.Sprintf("skips from %d:%d", prev.Chapter, prev.LastVerse),
				})
			}
		}
		r := ref
		prev = &r
	}
	return diags
}
