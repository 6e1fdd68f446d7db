package exegesis

import "github.com/dgallion1/tafsirgest/internal/doctree"

// ExtractRange copies blocks[start..end] (both inclusive) into a new slice.
// Out-of-range indices are clamped; start > end yields an empty slice.
func ExtractRange(blocks doctree.Blocks, start, end int) doctree.Blocks {
	if start < 0 {
		start = 0
	}
	if end >= len(blocks) {
		end = len(blocks) - 1
	}
	if start > end {
		return doctree.Blocks{}
	}
	out := make(doctree.Blocks, end-start+1)
	copy(out, blocks[start:end+1])
	return out
}
