package exegesis

import (
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// headingCandidate returns the heading name of a paragraph whose first run is
// underlined: the run text before its first colon.
func headingCandidate(b doctree.Block) (string, bool) {
	switch v := b.(type) {
	case *doctree.Paragraph:
		run, ok := v.FirstRun()
		if !ok || !run.IsUnderlined() {
			return "", false
		}
		name, _, _ := strings.Cut(run.Text, ":")
		return name, true
	case *doctree.Table:
		return "", false
	}
	return "", false
}

// ClassifyHeading reports the subsection kind b introduces, if any.
func ClassifyHeading(b doctree.Block) (SubsectionKind, bool) {
	name, ok := headingCandidate(b)
	if !ok {
		return 0, false
	}
	return KindForLabel(name)
}
