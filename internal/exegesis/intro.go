package exegesis

import (
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// IntroConfig controls how the introduction before the first verse is read.
type IntroConfig struct {
	Marker     string  // text of the paragraph that opens the intro
	FontFamily string  // font family of section titles
	FontSize   float64 // font size of section titles, in points
}

// DefaultIntroConfig matches the house style of the tafsir notes.
func DefaultIntroConfig() IntroConfig {
	return IntroConfig{Marker: "INTRODUCTION", FontFamily: "Montserrat", FontSize: 16}
}

// IntroSection is one titled section of the introduction.
type IntroSection struct {
	Title      string         `json:"title"`
	TitleIndex int            `json:"title_index"`
	Content    doctree.Blocks `json:"content"`
}

// Intro is the introduction that precedes the first verse.
type Intro struct {
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Sections []IntroSection `json:"sections"`
}

// ReadIntro reads the intro from blocks[:end]. It returns nil when no
// paragraph contains cfg.Marker.
func ReadIntro(blocks doctree.Blocks, end int, cfg IntroConfig) *Intro {
	if end > len(blocks) || end < 0 {
		end = len(blocks)
	}
	def := DefaultIntroConfig()
	if cfg.Marker == "" {
		cfg.Marker = def.Marker
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = def.FontFamily
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = def.FontSize
	}

	start := -1
	for i := 0; i < end; i++ {
		if p, ok := blocks[i].(*doctree.Paragraph); ok && strings.Contains(p.Text(), cfg.Marker) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	stop := end
	var titles []int
	for i := start + 1; i < end; i++ {
		p, ok := blocks[i].(*doctree.Paragraph)
		if !ok || p == nil {
			continue
		}
		if p.HorizontalRule {
			stop = i
			break
		}
		if isIntroTitle(p, cfg) {
			titles = append(titles, i)
		}
	}

	intro := &Intro{Start: start, End: stop, Sections: []IntroSection{}}
	for n, ti := range titles {
		last := stop - 1
		if n+1 < len(titles) {
			last = titles[n+1] - 1
		}
		intro.Sections = append(intro.Sections, IntroSection{
			Title:      strings.TrimSpace(blocks[ti].(*doctree.Paragraph).Text()),
			TitleIndex: ti,
			Content:    ExtractRange(blocks, ti+1, last),
		})
	}
	return intro
}

func isIntroTitle(p *doctree.Paragraph, cfg IntroConfig) bool {
	if p.Alignment != doctree.AlignCenter {
		return false
	}
	for _, r := range p.Runs {
		if r.FontFamily == cfg.FontFamily && r.FontSize != nil && *r.FontSize == cfg.FontSize {
			return true
		}
	}
	return false
}
