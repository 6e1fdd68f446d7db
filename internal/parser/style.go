package parser

import (
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	cssparser "github.com/aymerick/douceur/parser"
	"github.com/mazznoer/csscolorparser"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// hexColor parses "RRGGBB", "#RRGGBB" or "#RGB". "auto" and junk yield nil.
func hexColor(s string) *doctree.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return nil
	}
	return cssColor("#" + s)
}

// cssColor parses any CSS color. Fully transparent colors yield nil.
func cssColor(s string) *doctree.Color {
	c, err := csscolorparser.Parse(strings.TrimSpace(s))
	if err != nil || c.A == 0 {
		return nil
	}
	return &doctree.Color{R: c.R, G: c.G, B: c.B}
}

// cssLength converts a font size to points. Unitless values are points.
func cssLength(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "pt"):
		s = strings.TrimSuffix(s, "pt")
	case strings.HasSuffix(s, "px"):
		s, scale = strings.TrimSuffix(s, "px"), 0.75
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

// declarations parses a style attribute into a property map. Unparsable
// input yields an empty map.
func declarations(s string) map[string]string {
	out := map[string]string{}
	decls, err := cssparser.ParseDeclarations(s)
	if err != nil {
		return out
	}
	merge(out, decls)
	return out
}

func merge(dst map[string]string, decls []*css.Declaration) {
	for _, d := range decls {
		dst[strings.ToLower(strings.TrimSpace(d.Property))] = strings.TrimSpace(d.Value)
	}
}

// classRules collects the ".name" rules of a stylesheet. Other selectors and
// at-rules are ignored.
func classRules(stylesheet string) map[string]map[string]string {
	rules := map[string]map[string]string{}
	sheet, err := cssparser.Parse(stylesheet)
	if err != nil {
		return rules
	}
	for _, rule := range sheet.Rules {
		if rule.Kind != css.QualifiedRule {
			continue
		}
		for _, sel := range rule.Selectors {
			sel = strings.TrimSpace(sel)
			if !strings.HasPrefix(sel, ".") || strings.ContainsAny(sel[1:], " .:>#[") {
				continue
			}
			name := sel[1:]
			if rules[name] == nil {
				rules[name] = map[string]string{}
			}
			merge(rules[name], rule.Declarations)
		}
	}
	return rules
}

// runStyle is the inherited inline style while walking HTML.
type runStyle struct {
	bold       *bool
	underline  *bool
	fontSize   *float64
	fontFamily string
	fg, bg     *doctree.Color
}

func (s runStyle) apply(props map[string]string) runStyle {
	if v, ok := props["font-weight"]; ok {
		switch strings.ToLower(v) {
		case "bold", "bolder", "600", "700", "800", "900":
			s.bold = doctree.Bool(true)
		case "normal", "lighter", "100", "200", "300", "400", "500":
			s.bold = doctree.Bool(false)
		}
	}
	if v, ok := props["text-decoration"]; ok {
		s.underline = doctree.Bool(strings.Contains(strings.ToLower(v), "underline"))
	}
	if v, ok := props["text-decoration-line"]; ok {
		s.underline = doctree.Bool(strings.Contains(strings.ToLower(v), "underline"))
	}
	if v, ok := props["font-size"]; ok {
		if pt, ok := cssLength(v); ok {
			s.fontSize = doctree.Float(pt)
		}
	}
	if v, ok := props["font-family"]; ok {
		first, _, _ := strings.Cut(v, ",")
		s.fontFamily = strings.Trim(strings.TrimSpace(first), `"'`)
	}
	if v, ok := props["color"]; ok {
		s.fg = cssColor(v)
	}
	if v, ok := props["background-color"]; ok {
		s.bg = cssColor(v)
	}
	return s
}

func (s runStyle) run(text string) doctree.Run {
	return doctree.Run{
		Text:       text,
		Bold:       s.bold,
		Underline:  s.underline,
		FontSize:   s.fontSize,
		FontFamily: s.fontFamily,
		Foreground: s.fg,
		Background: s.bg,
	}
}
