package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files, including Google Docs "Web page" exports
// whose styling lives in class rules.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (doctree.Blocks, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", filename, err)
	}

	w := &htmlWalker{rules: classRules(collectStyles(doc))}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	return w.blocks(root, w.elementStyle(root, runStyle{})), nil
}

type htmlWalker struct {
	rules map[string]map[string]string
}

// props merges class rules and the inline style attribute of n.
func (w *htmlWalker) props(n *html.Node) map[string]string {
	out := map[string]string{}
	for _, cls := range strings.Fields(attr(n, "class")) {
		for k, v := range w.rules[cls] {
			out[k] = v
		}
	}
	for k, v := range declarations(attr(n, "style")) {
		out[k] = v
	}
	return out
}

func (w *htmlWalker) elementStyle(n *html.Node, inherited runStyle) runStyle {
	s := inherited
	switch n.Data {
	case "b", "strong":
		s.bold = doctree.Bool(true)
	case "u", "ins":
		s.underline = doctree.Bool(true)
	case "th":
		s.bold = doctree.Bool(true)
	}
	return s.apply(w.props(n))
}

func (w *htmlWalker) alignment(n *html.Node) doctree.Alignment {
	if v, ok := w.props(n)["text-align"]; ok {
		return doctree.ParseAlignment(v)
	}
	return doctree.ParseAlignment(attr(n, "align"))
}

// blocks converts the children of a block container.
func (w *htmlWalker) blocks(n *html.Node, style runStyle) doctree.Blocks {
	out := doctree.Blocks{}
	var pending *doctree.Paragraph

	flush := func() {
		if pending != nil && (len(pending.Runs) > 0 || pending.HorizontalRule) {
			out = append(out, pending)
		}
		pending = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "script", "style", "head", "title", "meta", "link":
				continue
			case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "pre":
				flush()
				out = append(out, w.paragraph(c, style))
				continue
			case "table":
				flush()
				out = append(out, w.table(c, style))
				continue
			case "hr":
				flush()
				out = append(out, &doctree.Paragraph{Runs: []doctree.Run{}, HorizontalRule: true})
				continue
			case "div", "section", "article", "main", "ul", "ol", "body", "header", "footer", "nav", "tbody", "thead":
				flush()
				out = append(out, w.blocks(c, w.elementStyle(c, style))...)
				continue
			}
		}
		// Loose inline content forms an implicit paragraph.
		if pending == nil {
			pending = &doctree.Paragraph{Runs: []doctree.Run{}, Alignment: w.alignment(n)}
		}
		w.inline(c, style, pending)
	}
	flush()
	return out
}

func (w *htmlWalker) paragraph(n *html.Node, inherited runStyle) *doctree.Paragraph {
	style := w.elementStyle(n, inherited)
	if strings.HasPrefix(n.Data, "h") && len(n.Data) == 2 && style.bold == nil {
		style.bold = doctree.Bool(true)
	}
	p := &doctree.Paragraph{Runs: []doctree.Run{}, Alignment: w.alignment(n)}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.inline(c, style, p)
	}
	return p
}

// inline appends runs for n and its descendants to p.
func (w *htmlWalker) inline(n *html.Node, style runStyle, p *doctree.Paragraph) {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if strings.TrimSpace(text) == "" && len(p.Runs) == 0 {
			return
		}
		if text != "" {
			p.Runs = append(p.Runs, style.run(text))
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "br":
			p.Runs = append(p.Runs, style.run("\n"))
			return
		case "hr":
			p.HorizontalRule = true
			return
		}
		style = w.elementStyle(n, style)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.inline(c, style, p)
	}
}

func (w *htmlWalker) table(n *html.Node, inherited runStyle) *doctree.Table {
	t := &doctree.Table{Rows: []doctree.Row{}}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead", "tbody", "tfoot":
				visit(c)
			case "tr":
				t.Rows = append(t.Rows, w.row(c, inherited))
			}
		}
	}
	visit(n)
	return t
}

func (w *htmlWalker) row(tr *html.Node, inherited runStyle) doctree.Row {
	row := doctree.Row{Cells: []doctree.Cell{}}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cell := doctree.Cell{Blocks: w.blocks(c, w.elementStyle(c, inherited))}
		if v, ok := w.props(c)["background-color"]; ok {
			cell.Background = cssColor(v)
		} else if v := attr(c, "bgcolor"); v != "" {
			cell.Background = cssColor(v)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectStyles(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
