package extractor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Pre: true, atom.Blockquote: true, atom.Tr: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Hr: true,
}

// HTMLToText parses an HTML fragment and concatenates its text nodes in
// document order. A <br> becomes a newline, every block element ends on its
// own line and whitespace-only text at the start of a line is dropped.
// Comments are dropped; entities are decoded once, so encoded markup comes
// out as literal text.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered html: %w", err)
	}

	var sb strings.Builder
	atLineStart := func() bool {
		return sb.Len() == 0 || strings.HasSuffix(sb.String(), "\n")
	}
	newline := func() {
		if !atLineStart() {
			sb.WriteByte('\n')
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			// layout whitespace between blocks
			if strings.TrimSpace(n.Data) == "" && atLineStart() {
				break
			}
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			newline()
		}
	}
	walk(doc)

	return sb.String(), nil
}
