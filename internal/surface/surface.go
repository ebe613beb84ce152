// Package surface maps rendered preview HTML to its interactive
// presentation: heading permalinks, scrollable tables, callout blockquotes
// and copyable code blocks.
package surface

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/inkpad/internal/render"
)

// Heading is one heading of the preview.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Block is one copyable code block. Index is its position among the code
// blocks of the preview and Text is the exact code, never markup.
type Block struct {
	Index    int    `json:"index"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

// Output is the decorated preview.
type Output struct {
	HTML     string    `json:"html"`
	Headings []Heading `json:"headings"`
	Blocks   []Block   `json:"blocks"`
	Degraded bool      `json:"degraded"`
}

var (
	headingSel    = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")
	tableSel      = cascadia.MustCompile("table")
	blockquoteSel = cascadia.MustCompile("blockquote")
	preSel        = cascadia.MustCompile("pre")
)

// Decorate adds presentation markup to tree. A degraded tree is passed
// through without decoration.
func Decorate(tree render.Tree) (Output, error) {
	if tree.Degraded {
		return Output{HTML: tree.HTML, Headings: []Heading{}, Blocks: []Block{}, Degraded: true}, nil
	}

	root, err := parseFragment(tree.HTML)
	if err != nil {
		return Output{}, fmt.Errorf("surface: parse: %w", err)
	}

	out := Output{
		Headings: decorateHeadings(root),
		Blocks:   decorateCodeBlocks(root),
	}
	wrapTables(root)
	markCallouts(root)

	out.HTML, err = renderFragment(root)
	if err != nil {
		return Output{}, fmt.Errorf("surface: render: %w", err)
	}
	return out, nil
}

func decorateHeadings(root *html.Node) []Heading {
	headings := []Heading{}
	for _, h := range headingSel.MatchAll(root) {
		id := attr(h, "id")
		headings = append(headings, Heading{
			Level: int(h.Data[1] - '0'),
			ID:    id,
			Text:  strings.TrimSpace(Text(h)),
		})
		if id == "" {
			continue
		}
		anchor := element(atom.A, "a",
			html.Attribute{Key: "class", Val: "heading-anchor"},
			html.Attribute{Key: "href", Val: "#" + id},
			html.Attribute{Key: "aria-label", Val: "Link to this heading"},
		)
		anchor.AppendChild(&html.Node{Type: html.TextNode, Data: "#"})
		h.AppendChild(anchor)
	}
	return headings
}

func decorateCodeBlocks(root *html.Node) []Block {
	blocks := []Block{}
	for i, pre := range preSel.MatchAll(root) {
		idx := strconv.Itoa(i)
		b := Block{Index: i, Language: language(pre), Text: Text(pre)}
		blocks = append(blocks, b)

		wrapper := pre.Parent
		if wrapper == nil || !hasClass(wrapper, "highlight") {
			wrapper = element(atom.Div, "div")
			wrap(pre, wrapper)
		}
		setAttr(wrapper, "class", "code-block")
		setAttr(wrapper, "data-block", idx)
		if b.Language != "" {
			setAttr(wrapper, "data-lang", b.Language)
		}

		button := element(atom.Button, "button",
			html.Attribute{Key: "type", Val: "button"},
			html.Attribute{Key: "class", Val: "copy-button"},
			html.Attribute{Key: "data-copy", Val: idx},
			html.Attribute{Key: "aria-label", Val: "Copy code"},
		)
		button.AppendChild(&html.Node{Type: html.TextNode, Data: "Copy"})
		wrapper.InsertBefore(button, pre)
	}
	return blocks
}

func wrapTables(root *html.Node) {
	for _, table := range tableSel.MatchAll(root) {
		if p := table.Parent; p != nil && hasClass(p, "table-scroll") {
			continue
		}
		wrap(table, element(atom.Div, "div", html.Attribute{Key: "class", Val: "table-scroll"}))
	}
}

func markCallouts(root *html.Node) {
	for _, q := range blockquoteSel.MatchAll(root) {
		addClass(q, "callout")
	}
}

// language reads the block language from the highlight wrapper or from a
// "language-*" class on the inner code element.
func language(pre *html.Node) string {
	if p := pre.Parent; p != nil && hasClass(p, "highlight") {
		if lang := attr(p, "data-lang"); lang != "" {
			return lang
		}
	}
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Code {
			continue
		}
		for _, cls := range strings.Fields(attr(c, "class")) {
			if lang, ok := strings.CutPrefix(cls, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

// Text returns the concatenated text of n and all its descendants.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
