// Package outline extracts front matter, title, headings, tags and word count
// from markdown text.
package outline

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/inkpad/internal/render"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, render.MathExtension),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Heading is one heading of the document body.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Result holds the outline of a document.
type Result struct {
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Body        string         `json:"-"`
	Title       string         `json:"title"`
	Headings    []Heading      `json:"headings"`
	Tags        []string       `json:"tags"`
	Words       int            `json:"words"`
}

// Parse builds the outline of data. Invalid front matter is treated as body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	headings := extractHeadings([]byte(body))
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, headings),
		Headings:    headings,
		Tags:        extractTags(body, fm),
		Words:       len(strings.Fields(body)),
	}
}

// splitFrontmatter separates YAML front matter (between leading --- lines)
// from the body. Without valid front matter the whole input is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// extractHeadings parses body with the preview's slug rules so heading IDs
// match the rendered anchors.
func extractHeadings(body []byte) []Heading {
	pc := parser.NewContext(parser.WithIDs(render.NewSlugger()))
	doc := md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	headings := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		headings = append(headings, Heading{
			Level: h.Level,
			ID:    id,
			Text:  strings.TrimSpace(inlineText(h, body)),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *render.MathInline:
			b.Write(t.Literal)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// extractTags collects tags from the front matter "tags" list and inline #tags.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the front matter "title", otherwise the first H1.
func deriveTitle(fm map[string]any, headings []Heading) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
