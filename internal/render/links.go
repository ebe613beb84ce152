package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ExternalLinkExtension marks absolute http(s) links with target="_blank"
// and rel="noopener noreferrer". Only markdown links and autolinks are
// marked; anchors written as raw HTML are left as written.
var ExternalLinkExtension goldmark.Extender = &externalLinks{}

type externalLinks struct{}

func (e *externalLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&externalLinkTransformer{}, 100),
	))
}

type externalLinkTransformer struct{}

func (t *externalLinkTransformer) Transform(node *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch link := n.(type) {
		case *ast.Link:
			if IsExternal(string(link.Destination)) {
				markExternal(link)
			}
		case *ast.AutoLink:
			if link.AutoLinkType == ast.AutoLinkURL && IsExternal(string(link.URL(source))) {
				markExternal(link)
			}
		}
		return ast.WalkContinue, nil
	})
}

func markExternal(n ast.Node) {
	n.SetAttributeString("target", []byte("_blank"))
	n.SetAttributeString("rel", []byte("noopener noreferrer"))
}

// IsExternal reports whether dest is an absolute http(s) or
// protocol-relative URL.
func IsExternal(dest string) bool {
	s := strings.ToLower(strings.TrimSpace(dest))
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "//")
}
