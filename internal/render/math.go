package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMathInline and KindMathBlock are the node kinds of math notation.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is $…$ (or $$…$$ when Display is set) inside a paragraph.
type MathInline struct {
	ast.BaseInline
	Display bool
	Literal []byte
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Literal": string(n.Literal)}, nil)
}

// MathBlock is a display equation between two $$ lines.
type MathBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node; block content is not parsed as inline markdown.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// MathExtension adds math parsing and rendering to goldmark.
var MathExtension goldmark.Extender = &mathExtension{}

type mathExtension struct{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 701)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathHTMLRenderer{}, 500),
	))
}

var mathFence = []byte("$$")

func isMathFence(line []byte) bool {
	return bytes.Equal(bytes.TrimSpace(line), mathFence)
}

type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (b *mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	return &MathBlock{}, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if isMathFence(line) {
		newline := 1
		if line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Len() - newline)
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

// Parse accepts $x$ and $$x$$ on a single line. The opener must not be
// followed by a space; a single-dollar closer must not follow a space or
// precede a digit, so prices like "$5 and $6" stay text.
func (p *mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	if len(body) == 0 || isMathSpace(body[0]) {
		return nil
	}

	end := -1
	for i := 0; i < len(body) && end < 0; i++ {
		switch body[i] {
		case '\\':
			i++
		case '\n':
			return nil
		case '$':
			if i == 0 {
				return nil
			}
			if delim == 2 {
				if i+1 < len(body) && body[i+1] == '$' {
					end = i
				}
				continue
			}
			if isMathSpace(body[i-1]) {
				continue
			}
			if i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '9' {
				continue
			}
			end = i
		}
	}
	if end < 0 {
		return nil
	}

	literal := append([]byte(nil), body[:end]...)
	block.Advance(delim + end + delim)
	return &MathInline{Display: delim == 2, Literal: literal}
}

func isMathSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

type mathHTMLRenderer struct{}

func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathHTMLRenderer) renderInline(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathInline)
	if n.Display {
		_, _ = w.WriteString(`<span class="math math-display">\[`)
		_, _ = w.Write(util.EscapeHTML(n.Literal))
		_, _ = w.WriteString(`\]</span>`)
	} else {
		_, _ = w.WriteString(`<span class="math math-inline">\(`)
		_, _ = w.Write(util.EscapeHTML(n.Literal))
		_, _ = w.WriteString(`\)</span>`)
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="math math-display">\[`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	_, _ = w.WriteString("\\]</div>\n")
	return ast.WalkSkipChildren, nil
}
