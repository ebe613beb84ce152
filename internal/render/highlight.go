package render

import (
	"fmt"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/util"
)

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// Highlight adds chroma syntax highlighting to fenced code. Tokens carry CSS
// classes only; HighlightCSS serves the colors. Every code block is wrapped
// in <div class="highlight" data-lang="…"> so later stages know its language.
func Highlight(style string) Stage {
	if style == "" {
		style = DefaultHighlightStyle
	}
	return Stage{
		Name: StageHighlight,
		Markdown: []goldmark.Option{goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
				highlighting.WithWrapperRenderer(wrapCodeBlock),
			),
		)},
	}
}

func wrapCodeBlock(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	lang, hasLang := c.Language()
	if entering {
		_, _ = w.WriteString(`<div class="highlight"`)
		if hasLang {
			_, _ = w.WriteString(` data-lang="`)
			_, _ = w.Write(util.EscapeHTML(lang))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
		if !c.Highlighted() {
			_, _ = w.WriteString("<pre><code>")
		}
		return
	}
	if !c.Highlighted() {
		_, _ = w.WriteString("</code></pre>")
	}
	_, _ = w.WriteString("</div>\n")
}

// HighlightCSS writes the class-based stylesheet of a chroma style.
func HighlightCSS(w io.Writer, style string) error {
	if !KnownStyle(style) {
		return fmt.Errorf("render: unknown highlight style %q", style)
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	return formatter.WriteCSS(w, styles.Get(style))
}

// KnownStyle reports whether chroma ships a style called name.
func KnownStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
