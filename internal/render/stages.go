package render

import (
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Stage names of the default pipeline.
const (
	StageGFM           = "gfm"
	StageMath          = "math"
	StageHardWraps     = "hard-wraps"
	StageExternalLinks = "external-links"
	StageHeadingIDs    = "heading-ids"
	StageRawHTML       = "raw-html"
	StageHighlight     = "highlight"
	StageSanitize      = "sanitize"
)

// Options configures the default pipeline.
type Options struct {
	// AllowRawHTML admits raw HTML from the source; it is still sanitized.
	AllowRawHTML bool
	// HighlightStyle is the chroma style name used for code blocks.
	HighlightStyle string
}

// DefaultOptions matches the editor defaults.
func DefaultOptions() Options {
	return Options{AllowRawHTML: true, HighlightStyle: DefaultHighlightStyle}
}

// Defaults returns the editor stages in their required order.
func Defaults(opts Options) []Stage {
	return []Stage{
		GFM(),
		Math(),
		HardWraps(),
		ExternalLinks(),
		HeadingIDs(),
		RawHTML(opts.AllowRawHTML),
		Highlight(opts.HighlightStyle),
		Sanitize(NewPolicy()),
	}
}

// NewDefault builds the default pipeline.
func NewDefault(opts Options, logger *slog.Logger) (*Pipeline, error) {
	return New(logger, Defaults(opts)...)
}

// GFM enables tables, task lists, strikethrough and autolinks.
func GFM() Stage {
	return Stage{
		Name:     StageGFM,
		Markdown: []goldmark.Option{goldmark.WithExtensions(extension.GFM)},
	}
}

// Math recognizes $…$, $$…$$ and $$-fenced blocks.
func Math() Stage {
	return Stage{
		Name:     StageMath,
		Markdown: []goldmark.Option{goldmark.WithExtensions(MathExtension)},
	}
}

// HardWraps turns soft line breaks inside paragraphs into <br>.
func HardWraps() Stage {
	return Stage{
		Name:     StageHardWraps,
		Markdown: []goldmark.Option{goldmark.WithRendererOptions(html.WithHardWraps())},
	}
}

// ExternalLinks opens absolute links in a new context without opener access.
func ExternalLinks() Stage {
	return Stage{
		Name:     StageExternalLinks,
		Markdown: []goldmark.Option{goldmark.WithExtensions(ExternalLinkExtension)},
	}
}

// HeadingIDs assigns slug identifiers to headings, fresh for every render.
func HeadingIDs() Stage {
	return Stage{
		Name:     StageHeadingIDs,
		Markdown: []goldmark.Option{goldmark.WithParserOptions(parser.WithAutoHeadingID())},
		Context: func() []parser.ContextOption {
			return []parser.ContextOption{parser.WithIDs(NewSlugger())}
		},
	}
}

// RawHTML admits raw HTML when allow is set. Otherwise goldmark replaces it
// with an omission comment that sanitization removes.
func RawHTML(allow bool) Stage {
	st := Stage{Name: StageRawHTML}
	if allow {
		st.Markdown = []goldmark.Option{goldmark.WithRendererOptions(html.WithUnsafe())}
		st.AdmitsRaw = true
	}
	return st
}
