// Package render turns editor text into sanitized preview HTML through an
// ordered list of named goldmark stages.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
)

var (
	// ErrUnsanitizedRaw is returned by New when raw HTML is admitted without a
	// later sanitizing stage.
	ErrUnsanitizedRaw = errors.New("render: raw html admitted without a later sanitize stage")
	// ErrDuplicateStage is returned by New when two stages share a name.
	ErrDuplicateStage = errors.New("render: duplicate stage")
)

// Stage is one named step of the pipeline.
//
// Markdown options are applied to the shared goldmark converter, Context is
// called once per render to build fresh parser state, and HTML post-processes
// the converted output. Any of them may be nil.
type Stage struct {
	Name      string
	Markdown  []goldmark.Option
	Context   func() []parser.ContextOption
	HTML      func([]byte) ([]byte, error)
	AdmitsRaw bool
	Sanitizes bool
}

// Tree is the result of one render.
type Tree struct {
	HTML string
	// Degraded is set when a stage failed and HTML holds the escaped text.
	Degraded bool
	// FailedStage names the stage that failed, if any.
	FailedStage string
}

// Pipeline renders markdown text. It is safe for concurrent use.
type Pipeline struct {
	md     goldmark.Markdown
	stages []Stage
	logger *slog.Logger
}

// New composes stages in order. A stage admitting raw HTML must be followed
// by a sanitizing stage.
func New(logger *slog.Logger, stages ...Stage) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(stages))
	rawPending := false
	var opts []goldmark.Option
	for _, st := range stages {
		if _, dup := seen[st.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, st.Name)
		}
		seen[st.Name] = struct{}{}

		if st.AdmitsRaw {
			rawPending = true
		}
		if st.Sanitizes {
			rawPending = false
		}
		opts = append(opts, st.Markdown...)
	}
	if rawPending {
		return nil, ErrUnsanitizedRaw
	}

	return &Pipeline{
		md:     goldmark.New(opts...),
		stages: append([]Stage(nil), stages...),
		logger: logger,
	}, nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// Render converts text. It never panics and never returns an error: a failing
// stage degrades the result to the escaped source text.
func (p *Pipeline) Render(text string) (tree Tree) {
	current := "convert"
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("render: stage panicked",
				slog.String("stage", current),
				slog.String("panic", fmt.Sprint(r)))
			tree = Fallback(text, current)
		}
	}()

	var ctxOpts []parser.ContextOption
	for _, st := range p.stages {
		if st.Context != nil {
			current = st.Name
			ctxOpts = append(ctxOpts, st.Context()...)
		}
	}

	current = "convert"
	var buf bytes.Buffer
	pc := parser.NewContext(ctxOpts...)
	if err := p.md.Convert([]byte(text), &buf, parser.WithContext(pc)); err != nil {
		p.logger.Error("render: convert failed", slog.String("error", err.Error()))
		return Fallback(text, current)
	}

	out := buf.Bytes()
	for _, st := range p.stages {
		if st.HTML == nil {
			continue
		}
		current = st.Name
		next, err := st.HTML(out)
		if err != nil {
			p.logger.Error("render: stage failed",
				slog.String("stage", st.Name),
				slog.String("error", err.Error()))
			return Fallback(text, st.Name)
		}
		out = next
	}

	return Tree{HTML: string(out)}
}

// Fallback returns the degraded tree for text: the escaped source in a
// preformatted block.
func Fallback(text, stage string) Tree {
	return Tree{
		HTML:        `<pre class="render-fallback">` + html.EscapeString(text) + "</pre>\n",
		Degraded:    true,
		FailedStage: stage,
	}
}
