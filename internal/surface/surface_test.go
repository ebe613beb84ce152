package surface

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/inkpad/internal/render"
)

func renderAndDecorate(t *testing.T, src string) Output {
	t.Helper()
	p, err := render.NewDefault(render.DefaultOptions(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	out, err := Decorate(p.Render(src))
	if err != nil {
		t.Fatalf("Decorate: %v", err)
	}
	return out
}

func TestDecorate_HeadingPermalink(t *testing.T) {
	out := renderAndDecorate(t, "# Hi\n\nSee [link](https://x.com)")

	if len(out.Headings) != 1 {
		t.Fatalf("headings = %+v", out.Headings)
	}
	if h := out.Headings[0]; h.Level != 1 || h.ID != "hi" || h.Text != "Hi" {
		t.Errorf("heading = %+v", h)
	}
	for _, want := range []string{
		`<a class="heading-anchor" href="#hi" aria-label="Link to this heading">#</a>`,
		`target="_blank"`,
	} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("html missing %s:\n%s", want, out.HTML)
		}
	}
}

func TestDecorate_PunctuationHeadingHasNoAnchor(t *testing.T) {
	out := renderAndDecorate(t, "# !!!\n\n## Intro\n")

	if len(out.Headings) != 2 {
		t.Fatalf("headings = %+v", out.Headings)
	}
	if id := out.Headings[0].ID; id != "" {
		t.Errorf("punctuation heading id = %q, want empty", id)
	}
	if n := strings.Count(out.HTML, `class="heading-anchor"`); n != 1 {
		t.Errorf("anchors = %d, want 1:\n%s", n, out.HTML)
	}
	if strings.Contains(out.HTML, `href="#"`) {
		t.Errorf("empty anchor rendered:\n%s", out.HTML)
	}
}

func TestDecorate_TableScrollAndCallout(t *testing.T) {
	out := renderAndDecorate(t, "| a |\n|---|\n| 1 |\n\n> note")
	if !strings.Contains(out.HTML, `<div class="table-scroll"><table>`) {
		t.Errorf("table not wrapped:\n%s", out.HTML)
	}
	if !strings.Contains(out.HTML, `<blockquote class="callout">`) {
		t.Errorf("blockquote not marked:\n%s", out.HTML)
	}
}

func TestDecorate_CodeBlocks(t *testing.T) {
	src := "```go\nfmt.Println(\"<hi>\")\n```\n\ntext\n\n```\nplain & simple\n```\n"
	out := renderAndDecorate(t, src)

	if len(out.Blocks) != 2 {
		t.Fatalf("blocks = %+v", out.Blocks)
	}
	if b := out.Blocks[0]; b.Index != 0 || b.Language != "go" || b.Text != "fmt.Println(\"<hi>\")\n" {
		t.Errorf("block 0 = %+v", b)
	}
	if b := out.Blocks[1]; b.Index != 1 || b.Language != "" || b.Text != "plain & simple\n" {
		t.Errorf("block 1 = %+v", b)
	}
	for _, want := range []string{`data-block="0"`, `data-block="1"`, `data-copy="1"`, `class="copy-button"`} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("html missing %s:\n%s", want, out.HTML)
		}
	}
	if strings.Count(out.HTML, `class="code-block"`) != 2 {
		t.Errorf("want 2 code-block wrappers:\n%s", out.HTML)
	}
}

func TestDecorate_RawPreIsWrapped(t *testing.T) {
	out, err := Decorate(render.Tree{HTML: `<pre><code class="language-sh">echo <b>hi</b></code></pre>`})
	if err != nil {
		t.Fatalf("Decorate: %v", err)
	}
	if len(out.Blocks) != 1 || out.Blocks[0].Language != "sh" || out.Blocks[0].Text != "echo hi" {
		t.Fatalf("blocks = %+v", out.Blocks)
	}
	if !strings.HasPrefix(out.HTML, `<div class="code-block" data-block="0" data-lang="sh"><button`) {
		t.Errorf("html = %s", out.HTML)
	}
}

func TestDecorate_DegradedPassThrough(t *testing.T) {
	tree := render.Fallback("# <x>", "boom")
	out, err := Decorate(tree)
	if err != nil {
		t.Fatalf("Decorate: %v", err)
	}
	if !out.Degraded || out.HTML != tree.HTML || len(out.Blocks) != 0 {
		t.Errorf("out = %+v", out)
	}
}

func TestText_FlattensNestedMarkup(t *testing.T) {
	root, err := parseFragment(`<pre><code>a <b>b <i>c</i></b> &amp; d</code></pre>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := Text(root); got != "a b c & d" {
		t.Errorf("Text = %q", got)
	}
}
