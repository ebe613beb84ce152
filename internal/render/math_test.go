package render

import (
	"strings"
	"testing"
)

func TestMath(t *testing.T) {
	p := testPipeline(t, DefaultOptions())
	tests := []struct {
		name string
		in   string
		want []string
		not  []string
	}{
		{
			name: "inline",
			in:   "Euler: $e^{i\\pi}+1=0$ done",
			want: []string{`<span class="math math-inline">\(e^{i\pi}+1=0\)</span>`},
		},
		{
			name: "display inline",
			in:   "Sum $$\\sum_i x_i$$ here",
			want: []string{`<span class="math math-display">\[\sum_i x_i\]</span>`},
		},
		{
			name: "block",
			in:   "$$\na < b\n$$\n\nafter",
			want: []string{`<div class="math math-display">\[a &lt; b`, `\]</div>`, "after"},
		},
		{
			name: "markdown inside math is literal",
			in:   "$a_1 * b_2 * c$",
			want: []string{`\(a_1 * b_2 * c\)`},
			not:  []string{"<em>"},
		},
		{
			name: "prices stay text",
			in:   "costs $5 and $6 today",
			not:  []string{"math"},
		},
		{
			name: "space after opener",
			in:   "a $ b$ c",
			not:  []string{"math"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Render(tt.in).HTML
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %s in:\n%s", w, out)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("unexpected %s in:\n%s", n, out)
				}
			}
		})
	}
}
