package render

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
)

// Slugger generates GitHub-style heading identifiers. Repeated slugs get
// "-1", "-2", ... suffixes. A Slugger holds per-document state and must not
// be shared between renders.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns an empty slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug converts heading text to its base slug: lowercase letters, digits,
// '-' and '_' are kept, spaces become '-', everything else is dropped.
func Slug(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Next returns a unique slug for value within this slugger. Text without
// any slug characters yields "" the first time and "-1", "-2", ... after.
func (s *Slugger) Next(value string) string {
	base := Slug(value)
	id := base
	for n := s.seen[base]; ; n++ {
		if n > 0 {
			id = base + "-" + strconv.Itoa(n)
		}
		if _, taken := s.seen[id]; !taken {
			s.seen[base] = n + 1
			if id != base {
				s.seen[id] = 0
			}
			return id
		}
	}
}

// Generate implements parser.IDs.
func (s *Slugger) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(s.Next(string(value)))
}

// Put implements parser.IDs by reserving an explicit identifier.
func (s *Slugger) Put(value []byte) {
	id := string(value)
	if _, ok := s.seen[id]; !ok {
		s.seen[id] = 0
	}
}
