package editor

import _ "embed"

// SampleDocument seeds the document on first start.
//
//go:embed sample.md
var SampleDocument string
